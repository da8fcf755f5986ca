package r2

import (
	"errors"
	"testing"

	"swa/pkg/kv"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name     string
		in       error
		notFound bool
	}{
		{"nil", nil, false},
		{"no such key", &types.NoSuchKey{}, true},
		{"head not found", &types.NotFound{}, true},
		{"generic 404 code", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.in)
			if tc.in == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if errors.Is(got, kv.ErrNotFound) != tc.notFound {
				t.Fatalf("mapError(%v) = %v, notFound want %v", tc.in, got, tc.notFound)
			}
		})
	}
}
