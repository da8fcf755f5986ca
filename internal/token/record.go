// Package token describes the session-token record kept in the client's
// persistent store.
package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"swa/pkg/kv"
)

// DefaultKey is the well-known key the record is stored under.
const DefaultKey = "jwt"

// State classifies what is stored under the session-token key.
type State int

const (
	// Absent means the key does not exist: fully logged out.
	Absent State = iota
	// Live means the key carries a credential.
	Live
	// Expired means the session ended involuntarily and the marker was left
	// for the next page to read.
	Expired
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Live:
		return "live"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Record is the serialized value. A live record carries Token; the expired
// marker only sets Expired.
type Record struct {
	Token   string `json:"token,omitempty"`
	Expired bool   `json:"expired,omitempty"`
}

// ErrMalformed is returned when a stored value is not a record.
var ErrMalformed = errors.New("token: malformed record")

var expiredMarker = []byte(`{"expired":true}`)

// ExpiredMarker returns the exact bytes written on an expired logout.
func ExpiredMarker() []byte {
	return bytes.Clone(expiredMarker)
}

// NewLive builds the value for a live credential.
func NewLive(credential string) ([]byte, error) {
	if credential == "" {
		return nil, errors.New("token: empty credential")
	}
	return json.Marshal(Record{Token: credential})
}

// Parse decodes a stored value.
func Parse(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return r, nil
}

// State reports how the record should be treated. A record that is neither
// marked expired nor carries a credential is treated as absent.
func (r Record) State() State {
	switch {
	case r.Expired:
		return Expired
	case r.Token != "":
		return Live
	default:
		return Absent
	}
}

// Getter is the read half of a store.
type Getter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Inspect reads key from store and classifies it.
func Inspect(ctx context.Context, store Getter, key string) (State, Record, error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return Absent, Record{}, nil
	}
	if err != nil {
		return Absent, Record{}, err
	}
	r, err := Parse(data)
	if err != nil {
		return Absent, Record{}, err
	}
	return r.State(), r, nil
}
