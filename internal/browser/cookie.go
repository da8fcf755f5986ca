package browser

import (
	"net/http"
	"strings"
)

// parseCookieHeader reads the name=value pairs of document.cookie.
func parseCookieHeader(header string) []*http.Cookie {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	cookies, err := http.ParseCookie(header)
	if err == nil {
		return cookies
	}
	// document.cookie may hold values net/http rejects; keep them as is
	var out []*http.Cookie
	for _, part := range strings.Split(header, ";") {
		name, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		if name == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return out
}

func expireCookie(name string) string {
	return name + "=; Path=/; Expires=Thu, 01 Jan 1970 00:00:00 GMT; Max-Age=0"
}
