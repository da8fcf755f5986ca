package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	deviceCookie = "swa_device"
	deviceMaxAge = 400 * 24 * 60 * 60
)

type middleware func(next http.Handler) http.Handler

func handle(mux *http.ServeMux, pattern string, handler http.Handler, middlewares ...middleware) {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](http.Handler(handler))
	}
	mux.Handle(pattern, handler)
}

type deviceKey struct{}

// deviceFrom returns the device id assigned by deviceMiddleware.
func deviceFrom(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey{}).(string)
	return id
}

// deviceMiddleware identifies the browser with a long-lived cookie. The
// device namespace plays the role of the browser's origin-scoped storage.
func deviceMiddleware(secure bool) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(deviceCookie); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     deviceCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   deviceMaxAge,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceKey{}, id)))
		})
	}
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func logMiddleware(log *zap.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// unauthorizedInterceptor swallows a 401 written by the wrapped handler so
// the response can be replaced.
type unauthorizedInterceptor struct {
	http.ResponseWriter
	wrote       bool
	intercepted bool
}

func (u *unauthorizedInterceptor) WriteHeader(code int) {
	if u.wrote {
		return
	}
	u.wrote = true
	if code == http.StatusUnauthorized {
		u.intercepted = true
		return
	}
	u.ResponseWriter.WriteHeader(code)
}

func (u *unauthorizedInterceptor) Write(b []byte) (int, error) {
	if !u.wrote {
		u.WriteHeader(http.StatusOK)
	}
	if u.intercepted {
		return len(b), nil
	}
	return u.ResponseWriter.Write(b)
}

// expireOnUnauthorized terminates the session as expired whenever the
// wrapped handler answers 401 Unauthorized.
func (s *Server) expireOnUnauthorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		iw := &unauthorizedInterceptor{ResponseWriter: w}
		next.ServeHTTP(iw, r)
		if !iw.intercepted {
			return
		}
		w.Header().Del("Content-Type")
		w.Header().Del("X-Content-Type-Options")
		s.log.Info("unauthorized, expiring session",
			zap.String("path", r.URL.Path),
			zap.String("device", deviceFrom(r.Context())),
		)
		_ = s.terminator(w, r).Expire(r.Context())
	})
}
