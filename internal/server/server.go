// Package server provides functionalities to start and manage the server.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"swa/internal/backend"
	"swa/internal/config"
	"swa/internal/terminator"
	"swa/internal/token"
	"swa/pkg/api"
	"swa/pkg/kv"
)

//go:embed pages/*.html
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "pages/*.html"))

// Options configures a Server.
type Options struct {
	TokenKey string
	// SessionCookies are cleared on termination; the first one also carries
	// the credential stored through PUT /api/session.
	SessionCookies []string
	// Secure marks cookies as HTTPS only.
	Secure bool
	Logger *zap.Logger
}

// Server hosts the session terminator for server-rendered pages.
type Server struct {
	store   kv.Store
	opts    Options
	log     *zap.Logger
	metrics *metrics
}

// New returns a Server keeping per-device records in store.
func New(store kv.Store, opts Options) *Server {
	if opts.TokenKey == "" {
		opts.TokenKey = token.DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		store:   store,
		opts:    opts,
		log:     opts.Logger,
		metrics: newMetrics(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	device := deviceMiddleware(s.opts.Secure)

	// Mux definition start
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	mux.Handle("GET /metrics", s.metrics.handler())
	handle(mux, "GET /{$}", http.HandlerFunc(s.index), device)
	handle(mux, "GET /app/", http.HandlerFunc(s.app), device, s.expireOnUnauthorized)
	handle(mux, "/logout", http.HandlerFunc(s.logout), device)
	handle(mux, "GET /api/session", http.HandlerFunc(s.getSession), device)
	handle(mux, "PUT /api/session", http.HandlerFunc(s.putSession), device)
	// Mux definition end

	return logMiddleware(s.log)(mux)
}

// deviceStore is the storage area of the requesting browser.
func (s *Server) deviceStore(r *http.Request) *kv.Scoped {
	return kv.Scope(s.store, "device/"+deviceFrom(r.Context()))
}

func (s *Server) terminator(w http.ResponseWriter, r *http.Request) *terminator.Terminator {
	return terminator.New(
		s.deviceStore(r),
		&responseCookies{w: w, r: r, secure: s.opts.Secure},
		&redirectNavigator{w: w, r: r},
		terminator.WithTokenKey(s.opts.TokenKey),
		terminator.WithCookieNames(s.opts.SessionCookies...),
		terminator.WithLogger(s.log.With(zap.String("device", deviceFrom(r.Context())))),
		terminator.WithHook(s.metrics.observe),
	)
}

func (s *Server) state(r *http.Request) (token.State, error) {
	state, _, err := token.Inspect(r.Context(), s.deviceStore(r), s.opts.TokenKey)
	return state, err
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	state, err := s.state(r)
	if err != nil {
		s.log.Warn("read session record", zap.Error(err))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = pages.ExecuteTemplate(w, "index.html", struct {
		Live    bool
		Expired bool
	}{
		Live:    state == token.Live,
		Expired: state == token.Expired,
	})
	if err != nil {
		s.log.Error("render index", zap.Error(err))
	}
}

func (s *Server) app(w http.ResponseWriter, r *http.Request) {
	state, err := s.state(r)
	if err != nil || state != token.Live {
		http.Error(w, "unauthorized, session not found, please log in", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, "app.html", nil); err != nil {
		s.log.Error("render app", zap.Error(err))
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	expired, _ := strconv.ParseBool(r.FormValue("expired"))
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req api.LogoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		expired = req.Expired
	}
	if err := s.terminator(w, r).Terminate(r.Context(), expired); err != nil {
		s.log.Warn("session terminated with faults", zap.Error(err))
	}
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.state(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.SessionResponse{State: state.String()})
}

// putSession stores a live record for a credential issued by the identity
// provider and hands the session cookie to the browser.
func (s *Server) putSession(w http.ResponseWriter, r *http.Request) {
	var req api.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	value, err := token.NewLive(req.Token)
	if err != nil {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := s.deviceStore(r).Set(r.Context(), s.opts.TokenKey, value); err != nil {
		s.log.Error("store session record", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if len(s.opts.SessionCookies) > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:     s.opts.SessionCookies[0],
			Value:    req.Token,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

// Serve opens the configured store and serves until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	srv := &http.Server{
		Handler: New(store, Options{
			TokenKey:       cfg.TokenKey,
			SessionCookies: cfg.SessionCookies,
			Secure:         strings.HasPrefix(cfg.BaseURL, "https://"),
			Logger:         log,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	log.Info("starting server", zap.Int("port", cfg.Port), zap.String("store", cfg.StoreDriver))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
