package web

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"time"
)

// Server wraps the HTTP monitor and its handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server configured for the given address and dependencies.
func NewServer(addr string, broadcaster *StatusBroadcaster, submit SubmitFunc, paramsFn ParamsFunc) *Server {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("web: failed to sub static fs: %v", err)
	}

	return &Server{
		addr:     addr,
		handlers: NewHandlers(broadcaster, submit, paramsFn, subFS),
	}
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /cmd", s.handlers.HandleCmd)
	mux.HandleFunc("GET /params", s.handlers.HandleParams)
	mux.HandleFunc("GET /status/stream", s.handlers.HandleStatusStream)
	mux.HandleFunc("GET /{$}", s.handlers.ServeIndex) // exact match for root only

	return mux
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Mux()}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web monitor listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
