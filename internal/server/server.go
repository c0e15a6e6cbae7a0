// Package server exposes the engine over HTTP and streams store changes to
// websocket clients.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
)

// Server is the HTTP API over an Engine.
type Server struct {
	engine      *app.Engine
	broker      *Broker
	origins     originPolicy
	unsubscribe func()
	server      *http.Server
}

// New creates a server listening on port. Origins lists the browser origins
// allowed by CORS and the websocket handshake; "*" and host globs such as
// "http://localhost:*" are accepted.
func New(engine *app.Engine, port int, origins []string) *Server {
	s := &Server{
		engine:  engine,
		broker:  NewBroker(),
		origins: newOriginPolicy(origins),
	}
	s.unsubscribe = engine.Store().Subscribe(s.broker.Publish)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Handler returns the routed handler, CORS included.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Broker returns the change broker.
func (s *Server) Broker() *Broker { return s.broker }

// Addr is the listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Start serves in the background. Errors other than a clean shutdown are
// sent to errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

// Shutdown stops accepting requests and detaches from the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	return s.server.Shutdown(ctx)
}
