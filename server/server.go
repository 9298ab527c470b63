package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/session"
	"github.com/arduwire/arduwire/store"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type Server struct {
	Addr string

	Store  store.Store
	Logger *logrus.Logger

	// Board is connected to when the store has no board config.
	Board hardware.Config

	// SessionOptions are applied to every session the server opens.
	SessionOptions []session.Option

	sessionManager *sessionManager
}

func (s *Server) Run(ctx context.Context) (err error) {
	s.init(ctx)
	defer func() {
		err = multierr.Append(err, s.sessionManager.Close())
	}()

	httpServer := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadTimeout:       time.Second * 15,
		ReadHeaderTimeout: time.Second * 15,
		IdleTimeout:       time.Second * 30,
		MaxHeaderBytes:    4096,
	}

	listenErrs := make(chan error, 1)
	go func() {
		s.Logger.WithField("addr", s.Addr).Info("serving http")
		listenErrs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-listenErrs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() http.Handler {
	mux := httprouter.New()

	mux.HandlerFunc(http.MethodGet, "/board", s.getBoard)
	mux.HandlerFunc(http.MethodPut, "/board", s.putBoard)
	mux.HandlerFunc(http.MethodGet, "/status", s.status)

	mux.HandlerFunc(http.MethodGet, "/layouts", s.layouts)
	mux.HandlerFunc(http.MethodGet, "/layouts/:name", s.getLayout)
	mux.HandlerFunc(http.MethodPut, "/layouts/:name", s.putLayout)

	mux.HandlerFunc(http.MethodGet, "/pins", s.pins)
	mux.HandlerFunc(http.MethodGet, "/pins/:name", s.readPin)
	mux.HandlerFunc(http.MethodPut, "/pins/:name", s.writePin)

	mux.HandlerFunc(http.MethodPost, "/rpc/reconnect", s.reconnect)
	mux.HandlerFunc(http.MethodPost, "/rpc/applyLayout", s.applyLayout)

	return mux
}

// init opens the session manager with the board config from the store,
// falling back to s.Board.
func (s *Server) init(ctx context.Context) {
	opts := append([]session.Option{session.WithLogger(s.Logger)}, s.SessionOptions...)
	s.sessionManager = newSessionManager(opts...)

	status, err := s.sessionManager.Update(ctx, s.boardConfig())
	if err != nil {
		s.Logger.Warnf("unable to release previous board: %s", err)
	}

	if !status.Ready() {
		s.Logger.Warnf("serving without a board: %s", status.Reason)
	}
}

func (s *Server) boardConfig() hardware.Config {
	config, err := s.Store.BoardConfig()
	if err == nil {
		return config
	}

	if !errors.Is(err, store.ErrNotFound) {
		s.Logger.Warnf("unable to read board config: %s", err)
	}

	s.Logger.Infof("no board config stored, using %s on %s", s.Board.Variant, s.Board.Port)

	return s.Board
}
