// Package session owns the connection to a board and the pins registered on it.
//
// Opening a session never fails: if the board can't be reached the session is
// left degraded, every pin operation returns ErrNoBoard, and Status reports
// why. Callers should check Status before driving pins and defer Close so the
// board is released on every exit path.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/hardware/gpio"
	"github.com/arduwire/arduwire/registry"
	"github.com/sirupsen/logrus"
)

// DefaultSettle is how long a board is given after each pin registration.
const DefaultSettle = time.Second

var (
	// ErrNoBoard is returned by every pin operation on a session without a board.
	ErrNoBoard = errors.New("no board connected")

	// ErrClosed is the status reason of a closed session.
	ErrClosed = fmt.Errorf("session closed: %w", ErrNoBoard)
)

// Opener acquires a board. hardware.New is the default.
type Opener func(ctx context.Context, config hardware.Config, logger logrus.FieldLogger) (hardware.Board, error)

// Status tells whether a session has a usable board.
type Status struct {
	// Board is the name of the connected board when ready.
	Board string

	// Reason is why the session has no board, or nil when ready.
	Reason error
}

// Ready reports whether the session has a board.
func (s Status) Ready() bool {
	return s.Reason == nil
}

type Option func(*Session)

// WithOpener replaces the function used to acquire the board.
func WithOpener(opener Opener) Option {
	return func(s *Session) {
		s.opener = opener
	}
}

// WithLogger sets the logger the session and its registry log to.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSettle sets how long the board is given after each pin registration.
func WithSettle(d time.Duration) Option {
	return func(s *Session) {
		s.settle = d
	}
}

// Session is a board plus the pins registered on it. It is not safe for
// concurrent use.
type Session struct {
	config hardware.Config
	opener Opener
	logger logrus.FieldLogger
	settle time.Duration

	board  hardware.Board
	pins   *registry.Registry
	reason error
}

// Open connects to the board described by config. Failures are logged and
// leave the session degraded instead of being returned.
func Open(ctx context.Context, config hardware.Config, opts ...Option) *Session {
	logger := logrus.New()
	logger.Out = io.Discard

	s := &Session{
		config: config,
		opener: hardware.New,
		logger: logger,
		settle: DefaultSettle,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.WithFields(logrus.Fields{"port": config.Port, "board": config.Variant})

	if _, err := hardware.ParseVariant(string(config.Variant)); err != nil {
		s.degrade(err)
		return s
	}

	board, err := s.opener(ctx, config, s.logger)
	if err != nil {
		s.degrade(err)
		return s
	}

	s.board = board
	s.pins = registry.New(board, s.settle, s.logger)
	s.logger.Debugf("registered board %s", board.Name())

	return s
}

func (s *Session) degrade(err error) {
	s.reason = err
	s.logger.Errorf("could not create a board with these values: %s", err)
}

// Status returns whether the session has a board, and why not if it doesn't.
func (s *Session) Status() Status {
	if s.board == nil {
		return Status{Reason: s.reason}
	}

	return Status{Board: s.board.Name()}
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() hardware.Config {
	return s.config
}

// Pins returns the registered pins, sorted by name.
func (s *Session) Pins() []registry.Pin {
	if s.board == nil {
		return nil
	}

	return s.pins.Pins()
}

// Register configures a pin and names it. See registry.Registry.Register.
func (s *Session) Register(name string, number int, pinType gpio.Type, pinMode gpio.Mode) error {
	if s.board == nil {
		return ErrNoBoard
	}

	return s.pins.Register(name, number, pinType, pinMode)
}

// RegisterRange registers pins min through max named after their numbers.
func (s *Session) RegisterRange(min, max int, pinType gpio.Type, pinMode gpio.Mode) error {
	if s.board == nil {
		return ErrNoBoard
	}

	return s.pins.RegisterRange(min, max, pinType, pinMode)
}

// Lookup returns the pin named name, or the last used pin for registry.Last.
func (s *Session) Lookup(name string) (registry.Pin, error) {
	if s.board == nil {
		return registry.Pin{}, ErrNoBoard
	}

	return s.pins.Lookup(name)
}

// Write writes value to the pin named name, or the last used pin for registry.Last.
func (s *Session) Write(name string, value float64) error {
	if s.board == nil {
		return ErrNoBoard
	}

	return s.pins.Write(name, value)
}

// Read reads the pin named name, or the last used pin for registry.Last.
func (s *Session) Read(name string) (float64, error) {
	if s.board == nil {
		return 0, ErrNoBoard
	}

	return s.pins.Read(name)
}

// Wait passes d on the board.
func (s *Session) Wait(d time.Duration) error {
	if s.board == nil {
		return ErrNoBoard
	}

	s.board.PassTime(d)

	return nil
}

// Close releases the board. It is safe to call on a degraded session and more
// than once.
func (s *Session) Close() error {
	if s.board == nil {
		return nil
	}

	board := s.board
	s.board, s.pins, s.reason = nil, nil, ErrClosed

	if err := board.Exit(); err != nil {
		return fmt.Errorf("unable to release board: %w", err)
	}

	s.logger.Debug("released board")

	return nil
}
