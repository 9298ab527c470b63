package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/sequence"
	"github.com/arduwire/arduwire/session"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

type app struct {
	logger *logrus.Logger
	opts   []session.Option
}

type sessionAction func(ctx context.Context, c *cli.Context, s *session.Session) error

// boardConfig builds the board config from the global flags.
func boardConfig(c *cli.Context) hardware.Config {
	return hardware.Config{
		Port:      c.String(flagPort),
		Variant:   hardware.Variant(c.String(flagBoard)),
		Baud:      c.Int(flagBaud),
		SyncDelay: c.Duration(flagSyncDelay),
	}
}

// withSession opens a session for the action and closes it however the action ends.
func (a *app) withSession(action sessionAction) cli.ActionFunc {
	return func(c *cli.Context) (err error) {
		opts := append([]session.Option{
			session.WithLogger(a.logger),
			session.WithSettle(c.Duration(flagSettle)),
		}, a.opts...)

		s := session.Open(c.Context, boardConfig(c), opts...)
		defer func() {
			err = multierr.Append(err, s.Close())
		}()

		if status := s.Status(); !status.Ready() {
			return fmt.Errorf("sorry, couldn't create board: %w", status.Reason)
		}

		return action(c.Context, c, s)
	}
}

func piezoTest(_ context.Context, _ *cli.Context, s *session.Session) error {
	return sequence.PiezoTest(s)
}

func smoothPiezo(_ context.Context, _ *cli.Context, s *session.Session) error {
	return sequence.SmoothPiezo(s)
}

func morse(_ context.Context, c *cli.Context, s *session.Session) error {
	if c.NArg() < 1 {
		return errors.New("morse needs the text to play")
	}

	speed := float64(sequence.DefaultSpeed)
	if c.NArg() > 1 {
		var err error
		speed, err = strconv.ParseFloat(c.Args().Get(1), 64)
		if err != nil {
			return fmt.Errorf("invalid speed factor %q: %w", c.Args().Get(1), err)
		}
	}

	return sequence.Morse(s, c.Args().First(), speed)
}

func blink(_ context.Context, _ *cli.Context, s *session.Session) error {
	return sequence.Blink(s, sequence.DefaultBlinks)
}

func blinkX(_ context.Context, c *cli.Context, s *session.Session) error {
	amount, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", c.Args().First(), err)
	}

	return sequence.Blink(s, amount)
}

func beepWithButton(ctx context.Context, _ *cli.Context, s *session.Session) error {
	return sequence.BeepWithButton(ctx, s)
}

func blinkWithInput(_ context.Context, c *cli.Context, s *session.Session) error {
	opts := sequence.DefaultBlinkOptions()
	opts.MinPin = c.Int(flagMinPin)
	opts.MaxPin = c.Int(flagMaxPin)

	args := c.Args()
	if args.Len() > 0 {
		policy, err := sequence.ParsePolicy(args.Get(0))
		if err != nil {
			return err
		}
		opts.Policy = policy
	}

	if args.Len() > 1 {
		interval, err := parseInterval(args.Get(1))
		if err != nil {
			return err
		}
		opts.Interval = interval
	}

	if args.Len() > 2 {
		amount, err := strconv.Atoi(args.Get(2))
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args.Get(2), err)
		}
		opts.Amount = amount
	}

	return sequence.BlinkPins(s, opts)
}

// parseInterval accepts a duration like "250ms" or a plain number of seconds.
func parseInterval(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("invalid interval %q", s)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

func probe(_ context.Context, c *cli.Context, s *session.Session) error {
	readings, err := sequence.Probe(s, c.Int(flagRounds), c.Duration(flagInterval))

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Written", "Read"})
	for i, r := range readings {
		read := "-"
		if r.Reported {
			read = strconv.FormatFloat(r.Value, 'f', -1, 64)
		}
		t.AppendRow(table.Row{i + 1, r.Written, read})
	}
	fmt.Fprintln(c.App.Writer, t.Render())

	return err
}
