package main

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/arduwire/arduwire/hardware/gpio"
	"github.com/arduwire/arduwire/server"
	"github.com/arduwire/arduwire/session"
	"github.com/arduwire/arduwire/store"
	badger "github.com/dgraph-io/badger/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"go.etcd.io/bbolt"
	"go.uber.org/multierr"
)

const (
	engineBBolt  = "bbolt"
	engineBadger = "badger"
)

type storeAction func(c *cli.Context, st store.Store) error

func (a *app) openStore(engine, path string) (store.Store, error) {
	switch engine {
	case engineBBolt:
		return store.OpenBBolt(path, 0600, &bbolt.Options{Timeout: time.Second})
	case engineBadger:
		return store.OpenBadger(badger.DefaultOptions(path).WithLogger(a.logger))
	default:
		return nil, fmt.Errorf("unknown store engine %q, use %s or %s", engine, engineBBolt, engineBadger)
	}
}

// withStore opens the store for the action and closes it however the action ends.
func (a *app) withStore(action storeAction) cli.ActionFunc {
	return func(c *cli.Context) (err error) {
		st, err := a.openStore(c.String(flagEngine), filepath.Clean(c.String(flagDB)))
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, st.Close())
		}()

		return action(c, st)
	}
}

// parseLayoutPins parses "name=address" arguments, for example "light=d:13:o".
func parseLayoutPins(args []string) ([]store.LayoutPin, error) {
	pins := make([]store.LayoutPin, 0, len(args))
	for _, arg := range args {
		name, addr, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("pin %q must have the form name=type:number:mode", arg)
		}

		address, err := gpio.ParseAddress(addr)
		if err != nil {
			return nil, err
		}

		pins = append(pins, store.LayoutPin{Name: name, Address: address})
	}

	return pins, nil
}

func putLayout(c *cli.Context, st store.Store) error {
	if c.NArg() < 1 {
		return errors.New("layout put needs a layout name")
	}

	pins, err := parseLayoutPins(c.Args().Tail())
	if err != nil {
		return err
	}

	return st.PutLayout(store.Layout{Name: c.Args().First(), Pins: pins})
}

func showLayout(c *cli.Context, st store.Store) error {
	layout, err := st.Layout(c.Args().First())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetTitle(layout.Name)
	t.AppendHeader(table.Row{"#", "Name", "Address", "Type", "Number", "Mode"})
	for i, p := range layout.Pins {
		t.AppendRow(table.Row{i + 1, p.Name, p.Address, p.Address.Type, p.Address.Number, p.Address.Mode})
	}
	fmt.Fprintln(c.App.Writer, t.Render())

	return nil
}

func listLayouts(c *cli.Context, st store.Store) error {
	names, err := st.ListLayouts()
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Fprintln(c.App.Writer, name)
	}

	return nil
}

func (a *app) serve(c *cli.Context, st store.Store) error {
	s := server.Server{
		Addr:           c.String(flagAddr),
		Store:          st,
		Logger:         a.logger,
		Board:          boardConfig(c),
		SessionOptions: append([]session.Option{session.WithSettle(c.Duration(flagSettle))}, a.opts...),
	}

	if err := s.Run(c.Context); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("unable to serve: %w", err)
	}

	return nil
}
