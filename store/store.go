package store

import (
	"errors"
	"fmt"
	"io"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/hardware/gpio"
)

// ErrNotFound is returned when the requested value was never stored.
var ErrNotFound = errors.New("not found in store")

// Store describes a persistent storage engine for arduwire information.
type Store interface {
	BoardConfig() (hardware.Config, error)
	PutBoardConfig(c hardware.Config) error

	Layout(name string) (Layout, error)
	ListLayouts() ([]string, error)
	PutLayout(l Layout) error

	io.Closer
}

// LayoutPin is a named pin of a layout.
type LayoutPin struct {
	Name    string       `json:"name"`
	Address gpio.Address `json:"address"`
}

// Layout is a named set of pins registered together.
type Layout struct {
	Name string      `json:"name"`
	Pins []LayoutPin `json:"pins"`
}

// Validate checks that the layout has a name and that its pin names are unique and not empty.
func (l Layout) Validate() error {
	if l.Name == "" {
		return errors.New("layout name must not be empty")
	}

	seen := make(map[string]bool, len(l.Pins))
	for _, p := range l.Pins {
		if p.Name == "" {
			return fmt.Errorf("layout %q has a pin without a name", l.Name)
		}

		if seen[p.Name] {
			return fmt.Errorf("layout %q has pin %q more than once", l.Name, p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}

// Registerer registers pins. *session.Session satisfies it.
type Registerer interface {
	Register(name string, number int, pinType gpio.Type, pinMode gpio.Mode) error
}

// Apply registers every pin of the layout in order.
func (l Layout) Apply(r Registerer) error {
	for _, p := range l.Pins {
		if err := r.Register(p.Name, p.Address.Number, p.Address.Type, p.Address.Mode); err != nil {
			return fmt.Errorf("unable to apply layout %q: %w", l.Name, err)
		}
	}

	return nil
}
