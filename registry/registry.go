// Package registry keeps the named pins registered on a board.
package registry

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/arduwire/arduwire/hardware/gpio"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Last is the name to pass to use the most recently registered or used pin.
const Last = ""

// ErrNotFound is returned when looking up a pin that was never registered.
var ErrNotFound = errors.New("no pin registered with that name")

// PinSource hands out configured pins. hardware.Board satisfies it.
type PinSource interface {
	GetPin(addr string) (gpio.Pin, error)
	PassTime(d time.Duration)
}

// Pin describes a registered pin.
type Pin struct {
	Name   string
	Number int
	Type   gpio.Type
	Mode   gpio.Mode
	Handle gpio.Pin
}

// Address returns the address the pin was registered with.
func (p Pin) Address() gpio.Address {
	return gpio.Address{Type: p.Type, Number: p.Number, Mode: p.Mode}
}

// Registry maps pin names to pins on a single board. It is not safe for
// concurrent use.
type Registry struct {
	source PinSource
	logger logrus.FieldLogger

	// settle is passed on the board after every registration.
	settle time.Duration

	pins map[string]Pin
	last string
}

// New returns an empty registry getting pins from source. After every
// registration the board is given settle to apply the new pin mode.
func New(source PinSource, settle time.Duration, logger logrus.FieldLogger) *Registry {
	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}

	return &Registry{
		source: source,
		logger: logger,
		settle: settle,
		pins:   make(map[string]Pin),
	}
}

// Register configures pin number as type and mode and stores it under name,
// replacing any pin already registered with that name. name becomes the
// default for calls passing Last.
func (r *Registry) Register(name string, number int, pinType gpio.Type, pinMode gpio.Mode) error {
	if name == Last {
		return errors.New("pin name must not be empty")
	}

	addr := gpio.Address{Type: pinType, Number: number, Mode: pinMode}

	r.logger.WithField("pin", name).Debugf("registering pin %s", addr)

	handle, err := r.source.GetPin(addr.String())
	if err != nil {
		return fmt.Errorf("unable to register pin %q at %s: %w", name, addr, err)
	}

	if r.settle > 0 {
		r.source.PassTime(r.settle)
	}

	r.pins[name] = Pin{
		Name:   name,
		Number: number,
		Type:   pinType,
		Mode:   pinMode,
		Handle: handle,
	}
	r.last = name

	return nil
}

// RegisterRange registers every pin from min to max inclusive, each named after its number.
func (r *Registry) RegisterRange(min, max int, pinType gpio.Type, pinMode gpio.Mode) error {
	for n := min; n <= max; n++ {
		if err := r.Register(strconv.Itoa(n), n, pinType, pinMode); err != nil {
			return err
		}
	}

	return nil
}

// Lookup returns the pin registered as name, or the last used pin if name is
// Last. A successful lookup makes the pin the new default.
func (r *Registry) Lookup(name string) (Pin, error) {
	if name == Last {
		if r.last == "" {
			return Pin{}, fmt.Errorf("no pin name given and no pin used before: %w", ErrNotFound)
		}
		name = r.last
	}

	pin, ok := r.pins[name]
	if !ok {
		return Pin{}, fmt.Errorf("pin %q: %w", name, ErrNotFound)
	}

	r.last = name
	r.logger.WithField("pin", name).Debug("got pin")

	return pin, nil
}

// Write writes value to the pin registered as name (or the last used pin).
func (r *Registry) Write(name string, value float64) error {
	pin, err := r.Lookup(name)
	if err != nil {
		return err
	}

	if err := pin.Handle.Write(value); err != nil {
		return fmt.Errorf("unable to write to pin %q: %w", pin.Name, err)
	}

	r.logger.WithField("pin", pin.Name).Debugf("wrote %v", value)

	return nil
}

// Read reads the pin registered as name (or the last used pin).
func (r *Registry) Read(name string) (float64, error) {
	pin, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}

	value, err := pin.Handle.Read()
	if err != nil {
		return 0, fmt.Errorf("unable to read pin %q: %w", pin.Name, err)
	}

	r.logger.WithField("pin", pin.Name).Debugf("read %v", value)

	return value, nil
}

// LastName returns the name used for Last, and whether there is one.
func (r *Registry) LastName() (string, bool) {
	return r.last, r.last != ""
}

// Len returns the number of registered pins.
func (r *Registry) Len() int {
	return len(r.pins)
}

// Names returns the registered pin names in sorted order.
func (r *Registry) Names() []string {
	names := lo.Keys(r.pins)
	sort.Strings(names)
	return names
}

// Pins returns every registered pin, sorted by name.
func (r *Registry) Pins() []Pin {
	return lo.Map(r.Names(), func(name string, _ int) Pin {
		return r.pins[name]
	})
}

// PinsByType returns the registered pins of the given type, sorted by name.
func (r *Registry) PinsByType(pinType gpio.Type) []Pin {
	return lo.Filter(r.Pins(), func(p Pin, _ int) bool {
		return p.Type == pinType
	})
}

// PinsByMode returns the registered pins in the given mode, sorted by name.
func (r *Registry) PinsByMode(pinMode gpio.Mode) []Pin {
	return lo.Filter(r.Pins(), func(p Pin, _ int) bool {
		return p.Mode == pinMode
	})
}
