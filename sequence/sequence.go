// Package sequence holds the demonstration routines run against a board:
// blinking LEDs, sounding a piezo and playing Morse code.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arduwire/arduwire/hardware/gpio"
	"github.com/arduwire/arduwire/registry"
)

// Board is what the sequences drive. *session.Session satisfies it.
type Board interface {
	Register(name string, number int, pinType gpio.Type, pinMode gpio.Mode) error
	RegisterRange(min, max int, pinType gpio.Type, pinMode gpio.Mode) error
	Write(name string, value float64) error
	Read(name string) (float64, error)
	Wait(d time.Duration) error
}

const (
	// LightPin is the on-board LED of most Arduinos.
	LightPin = 13

	// PiezoPin is a PWM pin a piezo buzzer is expected on.
	PiezoPin = 9

	// ButtonPin is the digital input a push button is expected on.
	ButtonPin = 2

	// Tone is the duty cycle a piezo is driven with while beeping.
	Tone = 0.6

	// DefaultBlinks is how many times Blink toggles the LED when not told otherwise.
	DefaultBlinks = 100
)

// Blink toggles the LED on pin 13 amount times, 50ms apart, then turns it off.
func Blink(b Board, amount int) error {
	if err := b.Register("light", LightPin, gpio.Digital, gpio.Output); err != nil {
		return err
	}

	level := gpio.High
	for i := 0; i < amount; i++ {
		level = !level
		if err := b.Write("light", level.Value()); err != nil {
			return err
		}

		if err := b.Wait(50 * time.Millisecond); err != nil {
			return err
		}
	}

	return b.Write("light", gpio.Low.Value())
}

// SmoothPiezo ramps the piezo on pin 9 from 0.001 to 0.999 in 10ms steps, then silences it.
func SmoothPiezo(b Board) error {
	if err := b.Register("piezo", PiezoPin, gpio.Digital, gpio.PWM); err != nil {
		return err
	}

	for v := 1; v < 1000; v++ {
		if err := b.Write(registry.Last, float64(v)/1000); err != nil {
			return err
		}

		if err := b.Wait(10 * time.Millisecond); err != nil {
			return err
		}
	}

	return b.Write(registry.Last, 0)
}

// PiezoTest sounds the piezo on pin 9 for a second.
func PiezoTest(b Board) error {
	if err := b.Register("beep", PiezoPin, gpio.Digital, gpio.PWM); err != nil {
		return err
	}

	if err := b.Write(registry.Last, 0.9); err != nil {
		return err
	}

	if err := b.Wait(time.Second); err != nil {
		return err
	}

	return b.Write(registry.Last, 0)
}

// BeepWithButton beeps the piezo on pin 9 while the button on pin 2 is held.
// It polls every 50ms until ctx is done, then silences the piezo and returns nil.
func BeepWithButton(ctx context.Context, b Board) error {
	if err := b.Register("button", ButtonPin, gpio.Digital, gpio.Input); err != nil {
		return err
	}

	if err := b.Register("beep", PiezoPin, gpio.Digital, gpio.PWM); err != nil {
		return err
	}

	if err := b.Write("beep", 0); err != nil {
		return err
	}

	beeping := false
	for ctx.Err() == nil {
		v, err := b.Read("button")
		if err != nil && !errors.Is(err, gpio.ErrNoReading) {
			return err
		}

		if pressed := err == nil && v != 0; pressed != beeping {
			value := 0.0
			if pressed {
				value = Tone
			}

			if err := b.Write("beep", value); err != nil {
				return err
			}
			beeping = pressed
		}

		if err := b.Wait(50 * time.Millisecond); err != nil {
			return err
		}
	}

	return b.Write("beep", 0)
}

// Policy is how BlinkPins moves its pins through each blink.
type Policy string

const (
	// Sequential switches the pins one after another, waiting after each.
	Sequential Policy = "sequential"

	// Concurrent switches all pins together, waiting once per phase.
	Concurrent Policy = "concurrent"
)

// ParsePolicy returns the policy named s.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(s)); p {
	case Sequential, Concurrent:
		return p, nil
	}

	return "", fmt.Errorf("blink type %q must be %q or %q", s, Sequential, Concurrent)
}

// BlinkOptions configures BlinkPins.
type BlinkOptions struct {
	MinPin   int
	MaxPin   int
	Policy   Policy
	Interval time.Duration
	Amount   int
}

// DefaultBlinkOptions blinks pins 11 to 13 one after another ten times, 100ms apart.
func DefaultBlinkOptions() BlinkOptions {
	return BlinkOptions{
		MinPin:   11,
		MaxPin:   13,
		Policy:   Sequential,
		Interval: 100 * time.Millisecond,
		Amount:   10,
	}
}

// BlinkPins registers digital outputs MinPin to MaxPin and blinks them Amount
// times according to Policy.
func BlinkPins(b Board, opts BlinkOptions) error {
	if opts.MinPin > opts.MaxPin {
		return fmt.Errorf("min pin %d is above max pin %d", opts.MinPin, opts.MaxPin)
	}

	if _, err := ParsePolicy(string(opts.Policy)); err != nil {
		return err
	}

	if err := b.RegisterRange(opts.MinPin, opts.MaxPin, gpio.Digital, gpio.Output); err != nil {
		return err
	}

	for i := 0; i < opts.Amount; i++ {
		for _, level := range []gpio.Level{gpio.High, gpio.Low} {
			if err := setPins(b, opts, level); err != nil {
				return err
			}
		}
	}

	return nil
}

func setPins(b Board, opts BlinkOptions, level gpio.Level) error {
	for n := opts.MinPin; n <= opts.MaxPin; n++ {
		if err := b.Write(strconv.Itoa(n), level.Value()); err != nil {
			return err
		}

		if opts.Policy == Sequential {
			if err := b.Wait(opts.Interval); err != nil {
				return err
			}
		}
	}

	if opts.Policy == Concurrent {
		return b.Wait(opts.Interval)
	}

	return nil
}

// Reading is one round of Probe.
type Reading struct {
	Written float64

	// Value is only meaningful if Reported is set.
	Value    float64
	Reported bool
}

// Probe writes 1 to rounds to digital pin 12 and reads analog pin 13 interval
// after each write.
func Probe(b Board, rounds int, interval time.Duration) ([]Reading, error) {
	if err := b.Register("write pin", 12, gpio.Digital, gpio.Output); err != nil {
		return nil, err
	}

	if err := b.Register("read pin", 13, gpio.Analog, gpio.Input); err != nil {
		return nil, err
	}

	readings := make([]Reading, 0, rounds)
	for i := 0; i < rounds; i++ {
		r := Reading{Written: float64(i + 1)}
		if err := b.Write("write pin", r.Written); err != nil {
			return readings, err
		}

		if err := b.Wait(interval); err != nil {
			return readings, err
		}

		v, err := b.Read("read pin")
		switch {
		case err == nil:
			r.Value, r.Reported = v, true
		case !errors.Is(err, gpio.ErrNoReading):
			return readings, err
		}

		readings = append(readings, r)
	}

	return readings, nil
}
