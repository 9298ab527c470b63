package hardware

import (
	"fmt"
	"time"

	"github.com/arduwire/arduwire/hardware/firmata"
	"github.com/arduwire/arduwire/hardware/gpio"
)

// Board defines the connected board the rest of arduwire drives pins through.
//
// Pins are addressed with the "<type>:<number>:<mode>" form built by
// gpio.Address, and GetPin configures the pin in the requested mode before
// returning it.
type Board interface {
	Name() string

	// GetPin configures and returns the pin at addr, for example "d:13:o".
	GetPin(addr string) (gpio.Pin, error)

	// PassTime blocks for d while the board keeps servicing incoming reports.
	PassTime(d time.Duration)

	// Exit releases the board. Calling it more than once is harmless.
	Exit() error
}

// Variant names a supported board model.
type Variant string

const (
	Generic Variant = "arduino"
	Mega    Variant = "mega"
	Nano    Variant = "nano"
	Due     Variant = "due"
)

// Variants lists every supported board model.
var Variants = []Variant{Generic, Mega, Nano, Due}

type ErrUnsupportedVariant struct {
	error
}

func (err ErrUnsupportedVariant) Is(target error) bool {
	_, ok := target.(ErrUnsupportedVariant)
	return ok
}

// ParseVariant returns the variant named s, or an ErrUnsupportedVariant error.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}

	return "", ErrUnsupportedVariant{fmt.Errorf("board type %q is not one of %v", s, Variants)}
}

// Layout returns the pin layout of the board model.
func (v Variant) Layout() (firmata.Layout, error) {
	switch v {
	case Generic:
		return firmata.Arduino, nil
	case Mega:
		return firmata.ArduinoMega, nil
	case Nano:
		return firmata.ArduinoNano, nil
	case Due:
		return firmata.ArduinoDue, nil
	}

	return firmata.Layout{}, ErrUnsupportedVariant{fmt.Errorf("board type %q is not supported", v)}
}
