package gpio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Level describes the binary state of a digital pin: either LOW or HIGH.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Value returns the level as the numeric value pins are written with.
func (l Level) Value() float64 {
	if l {
		return 1
	}

	return 0
}

// Type is the pin bank a pin belongs to. Its value is the letter used in a pin address.
type Type string

const (
	Analog  Type = "a"
	Digital Type = "d"
)

// Mode is how a pin is driven. Its value is the letter used in a pin address.
type Mode string

const (
	Input  Mode = "i"
	Output Mode = "o"
	Servo  Mode = "s"
	PWM    Mode = "p"
)

// Valid reports whether t is a known pin type.
func (t Type) Valid() bool {
	return t == Analog || t == Digital
}

// Valid reports whether m is a known pin mode.
func (m Mode) Valid() bool {
	switch m {
	case Input, Output, Servo, PWM:
		return true
	}

	return false
}

// Address identifies a pin and the mode it should be configured in. Its string
// form is "<type>:<number>:<mode>", for example "d:13:o" for digital pin 13 as output.
type Address struct {
	Type   Type
	Number int
	Mode   Mode
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d:%s", a.Type, a.Number, a.Mode)
}

// ParseAddress parses the "<type>:<number>:<mode>" form produced by Address.String.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Address{}, fmt.Errorf("pin address %q must have the form type:number:mode", s)
	}

	addr := Address{Type: Type(parts[0]), Mode: Mode(parts[2])}
	if !addr.Type.Valid() {
		return Address{}, fmt.Errorf("pin address %q has unknown type %q", s, parts[0])
	}

	if !addr.Mode.Valid() {
		return Address{}, fmt.Errorf("pin address %q has unknown mode %q", s, parts[2])
	}

	number, err := strconv.Atoi(parts[1])
	if err != nil || number < 0 {
		return Address{}, fmt.Errorf("pin address %q has invalid number %q", s, parts[1])
	}
	addr.Number = number

	return addr, nil
}

// ErrNoReading is returned when reading a pin the board has not reported a value for yet.
var ErrNoReading = errors.New("no value reported for pin yet")

// Pin is a configured pin on a board.
type Pin interface {
	// Write applies value to the pin according to its mode: non-zero is HIGH for
	// digital outputs, a duty cycle (0 - 1) for PWM, and an angle for servos.
	Write(value float64) error

	// Read returns the last value the board reported for the pin, or
	// ErrNoReading if there is none yet.
	Read() (float64, error)
}

// MarshalText encodes the address in its string form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an address written by MarshalText.
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr
	return nil
}
