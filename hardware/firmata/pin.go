package firmata

import (
	"fmt"
	"math"

	"github.com/arduwire/arduwire/hardware/gpio"
)

// Pin is a pin configured through Board.GetPin.
type Pin struct {
	board *Board

	// Guarded by board.mu.
	addr     gpio.Address
	value    float64
	reported bool
}

// compile-time check for whether Pin satisfies the gpio.Pin interface
var _ gpio.Pin = &Pin{}

// Address returns the address the pin was last configured with.
func (p *Pin) Address() gpio.Address {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()

	return p.addr
}

// Write sets a digital output HIGH for any non-zero value, sets the duty cycle
// (0 - 1) of a PWM pin, or moves a servo to value degrees.
func (p *Pin) Write(value float64) error {
	addr := p.Address()

	var err error
	switch {
	case addr.Type == gpio.Analog || addr.Mode == gpio.Input:
		return fmt.Errorf("pin %s is an input and can't be written", addr)
	case addr.Mode == gpio.Output:
		err = p.board.writeDigital(addr.Number, value != 0)
	case addr.Mode == gpio.PWM:
		err = p.board.writeAnalog(addr.Number, int(math.Round(value*pwmResolution)))
	case addr.Mode == gpio.Servo:
		err = p.board.writeAnalog(addr.Number, int(math.Round(value)))
	}
	if err != nil {
		return fmt.Errorf("unable to write %v to pin %s: %w", value, addr, err)
	}

	p.board.mu.Lock()
	p.value, p.reported = value, true
	p.board.mu.Unlock()

	return nil
}

// Read returns the last value the board reported for an input pin, or the last
// value written to an output pin. Analog inputs read from 0 to 1, digital
// inputs read 0 or 1.
func (p *Pin) Read() (float64, error) {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()

	if !p.reported {
		return 0, gpio.ErrNoReading
	}

	return p.value, nil
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
