package firmata

import "github.com/samber/lo"

// Layout describes the pins of a board model.
type Layout struct {
	Name     string
	Digital  int   // number of digital pins, numbered from 0
	Analog   int   // number of analog input channels, numbered from 0
	PWM      []int // digital pins capable of PWM output
	Disabled []int // digital pins reserved by the board (serial RX/TX)
}

var (
	Arduino = Layout{
		Name:     "arduino",
		Digital:  14,
		Analog:   6,
		PWM:      []int{3, 5, 6, 9, 10, 11},
		Disabled: []int{0, 1},
	}

	ArduinoMega = Layout{
		Name:     "mega",
		Digital:  54,
		Analog:   16,
		PWM:      lo.RangeFrom(2, 12),
		Disabled: []int{0, 1},
	}

	ArduinoNano = Layout{
		Name:     "nano",
		Digital:  14,
		Analog:   8,
		PWM:      []int{3, 5, 6, 9, 10, 11},
		Disabled: []int{0, 1},
	}

	ArduinoDue = Layout{
		Name:     "due",
		Digital:  54,
		Analog:   12,
		PWM:      lo.RangeFrom(2, 12),
		Disabled: []int{0, 1},
	}
)

func (l Layout) supportsPWM(pin int) bool {
	return lo.Contains(l.PWM, pin)
}

func (l Layout) disabled(pin int) bool {
	return lo.Contains(l.Disabled, pin)
}
