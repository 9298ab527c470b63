package sequence

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/arduwire/arduwire/hardware/gpio"
)

// Pulse is the length of a Morse signal in units.
type Pulse int

const (
	Dot  Pulse = 1
	Dash Pulse = 3
)

const (
	// DefaultSpeed plays a dot in 1/6 of a second.
	DefaultSpeed = 6

	pulseGap = 100 * time.Millisecond
)

// ErrUnknownCharacter is returned for text Morse code has no signal for.
var ErrUnknownCharacter = errors.New("no morse code for character")

var morseAlphabet = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",

	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",

	'.': ".-.-.-", ',': "--..--", '?': "..--..", '\'': ".----.", '!': "-.-.--",
	'/': "-..-.", '(': "-.--.", ')': "-.--.-", '&': ".-...", ':': "---...",
	';': "-.-.-.", '=': "-...-", '+': ".-.-.", '-': "-....-", '_': "..--.-",
	'"': ".-..-.", '$': "...-..-", '@': ".--.-.",
}

// EncodeMorse turns text into the pulses that signal it. Letters are
// case-insensitive. Runes without a Morse code, spaces included, fail with
// ErrUnknownCharacter.
func EncodeMorse(text string) ([]Pulse, error) {
	var pulses []Pulse
	for _, r := range strings.ToUpper(text) {
		code, ok := morseAlphabet[r]
		if !ok {
			return nil, fmt.Errorf("%q: %w", r, ErrUnknownCharacter)
		}

		for _, c := range code {
			if c == '.' {
				pulses = append(pulses, Dot)
			} else {
				pulses = append(pulses, Dash)
			}
		}
	}

	return pulses, nil
}

// Duration returns how long the pulse sounds at speed.
func (p Pulse) Duration(speed float64) time.Duration {
	return time.Duration(float64(p) / speed * float64(time.Second))
}

// Morse plays text on the piezo on pin 9 and the LED on pin 13. A higher
// speed plays faster; DefaultSpeed is a good start.
func Morse(b Board, text string, speed float64) error {
	if !(speed > 0) || math.IsInf(speed, 1) {
		return fmt.Errorf("speed factor must be a positive number, got %v", speed)
	}

	pulses, err := EncodeMorse(text)
	if err != nil {
		return err
	}

	if err := b.Register("beep", PiezoPin, gpio.Digital, gpio.PWM); err != nil {
		return err
	}

	if err := b.Register("light", LightPin, gpio.Digital, gpio.Output); err != nil {
		return err
	}

	if err := b.Write("beep", 0); err != nil {
		return err
	}

	for _, p := range pulses {
		if err := signal(b, gpio.High, Tone); err != nil {
			return err
		}

		if err := b.Wait(p.Duration(speed)); err != nil {
			return err
		}

		if err := signal(b, gpio.Low, 0); err != nil {
			return err
		}

		if err := b.Wait(pulseGap); err != nil {
			return err
		}
	}

	return nil
}

func signal(b Board, light gpio.Level, tone float64) error {
	if err := b.Write("light", light.Value()); err != nil {
		return err
	}

	return b.Write("beep", tone)
}
