// Package firmata is a small Firmata client: it configures pins on a board
// running StandardFirmata, writes to them, and keeps the last values the board
// reported for its inputs.
package firmata

import "errors"

const (
	// Message command bytes (0x80-0xFF) from Firmata.h
	digitalMessage byte = 0x90 // Send data for a digital port.
	analogMessage  byte = 0xE0 // Send data for an analog pin (or PWM).
	reportAnalog   byte = 0xC0 // Enable analog input by pin #.
	reportDigital  byte = 0xD0 // Enable digital input by port.
	setPinMode     byte = 0xF4 // Set the pin mode.
	reportVersion  byte = 0xF9 // Report protocol version.
	startSysex     byte = 0xF0 // Start a MIDI Sysex message.
	endSysex       byte = 0xF7 // End a MIDI Sysex message.

	// Extended command set using sysex (0x00-0x7F).
	extendedAnalog byte = 0x6F // Analog write (PWM, Servo, etc) to any pin.
	servoConfig    byte = 0x70 // Set minPulse and maxPulse for a servo.
	stringData     byte = 0x71 // A string message with 14-bits per char.
	reportFirmware byte = 0x79 // Report name and version of the firmware.

	// DefaultBaud is the baud rate StandardFirmata listens on.
	DefaultBaud = 57600
)

// Pin modes as sent with setPinMode.
const (
	modeInput  byte = 0x00
	modeOutput byte = 0x01
	modeAnalog byte = 0x02
	modePWM    byte = 0x03
	modeServo  byte = 0x04
)

const (
	servoMinPulse = 544
	servoMaxPulse = 2400

	// analogResolution is the largest raw value of a 10-bit analog report.
	analogResolution = 1023
	pwmResolution    = 255
)

// ErrClosed is returned for operations on a board that has exited.
var ErrClosed = errors.New("firmata board closed")

func pinToPort(n int) byte {
	return byte(n>>3) & 0x0F
}

// sevenBit splits v into the LSB/MSB pair used by Firmata data bytes.
func sevenBit(v int) (byte, byte) {
	return byte(v & 0x7F), byte((v >> 7) & 0x7F)
}

func wrapInSysex(msg ...byte) []byte {
	sysex := append([]byte{startSysex}, msg...)
	return append(sysex, endSysex)
}

// decodeString decodes the 14-bits per char encoding used by sysex strings.
func decodeString(data []byte) string {
	buf := make([]byte, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		buf = append(buf, data[i]|data[i+1]<<7)
	}
	return string(buf)
}
