package hardware

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSyncDelay is how long a freshly opened board is given to reset and
// start StandardFirmata before it is used.
const DefaultSyncDelay = 5 * time.Second

// Config describes how to reach a board.
type Config struct {
	Port      string        `json:"port"`
	Variant   Variant       `json:"variant"`
	Baud      int           `json:"baud,omitempty"`
	SyncDelay time.Duration `json:"syncDelay,omitempty"`
}

// DefaultPort returns the serial device a board is usually found on for this OS.
func DefaultPort() string {
	switch runtime.GOOS {
	case "windows":
		return "COM3"
	case "darwin":
		return "/dev/cu.usbmodem1421"
	default:
		return "/dev/ttyUSB0"
	}
}

// New connects to the board described by config.
func New(ctx context.Context, config Config, logger logrus.FieldLogger) (Board, error) {
	a, err := NewArduino(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	return a, nil
}
