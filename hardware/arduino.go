package hardware

import (
	"context"
	"fmt"
	"io"

	"github.com/arduwire/arduwire/hardware/firmata"
	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// openPort opens the serial device. It's a variable so tests can swap the
// device for an in-memory connection.
var openPort = func(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(name, mode)
}

// Arduino is a board running StandardFirmata on a serial port.
type Arduino struct {
	*firmata.Board

	variant Variant
	port    string
}

// NewArduino opens the serial port in config and waits config.SyncDelay for the
// board to come up. Cancelling ctx during the wait closes the port again.
func NewArduino(ctx context.Context, config Config, logger logrus.FieldLogger) (*Arduino, error) {
	layout, err := config.Variant.Layout()
	if err != nil {
		return nil, err
	}

	baud := config.Baud
	if baud == 0 {
		baud = firmata.DefaultBaud
	}

	conn, err := openPort(config.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open serial port %q: %w", config.Port, err)
	}

	logger = logger.WithFields(logrus.Fields{"port": config.Port, "board": config.Variant})
	clk := clock.New()

	a := &Arduino{
		Board:   firmata.New(conn, firmata.Config{Layout: layout, Logger: logger, Clock: clk}),
		variant: config.Variant,
		port:    config.Port,
	}

	logger.Debugf("waiting %s for board to synchronize", config.SyncDelay)
	select {
	case <-clk.After(config.SyncDelay):
	case <-ctx.Done():
		if err := a.Exit(); err != nil {
			logger.Warnf("unable to release board after cancelled sync: %s", err)
		}
		return nil, fmt.Errorf("board did not synchronize: %w", ctx.Err())
	}

	if name, maj, min := a.Firmware(); name != "" {
		logger.Infof("connected to %s %d.%d", name, maj, min)
	}

	return a, nil
}

func (a *Arduino) Name() string {
	return fmt.Sprintf("%s on %s", a.variant, a.port)
}
