package firmata

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/arduwire/arduwire/hardware/gpio"
	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// exitTimeout bounds how long Exit waits for the reader to notice the closed connection.
const exitTimeout = time.Second

type Config struct {
	Layout Layout
	Logger logrus.FieldLogger
	Clock  clock.Clock
}

// Board talks Firmata to a single board over conn.
type Board struct {
	conn   io.ReadWriteCloser
	buf    *bufio.Reader
	layout Layout
	logger logrus.FieldLogger
	clock  clock.Clock

	// Serializes writes and guards closed.
	writeMu sync.Mutex
	closed  bool

	// Guards everything below, which the reader updates.
	mu       sync.Mutex
	digital  map[int]*Pin
	analog   map[int]*Pin
	outputs  map[byte]int // digital port -> bitmask of pins written HIGH
	firmware string
	maj, min byte

	sysexFuncs map[byte]func([]byte)

	exitOnce sync.Once
	done     chan struct{}
}

// New returns a Board using conn, with the message reading loop running in its
// own goroutine. The board is expected to be running StandardFirmata.
func New(conn io.ReadWriteCloser, config Config) *Board {
	if config.Logger == nil {
		logger := logrus.New()
		logger.Out = io.Discard
		config.Logger = logger
	}

	if config.Clock == nil {
		config.Clock = clock.New()
	}

	b := &Board{
		conn:    conn,
		buf:     bufio.NewReader(conn),
		layout:  config.Layout,
		logger:  config.Logger,
		clock:   config.Clock,
		digital: make(map[int]*Pin),
		analog:  make(map[int]*Pin),
		outputs: make(map[byte]int),
		done:    make(chan struct{}),
	}

	b.sysexFuncs = map[byte]func([]byte){
		reportFirmware: b.handleReportFirmware,
		stringData:     b.handleStringData,
	}

	go b.run()

	return b
}

// Layout returns the pin layout the board was created with.
func (b *Board) Layout() Layout {
	return b.layout
}

// Firmware returns the firmware name and version the board reported, if any.
func (b *Board) Firmware() (name string, major, minor byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.firmware, b.maj, b.min
}

// GetPin configures the pin described by addr (for example "d:13:o") and
// returns it. Asking for the same pin again reconfigures and returns the same Pin.
func (b *Board) GetPin(addr string) (gpio.Pin, error) {
	a, err := gpio.ParseAddress(addr)
	if err != nil {
		return nil, err
	}

	switch a.Type {
	case gpio.Analog:
		return b.analogPin(a)
	default:
		return b.digitalPin(a)
	}
}

func (b *Board) analogPin(a gpio.Address) (*Pin, error) {
	if a.Number >= b.layout.Analog || a.Number > 0x0F {
		return nil, fmt.Errorf("analog pin %d does not exist on %s", a.Number, b.layout.Name)
	}

	if a.Mode != gpio.Input {
		return nil, fmt.Errorf("analog pin %d only supports input mode, not %q", a.Number, a.Mode)
	}

	if err := b.write(reportAnalog|byte(a.Number), 1); err != nil {
		return nil, fmt.Errorf("unable to enable reporting for analog pin %d: %w", a.Number, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.analog[a.Number]
	if !ok {
		p = &Pin{board: b}
		b.analog[a.Number] = p
	}
	p.addr = a

	b.logger.WithField("pin", a.String()).Debug("configured analog pin")

	return p, nil
}

func (b *Board) digitalPin(a gpio.Address) (*Pin, error) {
	if a.Number >= b.layout.Digital || b.layout.disabled(a.Number) {
		return nil, fmt.Errorf("digital pin %d is not usable on %s", a.Number, b.layout.Name)
	}

	num := byte(a.Number)

	switch a.Mode {
	case gpio.Input:
		if err := b.write(setPinMode, num, modeInput); err != nil {
			return nil, fmt.Errorf("unable to set pin %d to input: %w", a.Number, err)
		}

		if err := b.write(reportDigital|pinToPort(a.Number), 1); err != nil {
			return nil, fmt.Errorf("unable to enable reporting for pin %d: %w", a.Number, err)
		}
	case gpio.Output:
		if err := b.write(setPinMode, num, modeOutput); err != nil {
			return nil, fmt.Errorf("unable to set pin %d to output: %w", a.Number, err)
		}
	case gpio.PWM:
		if !b.layout.supportsPWM(a.Number) {
			return nil, fmt.Errorf("digital pin %d does not support PWM on %s", a.Number, b.layout.Name)
		}

		if err := b.write(setPinMode, num, modePWM); err != nil {
			return nil, fmt.Errorf("unable to set pin %d to PWM: %w", a.Number, err)
		}
	case gpio.Servo:
		if err := b.write(setPinMode, num, modeServo); err != nil {
			return nil, fmt.Errorf("unable to set pin %d to servo: %w", a.Number, err)
		}

		minLSB, minMSB := sevenBit(servoMinPulse)
		maxLSB, maxMSB := sevenBit(servoMaxPulse)
		if err := b.write(wrapInSysex(servoConfig, num, minLSB, minMSB, maxLSB, maxMSB)...); err != nil {
			return nil, fmt.Errorf("unable to configure servo on pin %d: %w", a.Number, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.digital[a.Number]
	if !ok {
		p = &Pin{board: b}
		b.digital[a.Number] = p
	}
	p.addr = a
	p.value, p.reported = 0, false

	b.logger.WithField("pin", a.String()).Debug("configured digital pin")

	return p, nil
}

// PassTime blocks for d. Incoming reports keep being processed meanwhile.
func (b *Board) PassTime(d time.Duration) {
	b.clock.Sleep(d)
}

// Exit detaches servos and closes the connection to the board. Only the
// first call has any effect.
func (b *Board) Exit() error {
	var err error
	b.exitOnce.Do(func() {
		b.mu.Lock()
		servos := make([]int, 0)
		for n, p := range b.digital {
			if p.addr.Mode == gpio.Servo {
				servos = append(servos, n)
			}
		}
		b.mu.Unlock()

		for _, n := range servos {
			if werr := b.write(setPinMode, byte(n), modeOutput); werr != nil {
				b.logger.WithField("pin", n).Warnf("unable to detach servo: %s", werr)
			}
		}

		b.writeMu.Lock()
		b.closed = true
		err = b.conn.Close()
		b.writeMu.Unlock()

		select {
		case <-b.done:
		case <-b.clock.After(exitTimeout):
			b.logger.Warn("firmata reader did not stop after closing connection")
		}
	})

	if err != nil {
		return fmt.Errorf("unable to close board connection: %w", err)
	}

	return nil
}

func (b *Board) write(msg ...byte) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.closed {
		return ErrClosed
	}

	if _, err := b.conn.Write(msg); err != nil {
		return fmt.Errorf("unable to write to board: %w", err)
	}

	return nil
}

func (b *Board) writeDigital(pin int, high bool) error {
	port := pinToPort(pin)
	bit := 1 << uint(pin&0x07)

	b.mu.Lock()
	mask := b.outputs[port]
	if high {
		mask |= bit
	} else {
		mask &^= bit
	}
	b.outputs[port] = mask
	b.mu.Unlock()

	lsb, msb := sevenBit(mask)
	return b.write(digitalMessage|port, lsb, msb)
}

func (b *Board) writeAnalog(pin int, value int) error {
	if value < 0 {
		value = 0
	}

	lsb, msb := sevenBit(value)
	if pin <= 0x0F {
		return b.write(analogMessage|byte(pin), lsb, msb)
	}

	return b.write(wrapInSysex(extendedAnalog, byte(pin), lsb, msb)...)
}

// run reads messages from the board until the connection is closed.
func (b *Board) run() {
	defer close(b.done)

	for {
		header, err := b.buf.ReadByte()
		if err != nil {
			b.readStopped(err)
			return
		}

		switch {
		case header == startSysex:
			data, err := b.buf.ReadBytes(endSysex)
			if err != nil {
				b.readStopped(err)
				return
			}
			b.handleSysex(data[:len(data)-1])

		case header == reportVersion, header&0xF0 == digitalMessage, header&0xF0 == analogMessage:
			lsb, err := b.buf.ReadByte()
			if err != nil {
				b.readStopped(err)
				return
			}
			msb, err := b.buf.ReadByte()
			if err != nil {
				b.readStopped(err)
				return
			}
			b.handleMIDI(header, lsb, msb)

		default:
			// Data byte without a command or a command the board never sends.
		}
	}
}

func (b *Board) readStopped(err error) {
	b.writeMu.Lock()
	closed := b.closed
	b.writeMu.Unlock()

	if !closed {
		b.logger.Warnf("stopped reading from board: %s", err)
	}
}

func (b *Board) handleMIDI(header, lsb, msb byte) {
	value := int(lsb) | int(msb)<<7

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case header == reportVersion:
		b.maj, b.min = lsb, msb
	case header&0xF0 == digitalMessage:
		port := int(header & 0x0F)
		for i := 0; i < 8; i++ {
			p, ok := b.digital[port*8+i]
			if !ok || p.addr.Mode != gpio.Input {
				continue
			}
			p.value = float64((value >> uint(i)) & 0x01)
			p.reported = true
		}
	case header&0xF0 == analogMessage:
		p, ok := b.analog[int(header&0x0F)]
		if !ok {
			return
		}
		p.value = roundTo(float64(value)/analogResolution, 4)
		p.reported = true
	}
}

func (b *Board) handleSysex(data []byte) {
	if len(data) == 0 {
		return
	}

	if fn, ok := b.sysexFuncs[data[0]]; ok {
		fn(data[1:])
	}
}

func (b *Board) handleReportFirmware(data []byte) {
	if len(data) < 2 {
		return
	}

	name := decodeString(data[2:])

	b.mu.Lock()
	b.maj, b.min = data[0], data[1]
	b.firmware = name
	b.mu.Unlock()

	b.logger.WithField("firmware", name).Debugf("board reported firmware %d.%d", data[0], data[1])
}

func (b *Board) handleStringData(data []byte) {
	b.logger.WithField("source", "board").Info(decodeString(data))
}
