package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/arduwire/arduwire/hardware/gpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPin struct {
	addr   string
	writes []float64
	value  float64
}

func (p *testPin) Write(v float64) error {
	p.writes = append(p.writes, v)
	return nil
}

func (p *testPin) Read() (float64, error) {
	return p.value, nil
}

type testBoard struct {
	pins   map[string]*testPin
	waited []time.Duration
	fail   map[string]bool
}

func newTestBoard() *testBoard {
	return &testBoard{pins: map[string]*testPin{}, fail: map[string]bool{}}
}

func (b *testBoard) GetPin(addr string) (gpio.Pin, error) {
	if b.fail[addr] {
		return nil, errors.New("invalid pin")
	}
	p := &testPin{addr: addr}
	b.pins[addr] = p
	return p, nil
}

func (b *testBoard) PassTime(d time.Duration) {
	b.waited = append(b.waited, d)
}

func TestRegister(t *testing.T) {
	b := newTestBoard()
	r := New(b, time.Second, nil)

	require.NoError(t, r.Register("light", 13, gpio.Digital, gpio.Output))
	require.Contains(t, b.pins, "d:13:o")
	assert.Equal(t, []time.Duration{time.Second}, b.waited)

	pin, err := r.Lookup("light")
	require.NoError(t, err)
	assert.Equal(t, "light", pin.Name)
	assert.Equal(t, 13, pin.Number)
	assert.Equal(t, gpio.Digital, pin.Type)
	assert.Equal(t, gpio.Output, pin.Mode)
	assert.Equal(t, "d:13:o", pin.Address().String())
	assert.Same(t, b.pins["d:13:o"], pin.Handle)
}

func TestRegisterFailure(t *testing.T) {
	b := newTestBoard()
	b.fail["d:13:p"] = true
	r := New(b, 0, nil)

	assert.Error(t, r.Register("piezo", 13, gpio.Digital, gpio.PWM))
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, b.waited)

	_, ok := r.LastName()
	assert.False(t, ok)

	assert.Error(t, r.Register(Last, 9, gpio.Digital, gpio.PWM))
}

func TestLastPinDefault(t *testing.T) {
	b := newTestBoard()
	r := New(b, 0, nil)

	require.NoError(t, r.Register("light", 13, gpio.Digital, gpio.Output))
	require.NoError(t, r.Write(Last, 1))
	assert.Equal(t, []float64{1}, b.pins["d:13:o"].writes)

	// A second registration moves the default.
	require.NoError(t, r.Register("piezo", 9, gpio.Digital, gpio.PWM))
	require.NoError(t, r.Write(Last, 0.5))
	assert.Equal(t, []float64{0.5}, b.pins["d:9:p"].writes)
	assert.Equal(t, []float64{1}, b.pins["d:13:o"].writes)

	// So does using a pin by name.
	require.NoError(t, r.Write("light", 0))
	require.NoError(t, r.Write(Last, 1))
	assert.Equal(t, []float64{1, 0, 1}, b.pins["d:13:o"].writes)

	b.pins["d:9:p"].value = 0.25
	v, err := r.Read("piezo")
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	v, err = r.Read(Last)
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	name, ok := r.LastName()
	assert.True(t, ok)
	assert.Equal(t, "piezo", name)
}

func TestLookupNotFound(t *testing.T) {
	r := New(newTestBoard(), 0, nil)

	_, err := r.Lookup(Last)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Lookup("light")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Register("light", 13, gpio.Digital, gpio.Output))

	_, err = r.Lookup("beep")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Write("beep", 1), ErrNotFound)
	_, err = r.Read("beep")
	assert.ErrorIs(t, err, ErrNotFound)

	// A failed lookup leaves the default alone.
	name, _ := r.LastName()
	assert.Equal(t, "light", name)
}

func TestRegisterOverwrites(t *testing.T) {
	b := newTestBoard()
	r := New(b, 0, nil)

	require.NoError(t, r.Register("beep", 9, gpio.Digital, gpio.PWM))
	require.NoError(t, r.Register("beep", 10, gpio.Digital, gpio.PWM))

	pin, err := r.Lookup("beep")
	require.NoError(t, err)
	assert.Equal(t, 10, pin.Number)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterRange(t *testing.T) {
	b := newTestBoard()
	r := New(b, 0, nil)

	require.NoError(t, r.RegisterRange(11, 13, gpio.Digital, gpio.Output))
	assert.Equal(t, []string{"11", "12", "13"}, r.Names())

	for _, name := range []string{"11", "12", "13"} {
		require.NoError(t, r.Write(name, 1))
	}
	for _, addr := range []string{"d:11:o", "d:12:o", "d:13:o"} {
		assert.Equal(t, []float64{1}, b.pins[addr].writes, addr)
	}

	name, _ := r.LastName()
	assert.Equal(t, "13", name)
}

func TestPinsByTypeAndMode(t *testing.T) {
	r := New(newTestBoard(), 0, nil)

	require.NoError(t, r.Register("light", 13, gpio.Digital, gpio.Output))
	require.NoError(t, r.Register("beep", 9, gpio.Digital, gpio.PWM))
	require.NoError(t, r.Register("knob", 0, gpio.Analog, gpio.Input))
	require.NoError(t, r.Register("button", 2, gpio.Digital, gpio.Input))

	names := func(pins []Pin) []string {
		out := []string{}
		for _, p := range pins {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"knob"}, names(r.PinsByType(gpio.Analog)))
	assert.Equal(t, []string{"beep", "button", "light"}, names(r.PinsByType(gpio.Digital)))
	assert.Equal(t, []string{"button", "knob"}, names(r.PinsByMode(gpio.Input)))
	assert.Empty(t, r.PinsByMode(gpio.Servo))
}
