package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/hardware/gpio"
	badger "github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	bolt, err := OpenBBolt(filepath.Join(t.TempDir(), "arduwire.db"), 0600, nil)
	require.NoError(t, err)

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	bdg, err := OpenBadger(opts)
	require.NoError(t, err)

	stores := map[string]Store{"bbolt": bolt, "badger": bdg}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})

	return stores
}

var morseLayout = Layout{
	Name: "morse",
	Pins: []LayoutPin{
		{Name: "beep", Address: gpio.Address{Type: gpio.Digital, Number: 9, Mode: gpio.PWM}},
		{Name: "light", Address: gpio.Address{Type: gpio.Digital, Number: 13, Mode: gpio.Output}},
	},
}

func TestBoardConfig(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.BoardConfig()
			assert.ErrorIs(t, err, ErrNotFound)

			c := hardware.Config{Port: "/dev/ttyACM0", Variant: hardware.Nano, Baud: 115200, SyncDelay: 2 * time.Second}
			require.NoError(t, s.PutBoardConfig(c))

			got, err := s.BoardConfig()
			require.NoError(t, err)
			assert.Equal(t, c, got)
		})
	}
}

func TestLayouts(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			names, err := s.ListLayouts()
			require.NoError(t, err)
			assert.Empty(t, names)

			_, err = s.Layout("morse")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.PutLayout(morseLayout))
			require.NoError(t, s.PutLayout(Layout{Name: "blink", Pins: morseLayout.Pins[1:]}))

			got, err := s.Layout("morse")
			require.NoError(t, err)
			assert.Equal(t, morseLayout, got)

			names, err = s.ListLayouts()
			require.NoError(t, err)
			assert.Equal(t, []string{"blink", "morse"}, names)

			assert.Error(t, s.PutLayout(Layout{Pins: morseLayout.Pins}))
		})
	}
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, morseLayout.Validate())
	assert.Error(t, Layout{}.Validate())
	assert.Error(t, Layout{Name: "x", Pins: []LayoutPin{{}}}.Validate())

	pin := morseLayout.Pins[0]
	assert.Error(t, Layout{Name: "x", Pins: []LayoutPin{pin, pin}}.Validate())
}

type registered struct {
	names []string
	addrs []gpio.Address
}

func (r *registered) Register(name string, number int, pinType gpio.Type, pinMode gpio.Mode) error {
	r.names = append(r.names, name)
	r.addrs = append(r.addrs, gpio.Address{Type: pinType, Number: number, Mode: pinMode})
	return nil
}

func TestLayoutApply(t *testing.T) {
	r := &registered{}

	require.NoError(t, morseLayout.Apply(r))
	assert.Equal(t, []string{"beep", "light"}, r.names)
	assert.Equal(t, "d:13:o", r.addrs[1].String())
}
