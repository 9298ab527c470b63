package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/hardware/gpio"
	"github.com/arduwire/arduwire/session"
	"github.com/arduwire/arduwire/store"
	badger "github.com/dgraph-io/badger/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPin struct {
	value    float64
	reported bool
}

func (p *testPin) Write(v float64) error {
	p.value, p.reported = v, true
	return nil
}

func (p *testPin) Read() (float64, error) {
	if !p.reported {
		return 0, gpio.ErrNoReading
	}
	return p.value, nil
}

type testBoard struct {
	config hardware.Config
	pins   map[string]*testPin
	exited bool
}

func (b *testBoard) Name() string { return string(b.config.Variant) + " on " + b.config.Port }

func (b *testBoard) GetPin(addr string) (gpio.Pin, error) {
	p := &testPin{}
	b.pins[addr] = p
	return p, nil
}

func (b *testBoard) PassTime(time.Duration) {}

func (b *testBoard) Exit() error {
	b.exited = true
	return nil
}

// testOpener hands out test boards for /dev/fake and fails for any other port.
type testOpener struct {
	boards []*testBoard
}

func (o *testOpener) open(ctx context.Context, config hardware.Config, _ logrus.FieldLogger) (hardware.Board, error) {
	if config.Port != "/dev/fake" {
		return nil, errors.New("no such device")
	}

	b := &testBoard{config: config, pins: map[string]*testPin{}}
	o.boards = append(o.boards, b)
	return b, nil
}

func newTestServer(t *testing.T, stored *hardware.Config) (*Server, *testOpener, http.Handler) {
	st, err := store.OpenBadger(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if stored != nil {
		require.NoError(t, st.PutBoardConfig(*stored))
	}

	logger, _ := test.NewNullLogger()
	opener := &testOpener{}

	s := &Server{
		Store:          st,
		Logger:         logger,
		Board:          hardware.Config{Port: "/dev/fake", Variant: hardware.Mega},
		SessionOptions: []session.Option{session.WithOpener(opener.open), session.WithSettle(0)},
	}
	s.init(context.Background())
	t.Cleanup(func() { s.sessionManager.Close() })

	return s, opener, s.routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestStatus(t *testing.T) {
	_, opener, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	decode(t, rec, &status)
	assert.Equal(t, statusResponse{Ready: true, Board: "mega on /dev/fake"}, status)
	assert.Len(t, opener.boards, 1)
}

func TestBoardConfig(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/board", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/board", `{"port":"/dev/ttyACM0","variant":"uno"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPut, "/board", `{"port":"/dev/ttyACM0","variant":"nano"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/board", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var config hardware.Config
	decode(t, rec, &config)
	assert.Equal(t, hardware.Config{Port: "/dev/ttyACM0", Variant: hardware.Nano, SyncDelay: hardware.DefaultSyncDelay}, config)
}

func TestReconnect(t *testing.T) {
	stored := hardware.Config{Port: "/dev/missing", Variant: hardware.Mega}
	_, opener, h := newTestServer(t, &stored)

	var status statusResponse
	decode(t, do(t, h, http.MethodGet, "/status", ""), &status)
	assert.False(t, status.Ready)
	assert.Contains(t, status.Reason, "no such device")

	rec := do(t, h, http.MethodPut, "/pins/light", `1`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodPut, "/board", `{"port":"/dev/fake","variant":"due"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/rpc/reconnect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reconnected statusResponse
	decode(t, rec, &reconnected)
	assert.Equal(t, statusResponse{Ready: true, Board: "due on /dev/fake"}, reconnected)

	rec = do(t, h, http.MethodPost, "/rpc/reconnect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, opener.boards, 2)
	assert.True(t, opener.boards[0].exited)
	assert.False(t, opener.boards[1].exited)
}

func TestLayoutsAndPins(t *testing.T) {
	_, opener, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPut, "/layouts/morse", `{"pins":[
		{"name":"beep","address":"d:9:p"},
		{"name":"light","address":"d:13:o"},
		{"name":"knob","address":"a:0:i"}
	]}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPut, "/layouts/bad", `{"pins":[{"name":"x","address":"d:13"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var names []string
	decode(t, do(t, h, http.MethodGet, "/layouts", ""), &names)
	assert.Equal(t, []string{"morse"}, names)

	var layout store.Layout
	decode(t, do(t, h, http.MethodGet, "/layouts/morse", ""), &layout)
	assert.Equal(t, "morse", layout.Name)
	assert.Len(t, layout.Pins, 3)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/layouts/sos", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/rpc/applyLayout?name=sos", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/pins/light", "").Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/rpc/applyLayout?name=morse", "").Code)

	var pins []store.LayoutPin
	decode(t, do(t, h, http.MethodGet, "/pins", ""), &pins)
	require.Len(t, pins, 3)
	assert.Equal(t, "beep", pins[0].Name)
	assert.Equal(t, "d:9:p", pins[0].Address.String())

	rec = do(t, h, http.MethodPut, "/pins/beep", `0.6`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0.6, opener.boards[0].pins["d:9:p"].value)

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPut, "/pins/beep", `"loud"`).Code)

	var value pinValue
	decode(t, do(t, h, http.MethodGet, "/pins/beep", ""), &value)
	assert.Equal(t, pinValue{Name: "beep", Value: 0.6}, value)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodGet, "/pins/knob", "").Code)
}
