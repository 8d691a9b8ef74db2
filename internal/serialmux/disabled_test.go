package serialmux

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledSerialMux_UnsubscribeClosesChannel(t *testing.T) {
	d := NewDisabledSerialMux()
	id, ch := d.Subscribe()

	d.Unsubscribe(id)

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for subscriber to be unblocked after Unsubscribe")
	}
}

func TestDisabledSerialMux_CloseClosesAllChannels(t *testing.T) {
	d := NewDisabledSerialMux()
	_, ch1 := d.Subscribe()
	_, ch2 := d.Subscribe()

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	assert.False(t, ok1)
	assert.False(t, ok2)

	_, late := d.Subscribe()
	_, ok := <-late
	assert.False(t, ok, "subscribing after Close returns a closed channel")
}

func TestDisabledSerialMux_RecordsBytes(t *testing.T) {
	d := NewDisabledSerialMux()

	require.NoError(t, d.WriteByte('S'))
	require.NoError(t, d.WriteByte('F'))
	require.NoError(t, d.SendCommand("ignored"))

	assert.Equal(t, []byte("SF"), d.Written())
}

func TestDisabledSerialMux_MonitorWaitsForCancel(t *testing.T) {
	d := NewDisabledSerialMux()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, d.Monitor(ctx), context.DeadlineExceeded)
}

func TestDisabledSerialMux_AdminRoute(t *testing.T) {
	d := NewDisabledSerialMux()
	mux := http.NewServeMux()
	d.AttachAdminRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/serial-disabled", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "motor controller disabled", w.Body.String())
}
