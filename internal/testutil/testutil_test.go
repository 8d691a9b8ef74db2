package testutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
)

func TestClearRevolutionIsClear(t *testing.T) {
	rev := ClearRevolution(36, 2000)
	assert.Len(t, rev, 36)

	r := obstacle.DetectScanner(Snapshot(rev), obstacle.DefaultScannerZone)
	assert.False(t, r.Present)

	r = obstacle.DetectScanner(Snapshot(WithObstacle(rev, 0, 300)), obstacle.DefaultScannerZone)
	assert.True(t, r.Present)
	assert.Equal(t, 300, r.Nearest)
}

func TestRecordingSink(t *testing.T) {
	s := &RecordingSink{}
	assert.NoError(t, s.Send(control.Forward))
	assert.NoError(t, s.Send(control.Stop))
	assert.Equal(t, "FS", s.Bytes())

	s.Err = errors.New("boom")
	assert.Error(t, s.Send(control.Left))
	assert.Len(t, s.Sent(), 2)
}

func TestCloserRecordsOrder(t *testing.T) {
	log := &OrderLog{}
	a := &Closer{Name: "a", Log: log}
	b := &Closer{Name: "b", Log: log, Err: errors.New("stuck")}

	assert.NoError(t, a.Close())
	assert.Error(t, b.Close())
	assert.Equal(t, []string{"close a", "close b"}, log.Events())
}

func TestLocalRequest(t *testing.T) {
	req := LocalRequest(http.MethodGet, "/debug/nav/status", nil)
	assert.Equal(t, "127.0.0.1:12345", req.RemoteAddr)
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
}
