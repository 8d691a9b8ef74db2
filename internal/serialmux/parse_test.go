package serialmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLine(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"F:25,FL:30,FR:28,R:50,RL:45,RR:48", EventTypeTelemetry},
		{"F:1,FL:2", EventTypeTelemetry},
		{"123", EventTypeLegacy},
		{" 42 ", EventTypeLegacy},
		{"", EventTypeEmpty},
		{"  ", EventTypeEmpty},
		{"Arduino ready", EventTypeDiagnostic},
		{"F:25", EventTypeDiagnostic},
		{"-5", EventTypeDiagnostic},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyLine(c.in), "ClassifyLine(%q)", c.in)
	}
}

type recordingDecoder struct {
	lines  []string
	accept bool
}

func (r *recordingDecoder) Decode(line string) bool {
	r.lines = append(r.lines, line)
	return r.accept
}

func TestHandleLine(t *testing.T) {
	d := &recordingDecoder{accept: true}

	kind, ok := HandleLine(d, "F:1,FL:2")
	assert.Equal(t, EventTypeTelemetry, kind)
	assert.True(t, ok)

	kind, ok = HandleLine(d, "Motor init")
	assert.Equal(t, EventTypeDiagnostic, kind)
	assert.False(t, ok)

	kind, ok = HandleLine(d, "77")
	assert.Equal(t, EventTypeLegacy, kind)
	assert.True(t, ok)

	assert.Equal(t, []string{"F:1,FL:2", "77"}, d.lines, "diagnostics never reach the decoder")

	d.accept = false
	_, ok = HandleLine(d, "F:x,FL:y")
	assert.False(t, ok)
}
