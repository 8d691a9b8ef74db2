package monitoring

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("test message")
	assert.True(t, called)

	called = false
	SetLogger(nil)
	Logf("test message")
	assert.False(t, called, "nil installs a no-op logger")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"quiet": LevelQuiet, "ops": LevelOps, "INFO": LevelOps, "": LevelOps,
		"diag": LevelDiag, "debug": LevelDiag, " trace ": LevelTrace,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "diag", LevelDiag.String())
}

func TestWritersFor(t *testing.T) {
	var buf bytes.Buffer

	assert.Equal(t, LogWriters{}, WritersFor(LevelQuiet, &buf))
	assert.Equal(t, LogWriters{Ops: &buf}, WritersFor(LevelOps, &buf))
	assert.Equal(t, LogWriters{Ops: &buf, Diag: &buf}, WritersFor(LevelDiag, &buf))
	assert.Equal(t, LogWriters{Ops: &buf, Diag: &buf, Trace: &buf}, WritersFor(LevelTrace, &buf))
}

func TestInstall(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var buf bytes.Buffer
	var got []io.Writer
	setter := func(ops, diag, trace io.Writer) { got = []io.Writer{ops, diag, trace} }

	Install(WritersFor(LevelDiag, &buf), setter)

	assert.Equal(t, []io.Writer{&buf, &buf, nil}, got)
	Logf("hello %d", 7)
	assert.Contains(t, buf.String(), "hello 7")
}
