package control

import (
	"fmt"
	"sync/atomic"
)

// CommandSink delivers one command byte to the motor controller.
type CommandSink interface {
	Send(Command) error
}

// ByteWriter is satisfied by serialmux.SerialMux and serialmux.DisabledSerialMux.
type ByteWriter interface {
	WriteByte(byte) error
}

// SerialSink adapts a ByteWriter to a CommandSink.
type SerialSink struct {
	W ByteWriter
}

func (s SerialSink) Send(c Command) error {
	if !c.Valid() {
		return fmt.Errorf("refusing to send %v", c)
	}
	return s.W.WriteByte(byte(c))
}

// SinkFunc lets a function act as a CommandSink.
type SinkFunc func(Command) error

func (f SinkFunc) Send(c Command) error { return f(c) }

// Transmitter sends a command only when it differs from the previous
// decision. The previous command is updated on every call, whether or not
// a byte went out. A Transmitter belongs to one control loop.
type Transmitter struct {
	sink    CommandSink
	last    Command
	hasLast bool

	sent       atomic.Int64
	suppressed atomic.Int64
}

// NewTransmitter returns a Transmitter with no previous command, so the
// first Transmit always sends.
func NewTransmitter(sink CommandSink) *Transmitter {
	return &Transmitter{sink: sink}
}

// Transmit records c as the latest decision and sends it if it changed. It
// reports whether a byte was sent.
func (t *Transmitter) Transmit(c Command) (bool, error) {
	changed := !t.hasLast || c != t.last
	t.last, t.hasLast = c, true
	if !changed {
		t.suppressed.Add(1)
		tracef("suppressed repeat %c", byte(c))
		return false, nil
	}
	if err := t.sink.Send(c); err != nil {
		return false, fmt.Errorf("send %v: %w", c, err)
	}
	t.sent.Add(1)
	diagf("sent %c", byte(c))
	return true, nil
}

// Force sends c regardless of the previous command and records it.
func (t *Transmitter) Force(c Command) error {
	t.last, t.hasLast = c, true
	if err := t.sink.Send(c); err != nil {
		return fmt.Errorf("send %v: %w", c, err)
	}
	t.sent.Add(1)
	diagf("sent %c (forced)", byte(c))
	return nil
}

// Last returns the previous command, if any.
func (t *Transmitter) Last() (Command, bool) {
	return t.last, t.hasLast
}

// Sent is the number of bytes delivered to the sink.
func (t *Transmitter) Sent() int64 { return t.sent.Load() }

// Suppressed is the number of repeats that were not sent.
func (t *Transmitter) Suppressed() int64 { return t.suppressed.Load() }
