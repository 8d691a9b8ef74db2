package serialmux

import (
	"io"
	"time"
)

// SerialPorter is what the mux and the scanner driver need from a port.
// go.bug.st/serial ports satisfy it, and so does TestableSerialPort.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter is a port whose reads can be bounded. Drivers that
// must observe cancellation set a timeout when the port supports it.
type TimeoutSerialPorter interface {
	SerialPorter
	SetReadTimeout(timeout time.Duration) error
}

// SerialPortOpener opens a port at path. Tests swap it for a fake.
type SerialPortOpener func(path string, opts PortOptions) (SerialPorter, error)
