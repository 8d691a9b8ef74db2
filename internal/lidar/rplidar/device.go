package rplidar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
)

var (
	// ErrNoData is returned when the device stays silent for longer than
	// the configured idle budget.
	ErrNoData = errors.New("range scanner sent no data")
	// ErrUnhealthy is returned by Start when the device reports an error state.
	ErrUnhealthy = errors.New("range scanner reports error health")

	errReadTimeout = errors.New("read timeout")
)

// Port is the serial connection the device talks over. go.bug.st/serial
// ports satisfy it; tests use in-memory ports.
type Port interface {
	serialmux.SerialPorter
}

type dtrSetter interface {
	SetDTR(dtr bool) error
}

type inputResetter interface {
	ResetInputBuffer() error
}

// Options tunes the driver.
type Options struct {
	// ReadTimeout bounds a single port read so cancellation is observed.
	ReadTimeout time.Duration
	// MaxIdleReads is how many consecutive empty reads are tolerated before
	// ErrNoData is returned.
	MaxIdleReads int
	// MaxRevolutionNodes caps a revolution when the start flag is lost.
	MaxRevolutionNodes int
	// MotorPWM is the duty cycle applied by StartMotor.
	MotorPWM int
	// SettleDelay is waited after stop/clear requests.
	SettleDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = time.Second
	}
	if o.MaxIdleReads <= 0 {
		o.MaxIdleReads = 5
	}
	if o.MaxRevolutionNodes <= 0 {
		o.MaxRevolutionNodes = 8192
	}
	if o.MotorPWM <= 0 || o.MotorPWM > MaxMotorPWM {
		o.MotorPWM = DefaultMotorPWM
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	return o
}

// Stats counts decoder activity since the device was created.
type Stats struct {
	Nodes       int64
	Resyncs     int64
	Revolutions int64
	Overflows   int64
}

// timeoutReader turns the (0, nil) result serial ports return on a read
// timeout into errReadTimeout so bufio does not spin.
type timeoutReader struct {
	r io.Reader
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n == 0 && err == nil {
		return 0, errReadTimeout
	}
	return n, err
}

// Device is a connected range scanner. It is not safe for concurrent use;
// the control loop owns it.
type Device struct {
	port     Port
	r        *bufio.Reader
	opts     Options
	scanning bool
	synced   bool
	pending  []scan.Point
	stats    Stats
}

// New wraps an open port.
func New(port Port, opts Options) *Device {
	opts = opts.withDefaults()
	if ts, ok := port.(serialmux.TimeoutSerialPorter); ok {
		if err := ts.SetReadTimeout(opts.ReadTimeout); err != nil {
			opsf("failed to set read timeout: %v", err)
		}
	}
	return &Device{
		port: port,
		r:    bufio.NewReaderSize(timeoutReader{port}, 4096),
		opts: opts,
	}
}

// Open opens the serial port at path and wraps it. A zero BaudRate in
// portOpts selects the scanner's 115200 baud.
func Open(path string, portOpts serialmux.PortOptions, opts Options) (*Device, error) {
	if portOpts.BaudRate <= 0 {
		portOpts.BaudRate = 115200
	}
	port, err := openPort(path, portOpts)
	if err != nil {
		return nil, fmt.Errorf("open range scanner: %w", err)
	}
	return New(port, opts), nil
}

// openPort is swapped out in tests.
var openPort serialmux.SerialPortOpener = serialmux.OpenPort

// Stats returns decoder counters.
func (d *Device) Stats() Stats {
	return d.stats
}

func (d *Device) send(cmd byte, payload []byte) error {
	req := encodeRequest(cmd, payload)
	n, err := d.port.Write(req)
	if err != nil {
		return fmt.Errorf("write command %#02x: %w", cmd, err)
	}
	if n != len(req) {
		return fmt.Errorf("write command %#02x: %w", cmd, serialmux.ErrWriteFailed)
	}
	tracef("sent command %#02x (%d bytes)", cmd, len(req))
	return nil
}

func (d *Device) settle() {
	if d.opts.SettleDelay > 0 {
		time.Sleep(d.opts.SettleDelay)
	}
}

// ClearInput discards anything buffered on the port and in the decoder.
func (d *Device) ClearInput() {
	if ir, ok := d.port.(inputResetter); ok {
		if err := ir.ResetInputBuffer(); err != nil {
			opsf("failed to reset input buffer: %v", err)
		}
	}
	d.r.Reset(timeoutReader{d.port})
	d.pending = nil
	d.synced = false
}

// readExact reads n bytes, tolerating up to MaxIdleReads consecutive read
// timeouts.
func (d *Device) readExact(ctx context.Context, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, idle := 0, 0
	for got < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := d.r.Read(buf[got:])
		got += m
		if m > 0 {
			idle = 0
		}
		if err != nil {
			if errors.Is(err, errReadTimeout) {
				idle++
				if idle > d.opts.MaxIdleReads {
					return nil, ErrNoData
				}
				continue
			}
			return nil, err
		}
	}
	return buf, nil
}

// readDescriptor scans forward to the next 0xA5 0x5A pair and returns the
// descriptor that follows.
func (d *Device) readDescriptor(ctx context.Context) (descriptor, error) {
	skipped := 0
	for {
		b, err := d.readExact(ctx, 1)
		if err != nil {
			return descriptor{}, err
		}
		if b[0] != syncByte {
			skipped++
			continue
		}
		b2, err := d.readExact(ctx, 1)
		if err != nil {
			return descriptor{}, err
		}
		if b2[0] != syncByte2 {
			skipped += 2
			continue
		}
		rest, err := d.readExact(ctx, descriptorLen-2)
		if err != nil {
			return descriptor{}, err
		}
		if skipped > 0 {
			diagf("skipped %d bytes before response descriptor", skipped)
		}
		return parseDescriptor(append([]byte{syncByte, syncByte2}, rest...))
	}
}

func (d *Device) request(ctx context.Context, cmd byte, wantType byte, wantSize int) ([]byte, error) {
	if d.scanning {
		return nil, fmt.Errorf("command %#02x not allowed while scanning", cmd)
	}
	if err := d.send(cmd, nil); err != nil {
		return nil, err
	}
	desc, err := d.readDescriptor(ctx)
	if err != nil {
		return nil, fmt.Errorf("read descriptor for %#02x: %w", cmd, err)
	}
	if desc.DataType != wantType || int(desc.Size) != wantSize || !desc.Single {
		return nil, fmt.Errorf("unexpected descriptor for %#02x: %+v", cmd, desc)
	}
	return d.readExact(ctx, wantSize)
}

// Info queries the device identification block.
func (d *Device) Info(ctx context.Context) (Info, error) {
	raw, err := d.request(ctx, cmdGetInfo, infoType, infoLen)
	if err != nil {
		return Info{}, err
	}
	return parseInfo(raw)
}

// Health queries the device health report.
func (d *Device) Health(ctx context.Context) (Health, error) {
	raw, err := d.request(ctx, cmdGetHealth, healthType, healthLen)
	if err != nil {
		return Health{}, err
	}
	return parseHealth(raw)
}

// SetMotorPWM sets the motor duty cycle (0 stops the motor).
func (d *Device) SetMotorPWM(pwm int) error {
	if pwm < 0 || pwm > MaxMotorPWM {
		return fmt.Errorf("motor pwm %d out of range 0..%d", pwm, MaxMotorPWM)
	}
	return d.send(cmdSetPWM, []byte{byte(pwm), byte(pwm >> 8)})
}

// StartMotor spins the motor up at the configured duty cycle.
func (d *Device) StartMotor() error {
	if ds, ok := d.port.(dtrSetter); ok {
		if err := ds.SetDTR(false); err != nil {
			return fmt.Errorf("set DTR: %w", err)
		}
	}
	return d.SetMotorPWM(d.opts.MotorPWM)
}

// StopMotor stops the motor.
func (d *Device) StopMotor() error {
	if err := d.SetMotorPWM(0); err != nil {
		return err
	}
	if ds, ok := d.port.(dtrSetter); ok {
		if err := ds.SetDTR(true); err != nil {
			return fmt.Errorf("set DTR: %w", err)
		}
	}
	return nil
}

// Init brings the device to a known idle state: motor stopped, input
// cleared, info and health logged. Info and health failures are logged, not
// returned; some firmware revisions do not answer while settling.
func (d *Device) Init(ctx context.Context) error {
	if err := d.StopMotor(); err != nil {
		return err
	}
	d.settle()
	d.ClearInput()

	if info, err := d.Info(ctx); err != nil {
		opsf("failed to read device info: %v", err)
	} else {
		diagf("device info: %s", info)
	}
	if health, err := d.Health(ctx); err != nil {
		opsf("failed to read device health: %v", err)
	} else {
		diagf("device health: %s (code %d)", health.Status, health.ErrorCode)
	}
	d.ClearInput()
	return nil
}

// Start checks health, spins the motor and starts a scan.
func (d *Device) Start(ctx context.Context) error {
	if d.scanning {
		return nil
	}
	health, err := d.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if health.Status == HealthError {
		return fmt.Errorf("%w: code %d", ErrUnhealthy, health.ErrorCode)
	}
	if health.Status == HealthWarning {
		opsf("device health warning, code %d", health.ErrorCode)
	}
	if err := d.StartMotor(); err != nil {
		return err
	}
	if err := d.send(cmdScan, nil); err != nil {
		return err
	}
	desc, err := d.readDescriptor(ctx)
	if err != nil {
		return fmt.Errorf("read scan descriptor: %w", err)
	}
	if desc.DataType != scanType || desc.Size != nodeLen || desc.Single {
		return fmt.Errorf("unexpected scan descriptor: %+v", desc)
	}
	d.scanning = true
	d.synced = false
	d.pending = nil
	diagf("scan started")
	return nil
}

// Stop ends the scan. The motor keeps spinning; call StopMotor or Close.
func (d *Device) Stop() error {
	if err := d.send(cmdStop, nil); err != nil {
		return err
	}
	d.scanning = false
	d.settle()
	d.ClearInput()
	return nil
}

// Reset soft-resets the device core.
func (d *Device) Reset() error {
	if err := d.send(cmdReset, nil); err != nil {
		return err
	}
	d.scanning = false
	d.settle()
	d.ClearInput()
	return nil
}

// Close stops scanning and the motor, then closes the port. Every step is
// attempted; the first error is returned.
func (d *Device) Close() error {
	var first error
	if err := d.Stop(); err != nil {
		first = err
	}
	if err := d.StopMotor(); err != nil && first == nil {
		first = err
	}
	if err := d.port.Close(); err != nil && first == nil {
		first = err
	}
	diagf("range scanner closed")
	return first
}

// nextNode decodes the next node, resynchronising byte by byte over noise.
func (d *Device) nextNode(ctx context.Context) (Node, error) {
	idle := 0
	for {
		if err := ctx.Err(); err != nil {
			return Node{}, err
		}
		buf, err := d.r.Peek(nodeLen)
		if err != nil {
			if errors.Is(err, errReadTimeout) {
				idle++
				if idle > d.opts.MaxIdleReads {
					return Node{}, ErrNoData
				}
				continue
			}
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				tracef("dropping %d trailing bytes of a partial node", len(buf))
			}
			return Node{}, err
		}
		idle = 0
		node, err := DecodeNode(buf)
		if err != nil {
			d.stats.Resyncs++
			tracef("resync: %v", err)
			if _, err := d.r.Discard(1); err != nil {
				return Node{}, err
			}
			continue
		}
		if _, err := d.r.Discard(nodeLen); err != nil {
			return Node{}, err
		}
		d.stats.Nodes++
		return node, nil
	}
}

// NextRevolution implements scan.Source. It returns every node of one
// revolution, valid or not; quality filtering belongs to scan.Stream. Nodes
// seen before the first start flag belong to a partial revolution and are
// dropped.
func (d *Device) NextRevolution(ctx context.Context) ([]scan.Point, error) {
	if !d.scanning {
		return nil, errors.New("scan not started")
	}
	for {
		node, err := d.nextNode(ctx)
		if err != nil {
			return nil, err
		}
		p := scan.Point{Angle: node.Angle, Distance: int(node.Distance), Quality: node.Quality}

		if node.Start {
			if !d.synced {
				d.synced = true
				d.pending = append(d.pending[:0], p)
				continue
			}
			rev := d.pending
			d.pending = []scan.Point{p}
			d.stats.Revolutions++
			return rev, nil
		}
		if !d.synced {
			continue
		}

		d.pending = append(d.pending, p)
		if len(d.pending) > d.opts.MaxRevolutionNodes {
			d.stats.Overflows++
			n := len(d.pending)
			d.pending = nil
			d.synced = false
			return nil, fmt.Errorf("revolution exceeded %d nodes without a start flag: %w", n-1, scan.ErrTransient)
		}
	}
}
