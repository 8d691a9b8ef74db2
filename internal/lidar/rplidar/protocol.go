package rplidar

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	syncByte  = 0xA5
	syncByte2 = 0x5A

	cmdStop      = 0x25
	cmdReset     = 0x40
	cmdScan      = 0x20
	cmdGetInfo   = 0x50
	cmdGetHealth = 0x52
	cmdSetPWM    = 0xF0

	descriptorLen = 7
	nodeLen       = 5

	infoLen   = 20
	infoType  = 0x04
	healthLen = 3

	healthType = 0x06
	scanType   = 0x81

	// DefaultMotorPWM is the duty cycle used when the motor is started.
	DefaultMotorPWM = 660
	// MaxMotorPWM is the largest accepted duty cycle.
	MaxMotorPWM = 1023
)

// ErrGarbled is returned by DecodeNode for bytes that do not form a valid
// measurement node.
var ErrGarbled = errors.New("garbled measurement node")

// encodeRequest frames a command. Commands with a payload carry a length
// byte and an XOR checksum over every preceding byte.
func encodeRequest(cmd byte, payload []byte) []byte {
	if len(payload) == 0 {
		return []byte{syncByte, cmd}
	}
	req := make([]byte, 0, len(payload)+4)
	req = append(req, syncByte, cmd, byte(len(payload)))
	req = append(req, payload...)
	var checksum byte
	for _, b := range req {
		checksum ^= b
	}
	return append(req, checksum)
}

// descriptor is a decoded response descriptor.
type descriptor struct {
	Size     uint32
	Single   bool
	DataType byte
}

func parseDescriptor(b []byte) (descriptor, error) {
	if len(b) != descriptorLen {
		return descriptor{}, fmt.Errorf("descriptor length %d, want %d", len(b), descriptorLen)
	}
	if b[0] != syncByte || b[1] != syncByte2 {
		return descriptor{}, fmt.Errorf("bad descriptor sync %#02x %#02x", b[0], b[1])
	}
	word := binary.LittleEndian.Uint32(b[2:6])
	return descriptor{
		Size:     word & 0x3FFFFFFF,
		Single:   word>>30 == 0,
		DataType: b[6],
	}, nil
}

// Node is one decoded measurement.
type Node struct {
	Start    bool    // first node of a new revolution
	Quality  int     // 0..63
	Angle    float64 // degrees
	Distance float64 // millimetres
}

// DecodeNode decodes a 5-byte measurement node.
func DecodeNode(b []byte) (Node, error) {
	if len(b) < nodeLen {
		return Node{}, fmt.Errorf("short node (%d bytes): %w", len(b), ErrGarbled)
	}
	start := b[0]&0x01 != 0
	inverse := b[0]&0x02 != 0
	if start == inverse {
		return Node{}, fmt.Errorf("start flags mismatch: %w", ErrGarbled)
	}
	if b[1]&0x01 != 1 {
		return Node{}, fmt.Errorf("check bit clear: %w", ErrGarbled)
	}
	angleQ6 := uint16(b[1]>>1) | uint16(b[2])<<7
	angle := float64(angleQ6) / 64.0
	if angle >= 360 {
		return Node{}, fmt.Errorf("angle %.2f out of range: %w", angle, ErrGarbled)
	}
	distQ2 := binary.LittleEndian.Uint16(b[3:5])
	return Node{
		Start:    start,
		Quality:  int(b[0] >> 2),
		Angle:    angle,
		Distance: float64(distQ2) / 4.0,
	}, nil
}

// encodeNode is the inverse of DecodeNode. It is used by the replay fixtures
// and tests.
func encodeNode(n Node) []byte {
	var b [nodeLen]byte
	b[0] = byte(n.Quality&0x3F) << 2
	if n.Start {
		b[0] |= 0x01
	} else {
		b[0] |= 0x02
	}
	angleQ6 := uint16(n.Angle * 64)
	b[1] = byte(angleQ6<<1) | 0x01
	b[2] = byte(angleQ6 >> 7)
	binary.LittleEndian.PutUint16(b[3:5], uint16(n.Distance*4))
	return b[:]
}

// Info is the device identification block.
type Info struct {
	Model         byte
	FirmwareMajor byte
	FirmwareMinor byte
	Hardware      byte
	SerialNumber  string
}

func (i Info) String() string {
	return fmt.Sprintf("model=%d firmware=%d.%02d hardware=%d serial=%s",
		i.Model, i.FirmwareMajor, i.FirmwareMinor, i.Hardware, i.SerialNumber)
}

func parseInfo(b []byte) (Info, error) {
	if len(b) != infoLen {
		return Info{}, fmt.Errorf("info length %d, want %d", len(b), infoLen)
	}
	return Info{
		Model:         b[0],
		FirmwareMinor: b[1],
		FirmwareMajor: b[2],
		Hardware:      b[3],
		SerialNumber:  hex.EncodeToString(b[4:20]),
	}, nil
}

// HealthStatus is the device self-test verdict.
type HealthStatus byte

const (
	HealthGood HealthStatus = iota
	HealthWarning
	HealthError
)

func (s HealthStatus) String() string {
	switch s {
	case HealthGood:
		return "Good"
	case HealthWarning:
		return "Warning"
	case HealthError:
		return "Error"
	default:
		return fmt.Sprintf("HealthStatus(%d)", byte(s))
	}
}

// Health is the device health report.
type Health struct {
	Status    HealthStatus
	ErrorCode uint16
}

func parseHealth(b []byte) (Health, error) {
	if len(b) != healthLen {
		return Health{}, fmt.Errorf("health length %d, want %d", len(b), healthLen)
	}
	return Health{
		Status:    HealthStatus(b[0]),
		ErrorCode: binary.LittleEndian.Uint16(b[1:3]),
	}, nil
}
