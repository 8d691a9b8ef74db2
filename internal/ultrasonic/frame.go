// Package ultrasonic decodes the six-sensor ultrasonic telemetry sent by the
// motor controller and keeps the last known reading per sensor.
package ultrasonic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Sensor indexes one of the six fixed ultrasonic sensors.
type Sensor int

const (
	Front Sensor = iota
	FrontLeft
	FrontRight
	Rear
	RearLeft
	RearRight

	NumSensors
)

// NoReading replaces a 0 ("measurement failed") value before distances are
// compared, so a failed sensor reads as far away.
const NoReading = 999

var sensorKeys = [NumSensors]string{"F", "FL", "FR", "R", "RL", "RR"}

// Key returns the wire key for the sensor ("F", "FL", ...).
func (s Sensor) Key() string {
	if s < 0 || s >= NumSensors {
		return fmt.Sprintf("Sensor(%d)", int(s))
	}
	return sensorKeys[s]
}

func (s Sensor) String() string {
	switch s {
	case Front:
		return "front"
	case FrontLeft:
		return "front-left"
	case FrontRight:
		return "front-right"
	case Rear:
		return "rear"
	case RearLeft:
		return "rear-left"
	case RearRight:
		return "rear-right"
	default:
		return s.Key()
	}
}

// ParseSensor maps a wire key to a Sensor.
func ParseSensor(key string) (Sensor, bool) {
	k := strings.ToUpper(strings.TrimSpace(key))
	for i, sk := range sensorKeys {
		if sk == k {
			return Sensor(i), true
		}
	}
	return 0, false
}

// Frame holds one distance in centimetres per sensor. A zero value means the
// sensor has not reported or its last measurement failed.
type Frame [NumSensors]int

// Get returns the raw value for s.
func (f Frame) Get(s Sensor) int {
	return f[s]
}

// Normalized returns the value for s with 0 replaced by NoReading.
func (f Frame) Normalized(s Sensor) int {
	if f[s] == 0 {
		return NoReading
	}
	return f[s]
}

// Map renders the frame keyed by wire key, for logs and JSON.
func (f Frame) Map() map[string]int {
	m := make(map[string]int, NumSensors)
	for i, v := range f {
		m[sensorKeys[i]] = v
	}
	return m
}

// MarshalJSON encodes the frame as an object keyed by wire key.
func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Map())
}

// UnmarshalJSON accepts the MarshalJSON form. Unknown keys are ignored.
func (f *Frame) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out Frame
	for k, v := range m {
		if s, ok := ParseSensor(k); ok {
			out[s] = v
		}
	}
	*f = out
	return nil
}

func (f Frame) String() string {
	parts := make([]string, 0, NumSensors)
	for i, v := range f {
		parts = append(parts, fmt.Sprintf("%s:%d", sensorKeys[i], v))
	}
	return strings.Join(parts, ",")
}
