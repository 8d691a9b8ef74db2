package vehicle

import (
	"time"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/ultrasonic"
)

// Status is the outcome of one control cycle. A published Status is never
// modified, so background readers may hold on to it.
type Status struct {
	SessionID string    `json:"session_id"`
	Cycle     int64     `json:"cycle"`
	At        time.Time `json:"at"`

	Lane  control.LaneDirection `json:"lane"`
	Light control.TrafficLight  `json:"light"`

	Scanner    obstacle.Report  `json:"scanner"`
	Ultrasonic obstacle.Report  `json:"ultrasonic"`
	Distances  ultrasonic.Frame `json:"distances_cm"`
	Points     []scan.Point     `json:"-"`
	Stream     scan.StreamStats `json:"stream"`

	Command     control.Command `json:"command"`
	Rule        control.Rule    `json:"rule"`
	Reason      string          `json:"reason"`
	Transmitted bool            `json:"transmitted"`

	CommandsSent int64 `json:"commands_sent"`
}

// Recorder persists cycle outcomes. Failures are logged, never fatal.
type Recorder interface {
	Record(Status) error
}

// RecorderFunc lets a function act as a Recorder.
type RecorderFunc func(Status) error

func (f RecorderFunc) Record(s Status) error { return f(s) }
