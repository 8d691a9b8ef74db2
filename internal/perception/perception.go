// Package perception defines what the control loop needs from the camera
// pipeline. Image processing lives elsewhere; this package only carries its
// answers.
package perception

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
)

// LaneSource reports the lane-following direction for the current frame. An
// error means the lane is unknown.
type LaneSource interface {
	Lane(ctx context.Context) (control.LaneDirection, error)
}

// TrafficLightSource reports the traffic light colour for the current frame.
// An error means no light was recognised.
type TrafficLightSource interface {
	TrafficLight(ctx context.Context) (control.TrafficLight, error)
}

// ReadLane queries src and maps failures and a nil source to LaneNone.
func ReadLane(ctx context.Context, src LaneSource) control.LaneDirection {
	if src == nil {
		return control.LaneNone
	}
	d, err := src.Lane(ctx)
	if err != nil {
		tracef("lane unavailable: %v", err)
		return control.LaneNone
	}
	return d
}

// ReadLight queries src and maps failures and a nil source to LightNone.
func ReadLight(ctx context.Context, src TrafficLightSource) control.TrafficLight {
	if src == nil {
		return control.LightNone
	}
	l, err := src.TrafficLight(ctx)
	if err != nil {
		tracef("traffic light unavailable: %v", err)
		return control.LightNone
	}
	return l
}

// Static always returns the same readings.
type Static struct {
	Direction control.LaneDirection
	Light     control.TrafficLight
}

func (s Static) Lane(context.Context) (control.LaneDirection, error) { return s.Direction, nil }

func (s Static) TrafficLight(context.Context) (control.TrafficLight, error) { return s.Light, nil }

// Reading is one step of a Script.
type Reading struct {
	Lane  control.LaneDirection
	Light control.TrafficLight
}

// Script cycles through fixed readings. Each Lane call advances to the next
// reading; TrafficLight reports the light of the current one. It is safe for
// concurrent use.
type Script struct {
	mu       sync.Mutex
	readings []Reading
	pos      int
	started  bool
}

// NewScript returns a Script over readings. An empty script reports
// LaneNone and LightNone.
func NewScript(readings ...Reading) *Script {
	return &Script{readings: append([]Reading(nil), readings...)}
}

func (s *Script) Lane(context.Context) (control.LaneDirection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.readings) == 0 {
		return control.LaneNone, nil
	}
	if s.started {
		s.pos = (s.pos + 1) % len(s.readings)
	}
	s.started = true
	return s.readings[s.pos].Lane, nil
}

func (s *Script) TrafficLight(context.Context) (control.TrafficLight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.readings) == 0 {
		return control.LightNone, nil
	}
	return s.readings[s.pos].Light, nil
}

// ParseLane maps "forward", "left", "right" and "none" (or F, L, R, "") to a
// LaneDirection.
func ParseLane(s string) (control.LaneDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "-":
		return control.LaneNone, nil
	case "forward", "f", "straight":
		return control.LaneForward, nil
	case "left", "l":
		return control.LaneLeft, nil
	case "right", "r":
		return control.LaneRight, nil
	}
	return control.LaneNone, fmt.Errorf("unknown lane direction %q", s)
}

// ParseLight maps a colour name to a TrafficLight.
func ParseLight(s string) (control.TrafficLight, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "-":
		return control.LightNone, nil
	case "red":
		return control.LightRed, nil
	case "yellow", "amber":
		return control.LightYellow, nil
	case "green":
		return control.LightGreen, nil
	case "blue":
		return control.LightBlue, nil
	}
	return control.LightNone, fmt.Errorf("unknown traffic light %q", s)
}

// ParseScript parses "lane[/light],lane[/light],..." e.g.
// "forward,forward/red,left". Used by the CLI to script a drive without a
// camera.
func ParseScript(s string) (*Script, error) {
	var readings []Reading
	for _, step := range strings.Split(s, ",") {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		lanePart, lightPart, _ := strings.Cut(step, "/")
		lane, err := ParseLane(lanePart)
		if err != nil {
			return nil, err
		}
		light, err := ParseLight(lightPart)
		if err != nil {
			return nil, err
		}
		readings = append(readings, Reading{Lane: lane, Light: light})
	}
	return NewScript(readings...), nil
}
