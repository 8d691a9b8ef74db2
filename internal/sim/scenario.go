// Package sim drives the control loop with synthetic sensor data so the
// decision rules can be checked without a vehicle.
package sim

import (
	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/ultrasonic"
)

// Scenario is one fixed set of sensor readings held for Cycles revolutions.
type Scenario struct {
	Name string
	// Cycles is the number of scanner revolutions to run. At least one runs.
	Cycles int

	Lane  control.LaneDirection
	Light control.TrafficLight
	// TrafficLight selects the traffic-light aware rules.
	TrafficLight bool

	// ScannerMM is the distance of the single point straight ahead; every
	// other point of the revolution is far away.
	ScannerMM  int
	Ultrasonic ultrasonic.Frame

	Expect control.Command
}

func frame(f, fl, fr int) ultrasonic.Frame {
	return ultrasonic.Frame{f, fl, fr, 100, 100, 100}
}

// Builtin returns the eight reference scenarios.
func Builtin() []Scenario {
	return []Scenario{
		{Name: "straight, no obstacle", Cycles: 5, Lane: control.LaneForward, ScannerMM: 1000, Ultrasonic: frame(100, 100, 100), Expect: control.Forward},
		{Name: "left turn", Cycles: 3, Lane: control.LaneLeft, ScannerMM: 1000, Ultrasonic: frame(100, 80, 120), Expect: control.Left},
		{Name: "right turn", Cycles: 3, Lane: control.LaneRight, ScannerMM: 1000, Ultrasonic: frame(100, 120, 80), Expect: control.Right},
		{Name: "scanner obstacle ahead", Cycles: 2, Lane: control.LaneForward, ScannerMM: 300, Ultrasonic: frame(100, 100, 100), Expect: control.Stop},
		{Name: "ultrasonic obstacle ahead", Cycles: 2, Lane: control.LaneForward, ScannerMM: 1000, Ultrasonic: frame(15, 100, 100), Expect: control.Stop},
		{Name: "front-left obstacle", Cycles: 2, Lane: control.LaneLeft, ScannerMM: 1000, Ultrasonic: frame(100, 15, 100), Expect: control.Stop},
		{Name: "front-right obstacle", Cycles: 2, Lane: control.LaneRight, ScannerMM: 1000, Ultrasonic: frame(100, 100, 15), Expect: control.Stop},
		{Name: "lane lost", Cycles: 2, Lane: control.LaneNone, ScannerMM: 1000, Ultrasonic: frame(100, 100, 100), Expect: control.Stop},
	}
}

// TrafficLightScenarios exercise the traffic-light aware rules.
func TrafficLightScenarios() []Scenario {
	return []Scenario{
		{Name: "red light", Cycles: 2, TrafficLight: true, Light: control.LightRed, Lane: control.LaneForward, ScannerMM: 1000, Ultrasonic: frame(100, 100, 100), Expect: control.Stop},
		{Name: "yellow light", Cycles: 2, TrafficLight: true, Light: control.LightYellow, Lane: control.LaneForward, ScannerMM: 1000, Ultrasonic: frame(100, 100, 100), Expect: control.Stop},
		{Name: "green light", Cycles: 2, TrafficLight: true, Light: control.LightGreen, Lane: control.LaneForward, ScannerMM: 1000, Ultrasonic: frame(100, 100, 100), Expect: control.Forward},
		{Name: "green light, obstacle", Cycles: 2, TrafficLight: true, Light: control.LightGreen, Lane: control.LaneLeft, ScannerMM: 250, Ultrasonic: frame(100, 100, 100), Expect: control.Stop},
	}
}
