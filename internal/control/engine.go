package control

import (
	"fmt"

	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
)

// Inputs are the facts for one control cycle.
type Inputs struct {
	Lane       LaneDirection
	Light      TrafficLight
	Scanner    obstacle.Report
	Ultrasonic obstacle.Report
}

// Rule identifies which priority rule produced a Decision.
type Rule int

const (
	RuleRedLight Rule = iota + 1
	RuleYellowLight
	RuleScannerObstacle
	RuleUltrasonicObstacle
	RuleLaneForward
	RuleLaneLeft
	RuleLaneRight
	RuleNoLane
)

// Decision is the command for one cycle plus a human readable reason. The
// reason is for logs only.
type Decision struct {
	Command Command
	Rule    Rule
	Reason  string
}

func (d Decision) String() string {
	return fmt.Sprintf("%c (%s)", byte(d.Command), d.Reason)
}

// Decide applies the priority rules without the traffic light: scanner
// obstacle, then ultrasonic obstacle, then the lane direction. A missing
// lane stops the vehicle.
func Decide(in Inputs) Decision {
	if in.Scanner.Present {
		return Decision{Stop, RuleScannerObstacle, "scanner obstacle: " + in.Scanner.String()}
	}
	if in.Ultrasonic.Present {
		return Decision{Stop, RuleUltrasonicObstacle, "ultrasonic obstacle: " + in.Ultrasonic.String()}
	}
	switch in.Lane {
	case LaneForward:
		return Decision{Forward, RuleLaneForward, "following lane forward"}
	case LaneLeft:
		return Decision{Left, RuleLaneLeft, "following lane left"}
	case LaneRight:
		return Decision{Right, RuleLaneRight, "following lane right"}
	default:
		return Decision{Stop, RuleNoLane, "lane not detected"}
	}
}

// DecideWithTrafficLight stops for red and yellow lights before applying
// Decide.
func DecideWithTrafficLight(in Inputs) Decision {
	switch in.Light {
	case LightRed:
		return Decision{Stop, RuleRedLight, "red light"}
	case LightYellow:
		return Decision{Stop, RuleYellowLight, "yellow light"}
	}
	d := Decide(in)
	if in.Light == LightGreen && d.Command != Stop {
		d.Reason += " on green"
	}
	return d
}

// Decider is either Decide or DecideWithTrafficLight.
type Decider func(Inputs) Decision

// DeciderFor picks the decision variant.
func DeciderFor(trafficLight bool) Decider {
	if trafficLight {
		return DecideWithTrafficLight
	}
	return Decide
}
