// Package control turns per-cycle sensor facts into one motor command and
// transmits it to the motor controller.
package control

import (
	"fmt"
	"strings"
)

// Command is a single ASCII byte understood by the motor controller.
type Command byte

const (
	Forward  Command = 'F'
	Backward Command = 'B'
	Left     Command = 'L'
	Right    Command = 'R'
	Stop     Command = 'S'
)

// Valid reports whether c is one of the five motor commands.
func (c Command) Valid() bool {
	switch c {
	case Forward, Backward, Left, Right, Stop:
		return true
	}
	return false
}

func (c Command) String() string {
	switch c {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("Command(%#02x)", byte(c))
	}
}

// MarshalText renders the wire letter, or "" for the zero Command.
func (c Command) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return []byte{}, nil
	}
	return []byte{byte(c)}, nil
}

// UnmarshalText accepts what MarshalText produces; empty means no command.
func (c *Command) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = 0
		return nil
	}
	v, err := ParseCommand(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCommand accepts either the wire letter ("F") or the name ("forward").
func ParseCommand(s string) (Command, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		if c := Command(strings.ToUpper(s)[0]); c.Valid() {
			return c, nil
		}
	}
	for _, c := range []Command{Forward, Backward, Left, Right, Stop} {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", s)
}

// LaneDirection is the camera's lane-following suggestion.
type LaneDirection int

const (
	LaneNone LaneDirection = iota
	LaneForward
	LaneLeft
	LaneRight
)

func (d LaneDirection) String() string {
	switch d {
	case LaneNone:
		return "none"
	case LaneForward:
		return "forward"
	case LaneLeft:
		return "left"
	case LaneRight:
		return "right"
	default:
		return fmt.Sprintf("LaneDirection(%d)", int(d))
	}
}

func (d LaneDirection) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *LaneDirection) UnmarshalText(b []byte) error {
	for _, v := range []LaneDirection{LaneNone, LaneForward, LaneLeft, LaneRight} {
		if v.String() == string(b) {
			*d = v
			return nil
		}
	}
	return fmt.Errorf("unknown lane direction %q", b)
}

// TrafficLight is the colour of the traffic light ahead, if any.
type TrafficLight int

const (
	LightNone TrafficLight = iota
	LightRed
	LightYellow
	LightGreen
	LightBlue
)

func (l TrafficLight) String() string {
	switch l {
	case LightNone:
		return "none"
	case LightRed:
		return "red"
	case LightYellow:
		return "yellow"
	case LightGreen:
		return "green"
	case LightBlue:
		return "blue"
	default:
		return fmt.Sprintf("TrafficLight(%d)", int(l))
	}
}

func (l TrafficLight) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *TrafficLight) UnmarshalText(b []byte) error {
	for _, v := range []TrafficLight{LightNone, LightRed, LightYellow, LightGreen, LightBlue} {
		if v.String() == string(b) {
			*l = v
			return nil
		}
	}
	return fmt.Errorf("unknown traffic light %q", b)
}
