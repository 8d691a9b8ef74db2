package ultrasonic

import (
	"strconv"
	"strings"
)

// Decoder applies telemetry lines to a sticky Frame. It is owned by the
// control loop and is not safe for concurrent use; background readers get
// copies through Frame.
//
// Two line formats are accepted:
//
//	F:25,FL:30,FR:28,R:50,RL:45,RR:48   keyed, any subset of sensors
//	123                                 legacy, front sensor only
//
// Anything else is ignored. A bad segment in a keyed line is skipped while
// the rest of the line still applies.
type Decoder struct {
	frame   Frame
	lines   int64
	applied int64
	ignored int64
}

// NewDecoder returns a decoder whose frame starts at all zeros.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Frame returns a copy of the current sticky frame.
func (d *Decoder) Frame() Frame {
	return d.frame
}

// Counts returns how many lines were seen, applied at least one value, and
// were ignored.
func (d *Decoder) Counts() (lines, applied, ignored int64) {
	return d.lines, d.applied, d.ignored
}

// Decode applies one line and reports whether any sensor value was updated.
func (d *Decoder) Decode(line string) bool {
	d.lines++
	line = strings.TrimSpace(line)

	var updated int
	switch {
	case strings.Contains(line, ":") && strings.Contains(line, ","):
		updated = d.decodeKeyed(line)
	case isDigits(line):
		v, err := strconv.Atoi(line)
		if err != nil {
			tracef("legacy value out of range %q: %v", line, err)
			break
		}
		d.frame[Front] = v
		updated = 1
	default:
		if line != "" {
			diagf("ignoring controller line %q", line)
		}
	}

	if updated == 0 {
		d.ignored++
		return false
	}
	d.applied++
	tracef("frame %s (%d updated)", d.frame, updated)
	return true
}

func (d *Decoder) decodeKeyed(line string) int {
	updated := 0
	for _, part := range strings.Split(line, ",") {
		if !strings.Contains(part, ":") {
			continue
		}
		kv := strings.Split(part, ":")
		if len(kv) != 2 {
			tracef("malformed segment %q", part)
			continue
		}
		sensor, ok := ParseSensor(kv[0])
		if !ok {
			tracef("unknown sensor key %q", kv[0])
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil || v < 0 {
			tracef("bad value in segment %q", part)
			continue
		}
		d.frame[sensor] = v
		updated++
	}
	return updated
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
