package sim

import (
	"context"
	"fmt"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/perception"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario Scenario
	Got      control.Command
	Reason   string
	// Wire is every byte the motor controller would have received,
	// including the stops at session start and end.
	Wire string
	Pass bool
}

func (r Result) String() string {
	verdict := "PASS"
	if !r.Pass {
		verdict = "FAIL"
	}
	return fmt.Sprintf("%s %-28s expected %c got %c (%s)", verdict, r.Scenario.Name, byte(r.Scenario.Expect), byte(r.Got), r.Reason)
}

// revolution is a ring of far points with one point straight ahead at
// aheadMM.
func revolution(aheadMM int) []scan.Point {
	const far = 3000
	pts := []scan.Point{{Angle: 0.5, Distance: aheadMM, Quality: 15}}
	for a := 15.0; a < 350; a += 10 {
		pts = append(pts, scan.Point{Angle: a, Distance: far, Quality: 15})
	}
	return pts
}

type wireSink struct{ bytes []byte }

func (w *wireSink) Send(c control.Command) error {
	w.bytes = append(w.bytes, byte(c))
	return nil
}

// RunScenario runs sc through a fresh Session configured by cfg.
func RunScenario(ctx context.Context, cfg vehicle.Config, sc Scenario) (Result, error) {
	cycles := sc.Cycles
	if cycles < 1 {
		cycles = 1
	}
	revs := make([][]scan.Point, cycles)
	for i := range revs {
		revs[i] = revolution(sc.ScannerMM)
	}

	// the controller prints the readings once; the decoder keeps them
	lines := make(chan string, 1)
	lines <- sc.Ultrasonic.String()

	cfg.TrafficLight = sc.TrafficLight
	sink := &wireSink{}
	s := vehicle.New(cfg, vehicle.Deps{
		SessionID: "sim",
		Scanner:   &scan.SliceSource{Revolutions: revs},
		Telemetry: lines,
		Sink:      sink,
		Lane:      perception.Static{Direction: sc.Lane},
		Light:     perception.Static{Light: sc.Light},
		Report:    func(vehicle.Status) {},
	})
	if err := s.Run(ctx); err != nil {
		return Result{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	st, ok := s.Status()
	if !ok {
		return Result{}, fmt.Errorf("scenario %q produced no cycle", sc.Name)
	}
	return Result{
		Scenario: sc,
		Got:      st.Command,
		Reason:   st.Reason,
		Wire:     string(sink.bytes),
		Pass:     st.Command == sc.Expect,
	}, nil
}

// Run runs every scenario in order and stops at the first error.
func Run(ctx context.Context, cfg vehicle.Config, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		r, err := RunScenario(ctx, cfg, sc)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Passed counts passing results.
func Passed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Pass {
			n++
		}
	}
	return n
}
