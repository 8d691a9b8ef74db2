package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sukyun02/2026-autonomous-driving/internal/sim"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

func newSimulateCmd() *cobra.Command {
	var (
		trafficLight bool
		showWire     bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the built-in decision scenarios without hardware",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			scenarios := sim.Builtin()
			if trafficLight {
				scenarios = append(scenarios, sim.TrafficLightScenarios()...)
			}
			results, err := sim.Run(cmd.Context(), vehicle.ConfigFrom(cfg), scenarios)
			if err != nil {
				return err
			}
			return reportResults(cmd.OutOrStdout(), results, showWire)
		},
	}
	cmd.Flags().BoolVar(&trafficLight, "traffic-light", false, "also run the traffic light scenarios")
	cmd.Flags().BoolVar(&showWire, "wire", false, "show the bytes each scenario sent to the motor controller")
	return cmd
}

func reportResults(out io.Writer, results []sim.Result, showWire bool) error {
	for _, r := range results {
		if r.Pass {
			success(out, "%s", r)
		} else {
			failure(out, "%s", r)
		}
		if showWire {
			info(out, "    wire: %q", r.Wire)
		}
	}
	passed := sim.Passed(results)
	info(out, "\n%d/%d scenarios passed", passed, len(results))
	if passed != len(results) {
		return fmt.Errorf("%d scenarios failed", len(results)-passed)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newSimulateCmd())
}
