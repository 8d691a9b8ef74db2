package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
	"github.com/sukyun02/2026-autonomous-driving/internal/ultrasonic"
)

func newUltrasonicCmd() *cobra.Command {
	var (
		bench bool
		raw   bool
		every int
	)
	cmd := &cobra.Command{
		Use:   "ultrasonic",
		Short: "Tail the motor controller's ultrasonic telemetry",
		Long: `Print the decoded six-sensor frame and the obstacle verdict for
every telemetry line. No motor commands are sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var link serialmux.SerialMuxInterface
			if bench {
				link = serialmux.NewMockSerialMux([]string{
					"F:120,FL:18,FR:115,R:90,RL:95,RR:92",
					"45",
					"READY",
					"F:0,FL:30,FR:31",
				}, 250*time.Millisecond)
			} else {
				link, err = serialmux.NewRealSerialMux(cfg.GetArduinoPort(), cfg.GetArduinoSerial())
				if err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return tailUltrasonic(ctx, cmd.OutOrStdout(), link, cfg.GetUltrasonicSafeDistanceMM(), raw, every)
		},
	}
	cmd.Flags().BoolVar(&bench, "bench", false, "replay canned telemetry instead of opening the port")
	cmd.Flags().BoolVar(&raw, "raw", false, "also print each raw line and its class")
	cmd.Flags().IntVar(&every, "every", 1, "print one frame per N decoded lines")
	return cmd
}

func tailUltrasonic(ctx context.Context, out io.Writer, link serialmux.SerialMuxInterface, safeMM int, raw bool, every int) error {
	defer link.Close()
	if every < 1 {
		every = 1
	}

	id, lines := link.Subscribe()
	defer link.Unsubscribe(id)

	monitorErr := make(chan error, 1)
	go func() { monitorErr <- link.Monitor(ctx) }()

	d := ultrasonic.NewDecoder()
	decoded := 0
	for {
		select {
		case <-ctx.Done():
			total, applied, ignored := d.Counts()
			info(out, "\n%d lines: %d applied, %d ignored", total, applied, ignored)
			return nil
		case err := <-monitorErr:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("motor controller: %w", err)
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			class, applied := serialmux.HandleLine(d, line)
			if raw {
				info(out, "  %-10s %q", class, line)
			}
			if !applied {
				continue
			}
			decoded++
			if decoded%every != 0 {
				continue
			}
			frame := d.Frame()
			r := obstacle.DetectUltrasonic(frame, safeMM)
			if r.Present {
				warning(out, "%s  %s", frame, r)
			} else {
				info(out, "  %s  %s", frame, r)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(newUltrasonicCmd())
}
