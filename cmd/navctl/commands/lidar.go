package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sukyun02/2026-autonomous-driving/internal/config"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/rplidar"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
	"github.com/sukyun02/2026-autonomous-driving/internal/viz"
)

func openLidar(cfg *config.NavConfig) (*rplidar.Device, error) {
	return rplidar.Open(cfg.GetLidarPort(),
		serialmux.PortOptions{BaudRate: cfg.GetLidarBaud()},
		rplidar.Options{MotorPWM: cfg.GetLidarMotorPWM()})
}

func newLidarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lidar",
		Short: "Range scanner diagnostics",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Print device information and health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dev, err := openLidar(cfg)
			if err != nil {
				return err
			}
			defer dev.Close()
			if err := dev.StopMotor(); err != nil {
				return err
			}
			dev.ClearInput()

			out := cmd.OutOrStdout()
			devInfo, err := dev.Info(cmd.Context())
			if err != nil {
				return fmt.Errorf("device info: %w", err)
			}
			info(out, "%s", devInfo)

			health, err := dev.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("device health: %w", err)
			}
			switch health.Status {
			case rplidar.HealthGood:
				success(out, "health %s", health.Status)
			case rplidar.HealthWarning:
				warning(out, "health %s (code %d)", health.Status, health.ErrorCode)
			default:
				failure(out, "health %s (code %d)", health.Status, health.ErrorCode)
			}
			return nil
		},
	})

	var (
		revolutions int
		pngPath     string
	)
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Read revolutions and report the forward zone",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dev, err := openLidar(cfg)
			if err != nil {
				return err
			}
			defer dev.Close()
			if err := dev.Init(ctx); err != nil {
				return err
			}
			if err := dev.Start(ctx); err != nil {
				return err
			}
			zone := vehicle.ConfigFrom(cfg).Zone
			stream := scan.NewStream(dev, cfg.GetMinScanPoints())
			return scanLoop(ctx, cmd.OutOrStdout(), stream, zone, revolutions, pngPath)
		},
	}
	scanCmd.Flags().IntVarP(&revolutions, "revolutions", "n", 10, "revolutions to read (0 reads until interrupted)")
	scanCmd.Flags().StringVar(&pngPath, "png", "", "write a plot of the last revolution to this file")
	cmd.AddCommand(scanCmd)

	return cmd
}

func scanLoop(ctx context.Context, out io.Writer, stream *scan.Stream, zone obstacle.ScannerZone, n int, pngPath string) error {
	var last scan.Snapshot
	for i := 0; n <= 0 || i < n; i++ {
		snap, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				break
			}
			return err
		}
		last = snap
		s := viz.Summarise(snap.Points(), zone)
		r := obstacle.DetectScanner(snap, zone)
		line := fmt.Sprintf("#%-4d %4d pts  mean %6.0fmm  min %5.0fmm  zone %d  %s",
			snap.Seq, s.Count, s.MeanMM, s.MinMM, s.InZone, r)
		if r.Present {
			warning(out, "%s", line)
		} else {
			info(out, "  %s", line)
		}
	}

	stats := stream.Stats()
	info(out, "%d snapshots, %d discarded, %d transient errors, %d samples dropped",
		stats.Emitted, stats.Discarded, stats.Transient, stats.Dropped)

	if pngPath == "" || last.Empty() {
		return nil
	}
	f, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := viz.WriteScanPNG(f, vehicle.Status{Cycle: last.Seq, Points: last.Points()}, zone); err != nil {
		return err
	}
	success(out, "wrote %s", pngPath)
	return nil
}

func init() {
	rootCmd.AddCommand(newLidarCmd())
}
