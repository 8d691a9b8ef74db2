package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/sukyun02/2026-autonomous-driving/internal/config"
	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/journal"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/rplidar"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/monitoring"
	"github.com/sukyun02/2026-autonomous-driving/internal/perception"
	"github.com/sukyun02/2026-autonomous-driving/internal/publish"
	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
	"github.com/sukyun02/2026-autonomous-driving/internal/ultrasonic"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "navctl",
	Short: "Reactive navigation controller for the ground vehicle",
	Long: `navctl reads the range scanner and the motor controller's ultrasonic
telemetry, combines them with the lane and traffic light readings, and
sends one motor command per scanner revolution.

Every exit path stops the vehicle before the devices are released.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := monitoring.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		monitoring.Install(monitoring.WritersFor(level, cmd.ErrOrStderr()), logSetters...)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// logSetters is every package with ops/diag/trace streams.
var logSetters = []monitoring.SetLogWritersFunc{
	control.SetLogWriters,
	journal.SetLogWriters,
	perception.SetLogWriters,
	publish.SetLogWriters,
	rplidar.SetLogWriters,
	scan.SetLogWriters,
	serialmux.SetLogWriters,
	ultrasonic.SetLogWriters,
	vehicle.SetLogWriters,
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		failure(os.Stderr, "%v", err)
		return err
	}
	return nil
}

// SetVersionInfo sets the version shown by --version and the version command.
func SetVersionInfo(v, sha, built string) {
	buildVersion, buildSHA, buildTime = v, sha, built
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, sha, built)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"navigation config (.json, .yaml); defaults to "+config.DefaultConfigPath+" when present")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "ops", "log streams to enable: quiet, ops, diag or trace")
}

// loadConfig reads --config, falling back to the defaults file and then to
// built-in defaults.
func loadConfig() (*config.NavConfig, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); errors.Is(err, fs.ErrNotExist) {
			return config.Empty(), nil
		}
		path = config.DefaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
