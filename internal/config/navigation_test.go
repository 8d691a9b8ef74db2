package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := Empty()

	assert.Equal(t, 350.0, cfg.GetObstacleAngleMin())
	assert.Equal(t, 10.0, cfg.GetObstacleAngleMax())
	assert.Equal(t, 500, cfg.GetObstacleDistanceMM())
	assert.Equal(t, 200, cfg.GetUltrasonicSafeDistanceMM())
	assert.Equal(t, 10, cfg.GetMinScanPoints())
	assert.False(t, cfg.GetTrafficLightEnabled())
	assert.Equal(t, 10, cfg.GetDebugPrintInterval())
	assert.Equal(t, 115200, cfg.GetLidarBaud())
	assert.Equal(t, 660, cfg.GetLidarMotorPWM())
	assert.Equal(t, serialmux.PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "N"}, cfg.GetArduinoSerial())
	assert.Equal(t, 200*time.Millisecond, cfg.GetPublishInterval())
	assert.Equal(t, "nav:status", cfg.GetRedisChannel())
	assert.Empty(t, cfg.GetJournalPath())
	assert.Empty(t, cfg.GetRedisAddr())
	require.NoError(t, cfg.Validate())
}

func TestDefaultsFileMatchesGetters(t *testing.T) {
	fromFile := MustLoadDefaultConfig()

	if diff := cmp.Diff(Defaults(), fromFile); diff != "" {
		t.Errorf("%s disagrees with the Get* defaults (-code +file):\n%s", DefaultConfigPath, diff)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "nav.json", `{
  "obstacle_distance_mm": 650,
  "ultrasonic_safe_distance_mm": 150,
  "traffic_light_enabled": true,
  "arduino_serial": {"baud_rate": 115200}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 650, cfg.GetObstacleDistanceMM())
	assert.Equal(t, 150, cfg.GetUltrasonicSafeDistanceMM())
	assert.True(t, cfg.GetTrafficLightEnabled())
	assert.Equal(t, 115200, cfg.GetArduinoSerial().BaudRate)
	// omitted fields keep their defaults
	assert.Equal(t, 350.0, cfg.GetObstacleAngleMin())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "nav.yaml", `
obstacle_angle_min: 340
obstacle_angle_max: 20
min_scan_points: 25
publish_interval: 1s
arduino_serial:
  baud_rate: 19200
  parity: even
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 340.0, cfg.GetObstacleAngleMin())
	assert.Equal(t, 20.0, cfg.GetObstacleAngleMax())
	assert.Equal(t, 25, cfg.GetMinScanPoints())
	assert.Equal(t, time.Second, cfg.GetPublishInterval())
	assert.Equal(t, serialmux.PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "E"}, cfg.GetArduinoSerial())
}

func TestLoad_ExampleYAML(t *testing.T) {
	cfg, err := Load("../../config/navigation.example.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.GetTrafficLightEnabled())
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"wrong extension", "nav.toml", `obstacle_distance_mm = 1`},
		{"non-numeric threshold json", "nav.json", `{"obstacle_distance_mm": "far"}`},
		{"non-numeric threshold yaml", "nav.yml", "ultrasonic_safe_distance_mm: close\n"},
		{"malformed json", "nav.json", `{`},
		{"angle out of range", "nav.json", `{"obstacle_angle_max": 360}`},
		{"empty window", "nav.json", `{"obstacle_angle_min": 10, "obstacle_angle_max": 10}`},
		{"zero danger distance", "nav.json", `{"obstacle_distance_mm": 0}`},
		{"negative safe distance", "nav.json", `{"ultrasonic_safe_distance_mm": -20}`},
		{"negative min points", "nav.json", `{"min_scan_points": -1}`},
		{"zero min points", "nav.json", `{"min_scan_points": 0}`},
		{"pwm too high", "nav.json", `{"lidar_motor_pwm": 2000}`},
		{"bad arduino parity", "nav.json", `{"arduino_serial": {"parity": "mark"}}`},
		{"bad publish interval", "nav.json", `{"publish_interval": "soon"}`},
		{"zero debug interval", "nav.yaml", "debug_print_interval: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoad_TooLarge(t *testing.T) {
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	path := writeConfig(t, "big.json", string(big))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}
