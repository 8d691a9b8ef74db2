package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
)

// DefaultConfigPath is the path to the canonical navigation defaults file.
const DefaultConfigPath = "config/navigation.defaults.json"

// MaxMotorPWM is the largest PWM duty the range scanner accepts.
const MaxMotorPWM = 1023

// NavConfig is the navigation controller configuration. Every field is
// optional; the Get* methods supply defaults for omitted values, so partial
// files are safe.
type NavConfig struct {
	// Forward danger zone for the range scanner. The window wraps through 0°
	// when the minimum is larger than the maximum.
	ObstacleAngleMin   *float64 `json:"obstacle_angle_min,omitempty" yaml:"obstacle_angle_min,omitempty"`
	ObstacleAngleMax   *float64 `json:"obstacle_angle_max,omitempty" yaml:"obstacle_angle_max,omitempty"`
	ObstacleDistanceMM *int     `json:"obstacle_distance_mm,omitempty" yaml:"obstacle_distance_mm,omitempty"`

	// Forward ultrasonic threshold, in millimetres like every other
	// configured distance.
	UltrasonicSafeDistanceMM *int `json:"ultrasonic_safe_distance_mm,omitempty" yaml:"ultrasonic_safe_distance_mm,omitempty"`

	MinScanPoints       *int  `json:"min_scan_points,omitempty" yaml:"min_scan_points,omitempty"`
	TrafficLightEnabled *bool `json:"traffic_light_enabled,omitempty" yaml:"traffic_light_enabled,omitempty"`
	DebugPrintInterval  *int  `json:"debug_print_interval,omitempty" yaml:"debug_print_interval,omitempty"`

	// Devices
	LidarPort     *string                `json:"lidar_port,omitempty" yaml:"lidar_port,omitempty"`
	LidarBaud     *int                   `json:"lidar_baud,omitempty" yaml:"lidar_baud,omitempty"`
	LidarMotorPWM *int                   `json:"lidar_motor_pwm,omitempty" yaml:"lidar_motor_pwm,omitempty"`
	ArduinoPort   *string                `json:"arduino_port,omitempty" yaml:"arduino_port,omitempty"`
	ArduinoSerial *serialmux.PortOptions `json:"arduino_serial,omitempty" yaml:"arduino_serial,omitempty"`

	// Background consumers
	JournalPath     *string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
	RedisAddr       *string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisChannel    *string `json:"redis_channel,omitempty" yaml:"redis_channel,omitempty"`
	PublishInterval *string `json:"publish_interval,omitempty" yaml:"publish_interval,omitempty"` // duration string like "200ms"
	Listen          *string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Empty returns a NavConfig with all fields nil.
func Empty() *NavConfig {
	return &NavConfig{}
}

// Defaults returns a NavConfig with every field set to its default.
func Defaults() *NavConfig {
	c := Empty()
	arduino := c.GetArduinoSerial()
	return &NavConfig{
		ObstacleAngleMin:         ptrFloat64(c.GetObstacleAngleMin()),
		ObstacleAngleMax:         ptrFloat64(c.GetObstacleAngleMax()),
		ObstacleDistanceMM:       ptrInt(c.GetObstacleDistanceMM()),
		UltrasonicSafeDistanceMM: ptrInt(c.GetUltrasonicSafeDistanceMM()),
		MinScanPoints:            ptrInt(c.GetMinScanPoints()),
		TrafficLightEnabled:      ptrBool(c.GetTrafficLightEnabled()),
		DebugPrintInterval:       ptrInt(c.GetDebugPrintInterval()),
		LidarPort:                ptrString(c.GetLidarPort()),
		LidarBaud:                ptrInt(c.GetLidarBaud()),
		LidarMotorPWM:            ptrInt(c.GetLidarMotorPWM()),
		ArduinoPort:              ptrString(c.GetArduinoPort()),
		ArduinoSerial:            &arduino,
		JournalPath:              ptrString(c.GetJournalPath()),
		RedisAddr:                ptrString(c.GetRedisAddr()),
		RedisChannel:             ptrString(c.GetRedisChannel()),
		PublishInterval:          ptrString(c.GetPublishInterval().String()),
		Listen:                   ptrString(c.GetListen()),
	}
}

// Load reads a NavConfig from a .json, .yaml or .yml file and validates it.
func Load(path string) (*NavConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *NavConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/lidar/scan/
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *NavConfig) Validate() error {
	for name, v := range map[string]*float64{
		"obstacle_angle_min": c.ObstacleAngleMin,
		"obstacle_angle_max": c.ObstacleAngleMax,
	} {
		if v != nil && (*v < 0 || *v >= 360) {
			return fmt.Errorf("%s must be in [0, 360), got %g", name, *v)
		}
	}
	if c.GetObstacleAngleMin() == c.GetObstacleAngleMax() {
		return fmt.Errorf("obstacle angle window is empty (%g to %g)", c.GetObstacleAngleMin(), c.GetObstacleAngleMax())
	}

	for name, v := range map[string]*int{
		"obstacle_distance_mm":        c.ObstacleDistanceMM,
		"ultrasonic_safe_distance_mm": c.UltrasonicSafeDistanceMM,
		"debug_print_interval":        c.DebugPrintInterval,
		"lidar_baud":                  c.LidarBaud,
		"min_scan_points":             c.MinScanPoints,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}

	if c.LidarMotorPWM != nil && (*c.LidarMotorPWM < 0 || *c.LidarMotorPWM > MaxMotorPWM) {
		return fmt.Errorf("lidar_motor_pwm must be between 0 and %d, got %d", MaxMotorPWM, *c.LidarMotorPWM)
	}
	if c.ArduinoSerial != nil {
		if _, err := c.ArduinoSerial.Normalise(); err != nil {
			return fmt.Errorf("arduino_serial: %w", err)
		}
	}
	if c.PublishInterval != nil && *c.PublishInterval != "" {
		d, err := time.ParseDuration(*c.PublishInterval)
		if err != nil {
			return fmt.Errorf("invalid publish_interval '%s': %w", *c.PublishInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("publish_interval must be positive, got %s", d)
		}
	}
	return nil
}

// GetObstacleAngleMin returns the obstacle_angle_min value or the default.
func (c *NavConfig) GetObstacleAngleMin() float64 {
	if c.ObstacleAngleMin == nil {
		return 350
	}
	return *c.ObstacleAngleMin
}

// GetObstacleAngleMax returns the obstacle_angle_max value or the default.
func (c *NavConfig) GetObstacleAngleMax() float64 {
	if c.ObstacleAngleMax == nil {
		return 10
	}
	return *c.ObstacleAngleMax
}

// GetObstacleDistanceMM returns the obstacle_distance_mm value or the default.
func (c *NavConfig) GetObstacleDistanceMM() int {
	if c.ObstacleDistanceMM == nil {
		return 500
	}
	return *c.ObstacleDistanceMM
}

// GetUltrasonicSafeDistanceMM returns the ultrasonic_safe_distance_mm value or the default.
func (c *NavConfig) GetUltrasonicSafeDistanceMM() int {
	if c.UltrasonicSafeDistanceMM == nil {
		return 200
	}
	return *c.UltrasonicSafeDistanceMM
}

// GetMinScanPoints returns the min_scan_points value or the default.
func (c *NavConfig) GetMinScanPoints() int {
	if c.MinScanPoints == nil {
		return 10
	}
	return *c.MinScanPoints
}

// GetTrafficLightEnabled returns the traffic_light_enabled value or the default.
func (c *NavConfig) GetTrafficLightEnabled() bool {
	if c.TrafficLightEnabled == nil {
		return false
	}
	return *c.TrafficLightEnabled
}

// GetDebugPrintInterval returns the debug_print_interval value or the default.
func (c *NavConfig) GetDebugPrintInterval() int {
	if c.DebugPrintInterval == nil {
		return 10
	}
	return *c.DebugPrintInterval
}

func (c *NavConfig) GetLidarPort() string {
	if c.LidarPort == nil {
		return "/dev/ttyUSB0"
	}
	return *c.LidarPort
}

func (c *NavConfig) GetLidarBaud() int {
	if c.LidarBaud == nil {
		return 115200
	}
	return *c.LidarBaud
}

func (c *NavConfig) GetLidarMotorPWM() int {
	if c.LidarMotorPWM == nil {
		return 660
	}
	return *c.LidarMotorPWM
}

func (c *NavConfig) GetArduinoPort() string {
	if c.ArduinoPort == nil {
		return "/dev/ttyACM0"
	}
	return *c.ArduinoPort
}

// GetArduinoSerial returns the motor controller port options with defaults
// applied. Invalid options are returned as configured; Validate reports them.
func (c *NavConfig) GetArduinoSerial() serialmux.PortOptions {
	var opts serialmux.PortOptions
	if c.ArduinoSerial != nil {
		opts = *c.ArduinoSerial
	}
	if n, err := opts.Normalise(); err == nil {
		return n
	}
	return opts
}

// GetJournalPath returns the sqlite journal path. Empty disables the journal.
func (c *NavConfig) GetJournalPath() string {
	if c.JournalPath == nil {
		return ""
	}
	return *c.JournalPath
}

// GetRedisAddr returns the Redis address. Empty disables publishing.
func (c *NavConfig) GetRedisAddr() string {
	if c.RedisAddr == nil {
		return ""
	}
	return *c.RedisAddr
}

func (c *NavConfig) GetRedisChannel() string {
	if c.RedisChannel == nil || *c.RedisChannel == "" {
		return "nav:status"
	}
	return *c.RedisChannel
}

// GetPublishInterval parses and returns the PublishInterval as a time.Duration.
func (c *NavConfig) GetPublishInterval() time.Duration {
	if c.PublishInterval == nil || *c.PublishInterval == "" {
		return 200 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.PublishInterval)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond // default on parse error
	}
	return d
}

// GetListen returns the debug HTTP listen address. Empty disables it.
func (c *NavConfig) GetListen() string {
	if c.Listen == nil {
		return "localhost:8090"
	}
	return *c.Listen
}
