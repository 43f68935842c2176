package robot

import (
	"encoding/json"
	"os"
	"strconv"
)

const DefaultConfigFile = "yeti.json"

// Default bus settings.
const (
	DefaultServoBaudRate = 1_000_000
	DefaultFrameID       = 0x200
	// DefaultStepsPerTick maps arm encoder ticks onto a 4096 step servo turning
	// with the arm output.
	DefaultStepsPerTick = 4096 / (ArmTicksPerDegree * 360)
)

// Config holds the robot configuration
type Config struct {
	Sim    bool        `json:"sim,omitempty"`
	CAN    CANConfig   `json:"can"`
	Servos ServoConfig `json:"servos"`
}

// CANConfig holds the drive motor controller configuration
type CANConfig struct {
	Interface string `json:"interface"`
	FrameID   uint32 `json:"frame_id,omitempty"`
}

// ServoConfig holds the servo bus configuration
type ServoConfig struct {
	Port         string      `json:"port"`
	BaudRate     int         `json:"baud_rate,omitempty"`
	StepsPerTick float64     `json:"steps_per_tick,omitempty"`
	Calibration  Calibration `json:"calibration,omitempty"`
}

// IsCalibrated returns true if the arm, wrist and intake servos have calibration data
func (s *ServoConfig) IsCalibrated() bool {
	for _, name := range []DeviceName{ArmMotorName, WristServo, IntakeServo} {
		if _, ok := s.Calibration[name]; !ok {
			return false
		}
	}
	return true
}

// withDefaults fills zero values with defaults
func (c Config) withDefaults() Config {
	if c.CAN.FrameID == 0 {
		c.CAN.FrameID = DefaultFrameID
	}
	if c.Servos.BaudRate == 0 {
		c.Servos.BaudRate = DefaultServoBaudRate
	}
	if c.Servos.StepsPerTick == 0 {
		c.Servos.StepsPerTick = DefaultStepsPerTick
	}
	return c
}

// ApplyEnv overrides ports from YETI_CAN_IFACE, YETI_SERVO_PORT and YETI_SIM
func (c *Config) ApplyEnv() {
	if v := os.Getenv("YETI_CAN_IFACE"); v != "" {
		c.CAN.Interface = v
	}
	if v := os.Getenv("YETI_SERVO_PORT"); v != "" {
		c.Servos.Port = v
	}
	if v := os.Getenv("YETI_SIM"); v != "" {
		if sim, err := strconv.ParseBool(v); err == nil {
			c.Sim = sim
		}
	}
}

// LoadConfigFrom loads configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the config file at path exists
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
