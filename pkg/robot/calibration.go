package robot

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServoCalibration holds calibration data for a single bus servo.
type ServoCalibration struct {
	ID           int `json:"id"`
	DriveMode    int `json:"drive_mode"`
	HomingOffset int `json:"homing_offset"`
	RangeMin     int `json:"range_min"`
	RangeMax     int `json:"range_max"`
}

// Calibration holds calibration data for the bus servos, keyed by device name.
type Calibration map[DeviceName]ServoCalibration

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var raw map[string]ServoCalibration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}

	cal := make(Calibration, len(raw))
	for name, sc := range raw {
		cal[DeviceName(name)] = sc
	}
	return cal, nil
}

// Inverted reports whether the servo turns against the calibrated range.
func (c ServoCalibration) Inverted() bool {
	return c.DriveMode == 1
}

// Normalize converts a raw servo position to a position in the range [0, 1].
func (c ServoCalibration) Normalize(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	pos := float64(raw-c.RangeMin) / rangeSize
	if c.Inverted() {
		pos = 1 - pos
	}
	return pos
}

// Denormalize converts a position in [0, 1] to a raw servo position.
// Positions outside the range are clamped.
func (c ServoCalibration) Denormalize(pos float64) int {
	pos = clamp(pos, 0, 1)
	if c.Inverted() {
		pos = 1 - pos
	}
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int(pos*rangeSize+0.5) + c.RangeMin
}

// IDs returns the servo IDs in device order.
func (c Calibration) IDs() []int {
	ids := make([]int, 0, len(c))
	for _, name := range AllDevices() {
		if sc, ok := c[name]; ok {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}

// ByID returns device name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (DeviceName, ServoCalibration, bool) {
	for name, sc := range c {
		if sc.ID == id {
			return name, sc, true
		}
	}
	return "", ServoCalibration{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
