package robot

import (
	"math"
	"testing"
)

func TestServoCalibration_Normalize(t *testing.T) {
	cal := ServoCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		raw      int
		expected float64
	}{
		{1000, 0.0},  // min -> 0
		{3000, 1.0},  // max -> 1
		{2000, 0.5},  // mid
		{1500, 0.25}, // quarter
		{2500, 0.75}, // three-quarter
	}

	for _, tt := range tests {
		got := cal.Normalize(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Normalize(%d) = %f, want %f", tt.raw, got, tt.expected)
		}
	}
}

func TestServoCalibration_Denormalize(t *testing.T) {
	cal := ServoCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		pos      float64
		expected int
	}{
		{0.0, 1000},
		{1.0, 3000},
		{0.5, 2000},
		{0.85, 2700},
		{0.7175, 2435},
		{-0.5, 1000}, // clamped
		{1.5, 3000},  // clamped
	}

	for _, tt := range tests {
		got := cal.Denormalize(tt.pos)
		if got != tt.expected {
			t.Errorf("Denormalize(%f) = %d, want %d", tt.pos, got, tt.expected)
		}
	}
}

func TestServoCalibration_Inverted(t *testing.T) {
	cal := ServoCalibration{
		DriveMode: 1,
		RangeMin:  1000,
		RangeMax:  3000,
	}

	if got := cal.Denormalize(1.0); got != 1000 {
		t.Errorf("Denormalize(1.0) = %d, want 1000", got)
	}
	if got := cal.Normalize(1000); math.Abs(got-1.0) > 0.001 {
		t.Errorf("Normalize(1000) = %f, want 1.0", got)
	}
}

func TestServoCalibration_RoundTrip(t *testing.T) {
	cal := ServoCalibration{
		RangeMin: 823,
		RangeMax: 3540,
	}

	for raw := cal.RangeMin; raw <= cal.RangeMax; raw += 100 {
		pos := cal.Normalize(raw)
		back := cal.Denormalize(pos)
		if math.Abs(float64(back-raw)) > 1 {
			t.Errorf("Round-trip failed: %d -> %f -> %d", raw, pos, back)
		}
	}
}

func TestCalibration_IDs(t *testing.T) {
	cal := Calibration{
		IntakeServo:  ServoCalibration{ID: 3},
		ArmMotorName: ServoCalibration{ID: 1},
		WristServo:   ServoCalibration{ID: 2},
	}

	ids := cal.IDs()
	expected := []int{1, 2, 3}

	if len(ids) != len(expected) {
		t.Fatalf("IDs returned %d IDs, want %d", len(ids), len(expected))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("IDs()[%d] = %d, want %d", i, id, expected[i])
		}
	}
}

func TestCalibration_ByID(t *testing.T) {
	cal := Calibration{
		WristServo:  ServoCalibration{ID: 2, RangeMin: 100, RangeMax: 200},
		IntakeServo: ServoCalibration{ID: 3, RangeMin: 300, RangeMax: 400},
	}

	name, sc, ok := cal.ByID(2)
	if !ok {
		t.Fatal("ByID(2) returned false")
	}
	if name != WristServo {
		t.Errorf("ByID(2) returned name %s, want wrist", name)
	}
	if sc.RangeMin != 100 {
		t.Errorf("ByID(2) returned wrong calibration: %+v", sc)
	}

	_, _, ok = cal.ByID(99)
	if ok {
		t.Error("ByID(99) should return false")
	}
}
