package robot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.CAN.FrameID != DefaultFrameID {
		t.Errorf("FrameID = %#x, want %#x", cfg.CAN.FrameID, DefaultFrameID)
	}
	if cfg.Servos.BaudRate != DefaultServoBaudRate {
		t.Errorf("BaudRate = %d, want %d", cfg.Servos.BaudRate, DefaultServoBaudRate)
	}
	// One arm revolution spans the full 4096 step servo turn.
	if got := cfg.Servos.StepsPerTick * ArmTicksPerDegree * 360; got < 4095.999 || got > 4096.001 {
		t.Errorf("steps per arm revolution = %f, want 4096", got)
	}

	custom := Config{CAN: CANConfig{FrameID: 0x300}}.withDefaults()
	if custom.CAN.FrameID != 0x300 {
		t.Errorf("FrameID = %#x, want 0x300 kept", custom.CAN.FrameID)
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("YETI_CAN_IFACE", "vcan0")
	t.Setenv("YETI_SERVO_PORT", "/dev/ttyUSB1")
	t.Setenv("YETI_SIM", "true")

	cfg := Config{CAN: CANConfig{Interface: "can0"}, Servos: ServoConfig{Port: "/dev/ttyUSB0"}}
	cfg.ApplyEnv()

	if cfg.CAN.Interface != "vcan0" {
		t.Errorf("Interface = %q, want vcan0", cfg.CAN.Interface)
	}
	if cfg.Servos.Port != "/dev/ttyUSB1" {
		t.Errorf("Port = %q, want /dev/ttyUSB1", cfg.Servos.Port)
	}
	if !cfg.Sim {
		t.Error("Sim = false, want true")
	}
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yeti.json")
	if ConfigExists(path) {
		t.Fatal("ConfigExists before save")
	}

	cfg := &Config{
		CAN: CANConfig{Interface: "can0"},
		Servos: ServoConfig{
			Port: "/dev/ttyACM0",
			Calibration: Calibration{
				ArmMotorName: {ID: 1, RangeMin: 0, RangeMax: 4095},
				WristServo:   {ID: 2, RangeMin: 1000, RangeMax: 3000},
				IntakeServo:  {ID: 3, DriveMode: 1, RangeMin: 1200, RangeMax: 2800},
			},
		},
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if !ConfigExists(path) {
		t.Fatal("ConfigExists after save = false")
	}

	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if loaded.CAN.Interface != "can0" || loaded.Servos.Port != "/dev/ttyACM0" {
		t.Errorf("loaded ports = %q, %q", loaded.CAN.Interface, loaded.Servos.Port)
	}
	if !loaded.Servos.IsCalibrated() {
		t.Error("IsCalibrated() = false after load")
	}
	if !loaded.Servos.Calibration[IntakeServo].Inverted() {
		t.Error("intake drive mode lost")
	}
}

func TestIsCalibrated(t *testing.T) {
	s := ServoConfig{Calibration: Calibration{ArmMotorName: {ID: 1}, WristServo: {ID: 2}}}
	if s.IsCalibrated() {
		t.Error("IsCalibrated() = true without intake")
	}
}

func TestLoadCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	data := `{"armMotor":{"id":1,"range_min":0,"range_max":4095},"wrist":{"id":2,"drive_mode":1,"range_min":900,"range_max":3100}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cal, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if len(cal) != 2 {
		t.Fatalf("len = %d, want 2", len(cal))
	}
	if w := cal[WristServo]; w.ID != 2 || !w.Inverted() || w.RangeMax != 3100 {
		t.Errorf("wrist = %+v", w)
	}

	if _, err := LoadCalibration(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadCalibration(missing) = nil error")
	}
}
