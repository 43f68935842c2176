// Package robot provides the hardware abstraction for the competition robot.
package robot

// DeviceName identifies a named hardware port on the robot.
type DeviceName string

// Device names as bound on the control hub.
const (
	LeftFrontDrive  DeviceName = "leftFDrive"
	RightFrontDrive DeviceName = "rightFDrive"
	LeftBackDrive   DeviceName = "leftBDrive"
	RightBackDrive  DeviceName = "rightBDrive"
	ArmMotorName    DeviceName = "armMotor"
	WristServo      DeviceName = "wrist"
	IntakeServo     DeviceName = "intake"
	ExtensionServo  DeviceName = "extendo"
)

// AllDevices returns all device names in wiring order.
func AllDevices() []DeviceName {
	return []DeviceName{
		LeftFrontDrive,
		RightFrontDrive,
		LeftBackDrive,
		RightBackDrive,
		ArmMotorName,
		WristServo,
		IntakeServo,
		ExtensionServo,
	}
}

// ArmTicksPerDegree is the number of arm encoder ticks per degree of arm rotation:
// a 28 count encoder behind a 250047/4913 planetary and an external 20T:100T reduction.
const ArmTicksPerDegree = 28 * 250047.0 / 4913.0 * 100.0 / 20.0 / 360.0

// Arm setpoints, in encoder ticks relative to the position at startup.
// The arm must be collapsed into the robot when the encoder is reset.
const (
	ArmCollapsed      float64 = 0
	ArmCollect        float64 = 0
	ArmClearBarrier   float64 = -20 * ArmTicksPerDegree
	ArmScoreSpecimen  float64 = -66 * ArmTicksPerDegree
	ArmScoreSampleLow float64 = -105 * ArmTicksPerDegree
	ArmAttachHook     float64 = -136 * ArmTicksPerDegree
	ArmWinch          float64 = -15 * ArmTicksPerDegree
	ArmRetracted      float64 = -10 * ArmTicksPerDegree
	ArmFudge          float64 = 17 * ArmTicksPerDegree
)

// Servo and motor setpoints.
const (
	IntakeClamp = 1.0
	IntakeOpen  = 0.85

	WristFoldedIn  = 1.0
	WristFoldedOut = 0.7175

	// ArmVelocity is the run-to-position velocity in ticks per second.
	ArmVelocity = 2100.0
	// ArmCurrentAlert is the arm current in amps above which the hub raises an alert.
	ArmCurrentAlert = 5.0
)

// ArmTicks truncates a setpoint to whole encoder ticks, rounding toward zero.
func ArmTicks(setpoint float64) int {
	return int(setpoint)
}
