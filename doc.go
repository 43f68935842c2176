// Package yeti runs the 25 second autonomous routine of the competition robot.
//
// The routine scores a preloaded specimen on the high chamber, releases it,
// backs away from the submersible and holds the arm retracted until the
// period ends. It is a fixed table of time windows evaluated against the
// elapsed time of a control loop.
//
// # Installation
//
//	go install github.com/gwillem/yeti/cmd/yeti@latest
//
// # Usage
//
// First, run setup to find the servo bus, calibrate the servos and choose the
// CAN interface of the drive motor controller:
//
//	yeti setup
//
// Then run the routine, or try it against the simulated robot:
//
//	yeti run
//	yeti run --sim --no-wait --record runs.db
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/yeti: CLI with run, setup, plan and runs commands
//   - pkg/auto: Phase table, phase machine and command application
//   - pkg/opmode: Timed control loop that runs the phase table
//   - pkg/robot: Hardware interfaces, Feetech and CAN backends, simulator
//   - pkg/telemetry: Telemetry sinks and the SQLite run recorder
package yeti
