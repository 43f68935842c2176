package robot

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// Drive channels on the motor controller.
const (
	ChannelLeftFront = iota
	ChannelRightFront
	ChannelLeftBack
	ChannelRightBack
)

// FrameTransmitter sends a CAN frame.
type FrameTransmitter interface {
	TransmitFrame(ctx context.Context, frame can.Frame) error
}

// MotorController is a CAN motor controller with four drive channels and an
// auxiliary channel for the extension servo.
//
// Frames, all little-endian:
//
//	FrameID     drive power, 4 x int16 (power * 32767) in channel order
//	FrameID+1   extension power, 1 x int16
//	FrameID+2   brake mask, 1 byte, bit n set for drive channel n
type MotorController struct {
	tx      FrameTransmitter
	frameID uint32
	conn    net.Conn

	mu        sync.Mutex
	powers    [4]float64
	extension float64
	brake     uint8
}

// NewMotorController creates a controller on an existing transmitter.
func NewMotorController(tx FrameTransmitter, frameID uint32) *MotorController {
	return &MotorController{tx: tx, frameID: frameID}
}

// OpenMotorController dials the SocketCAN interface.
func OpenMotorController(ctx context.Context, cfg CANConfig) (*MotorController, error) {
	conn, err := socketcan.DialContext(ctx, "can", cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial: %w", err)
	}
	c := NewMotorController(socketcan.NewTransmitter(conn), cfg.FrameID)
	c.conn = conn
	return c, nil
}

// Close stops every channel and closes the socket.
func (c *MotorController) Close() error {
	c.mu.Lock()
	c.powers = [4]float64{}
	c.extension = 0
	c.mu.Unlock()

	ctx := context.Background()
	_ = c.tx.TransmitFrame(ctx, c.driveFrame())
	_ = c.tx.TransmitFrame(ctx, c.extensionFrame())

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Motor returns the drive motor on channel ch.
func (c *MotorController) Motor(ch int) *CANMotor {
	return &CANMotor{ctrl: c, ch: ch}
}

// Extension returns the extension servo output.
func (c *MotorController) Extension() *CANExtension {
	return &CANExtension{ctrl: c}
}

func (c *MotorController) setPower(ctx context.Context, ch int, power float64) error {
	c.mu.Lock()
	c.powers[ch] = power
	frame := c.driveFrame()
	c.mu.Unlock()
	if err := c.tx.TransmitFrame(ctx, frame); err != nil {
		return fmt.Errorf("transmit drive frame: %w", err)
	}
	return nil
}

func (c *MotorController) setBrake(ctx context.Context, ch int, on bool) error {
	c.mu.Lock()
	if on {
		c.brake |= 1 << ch
	} else {
		c.brake &^= 1 << ch
	}
	frame := can.Frame{ID: c.frameID + 2, Length: 1}
	frame.Data[0] = c.brake
	c.mu.Unlock()
	if err := c.tx.TransmitFrame(ctx, frame); err != nil {
		return fmt.Errorf("transmit brake frame: %w", err)
	}
	return nil
}

func (c *MotorController) setExtension(ctx context.Context, power float64) error {
	c.mu.Lock()
	c.extension = power
	frame := c.extensionFrame()
	c.mu.Unlock()
	if err := c.tx.TransmitFrame(ctx, frame); err != nil {
		return fmt.Errorf("transmit extension frame: %w", err)
	}
	return nil
}

func (c *MotorController) driveFrame() can.Frame {
	frame := can.Frame{ID: c.frameID, Length: 8}
	for i, p := range c.powers {
		binary.LittleEndian.PutUint16(frame.Data[2*i:], uint16(encodePower(p)))
	}
	return frame
}

func (c *MotorController) extensionFrame() can.Frame {
	frame := can.Frame{ID: c.frameID + 1, Length: 2}
	binary.LittleEndian.PutUint16(frame.Data[:], uint16(encodePower(c.extension)))
	return frame
}

func encodePower(p float64) int16 {
	return int16(math.Round(clamp(p, -1, 1) * math.MaxInt16))
}

// DecodePower converts a raw channel value back to a power in [-1, 1].
func DecodePower(raw int16) float64 {
	return float64(raw) / math.MaxInt16
}

// CANMotor is one drive channel of a MotorController.
type CANMotor struct {
	ctrl *MotorController
	ch   int
}

// SetPower sets the channel power.
func (m *CANMotor) SetPower(ctx context.Context, power float64) error {
	return m.ctrl.setPower(ctx, m.ch, power)
}

// SetZeroPowerBehavior sets the channel brake bit.
func (m *CANMotor) SetZeroPowerBehavior(ctx context.Context, b ZeroPowerBehavior) error {
	return m.ctrl.setBrake(ctx, m.ch, b == ZeroPowerBrake)
}

// CANExtension is the extension servo output of a MotorController.
type CANExtension struct {
	ctrl *MotorController
}

// SetPower sets the extension power.
func (e *CANExtension) SetPower(ctx context.Context, power float64) error {
	return e.ctrl.setExtension(ctx, power)
}

// simpleMotor hides a motor's brake support.
type simpleMotor struct {
	m Motor
}

func (s simpleMotor) SetPower(ctx context.Context, power float64) error {
	return s.m.SetPower(ctx, power)
}
