package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/yeti/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Servo IDs on the bus, in the order the setup expects them.
var servoIDs = map[robot.DeviceName]int{
	robot.ArmMotorName: 1,
	robot.WristServo:   2,
	robot.IntakeServo:  3,
}

var servoDevices = []robot.DeviceName{robot.ArmMotorName, robot.WristServo, robot.IntakeServo}

type SetupCommand struct {
	Interface   string `long:"can" default:"can0" description:"Default CAN interface offered in the prompt"`
	Calibration string `long:"calibration" value-name:"FILE" description:"Import servo calibration from a JSON file instead of recording it"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Yeti Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━"))
	fmt.Println()

	path := configPath()
	cfg := &robot.Config{}
	if robot.ConfigExists(path) {
		existing, err := robot.LoadConfigFrom(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		cfg = existing
		fmt.Printf("Updating existing configuration in %s\n\n", path)
	}

	// Step 1: Find the servo bus
	port, err := findServoBus()
	if err != nil {
		return err
	}
	cfg.Servos.Port = port
	cfg.Servos.BaudRate = robot.DefaultServoBaudRate

	// Step 2: Calibrate
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Servos ━━━"))
	fmt.Println()
	var cal robot.Calibration
	if c.Calibration != "" {
		cal, err = importCalibration(port, c.Calibration)
	} else {
		cal, err = calibrateServos(port)
	}
	if err != nil {
		return err
	}
	cfg.Servos.Calibration = cal

	// Save after calibration
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	// Step 3: Drive motor controller
	fmt.Println()
	iface := cfg.CAN.Interface
	if iface == "" {
		iface = c.Interface
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CAN interface").
				Description("SocketCAN interface of the drive motor controller").
				Value(&iface).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("interface is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	cfg.CAN.Interface = strings.TrimSpace(iface)

	// Save final config
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", path)
	fmt.Println()
	fmt.Println("Start the routine with: " + headerStyle.Render("yeti run"))

	return nil
}

// findServoBus returns the serial port carrying the arm, wrist and intake servos.
func findServoBus() (string, error) {
	fmt.Println("Scanning for the servo bus...")
	fmt.Println()

	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("list ports: %w", err)
	}

	var found []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		bus, _, err := connectToBus(port)
		if err != nil {
			continue
		}
		bus.Close()
		fmt.Printf("  Found servo bus on %s\n", port)
		found = append(found, port)
	}

	switch len(found) {
	case 0:
		fmt.Println("No servo bus found.")
		fmt.Println("Make sure the servos are connected and powered on.")
		return "", errors.New("no servo bus found")
	case 1:
		return found[0], nil
	}

	options := make([]huh.Option[string], 0, len(found))
	for _, port := range found {
		options = append(options, huh.NewOption(port, port))
	}
	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the robot?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port, nil
}

func connectToBus(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: robot.DefaultServoBaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, len(servoDevices))
	if err != nil {
		bus.Close()
		return nil, nil, err
	}

	if !isRobotBus(servos) {
		bus.Close()
		return nil, nil, fmt.Errorf("expected %d servos with IDs 1-%d", len(servoDevices), len(servoDevices))
	}

	return bus, servos, nil
}

func isRobotBus(servos []feetech.FoundServo) bool {
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for _, id := range servoIDs {
		if !ids[id] {
			return false
		}
	}
	return true
}

func calibrateServos(port string) (robot.Calibration, error) {
	fmt.Printf("Calibrating servos on %s\n", port)
	fmt.Println()

	bus, servos, err := connectToBus(port)
	if err != nil {
		return nil, fmt.Errorf("connect to servo bus: %w", err)
	}
	defer bus.Close()

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Disable all servos so the joints move freely
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move the arm, the wrist and the intake to both ends of their travel.")
	fmt.Println()

	curPositions := make(map[robot.DeviceName]int)
	minPositions := make(map[robot.DeviceName]int)
	maxPositions := make(map[robot.DeviceName]int)
	for _, name := range servoDevices {
		pos, err := servoMap[servoIDs[name]].Position(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		curPositions[name] = pos
		minPositions[name] = pos
		maxPositions[name] = pos
	}

	model := newCalibrationModel(servoMap, curPositions, minPositions, maxPositions)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("run calibration: %w", err)
	}
	cm := finalModel.(calibrationModel)

	calibration := make(robot.Calibration)
	for _, name := range servoDevices {
		calibration[name] = robot.ServoCalibration{
			ID:       servoIDs[name],
			RangeMin: cm.minPositions[name],
			RangeMax: cm.maxPositions[name],
		}
	}

	fmt.Println()
	fmt.Println("Servos calibrated.")
	return calibration, nil
}

// importCalibration loads a calibration file and checks it against the servos on the bus.
func importCalibration(port, file string) (robot.Calibration, error) {
	cal, err := robot.LoadCalibration(file)
	if err != nil {
		return nil, err
	}

	bus, servos, err := connectToBus(port)
	if err != nil {
		return nil, fmt.Errorf("connect to servo bus: %w", err)
	}
	defer bus.Close()

	for _, s := range servos {
		name, sc, ok := cal.ByID(s.ID)
		if !ok {
			fmt.Println(dimStyle.Render(fmt.Sprintf("  servo %d: not in %s", s.ID, file)))
			continue
		}
		fmt.Printf("  servo %d: %s [%d, %d]\n", s.ID, name, sc.RangeMin, sc.RangeMax)
	}

	probe := robot.ServoConfig{Calibration: cal}
	if !probe.IsCalibrated() {
		return nil, fmt.Errorf("%s lacks the arm, wrist or intake", file)
	}
	fmt.Println("Calibration imported.")
	return cal, nil
}

// Calibration TUI model
type calibrationModel struct {
	servoMap     map[int]*feetech.Servo
	curPositions map[robot.DeviceName]int
	minPositions map[robot.DeviceName]int
	maxPositions map[robot.DeviceName]int
	quitting     bool
}

type tickMsg time.Time

func newCalibrationModel(
	servoMap map[int]*feetech.Servo,
	curPositions, minPositions, maxPositions map[robot.DeviceName]int,
) calibrationModel {
	return calibrationModel{
		servoMap:     servoMap,
		curPositions: curPositions,
		minPositions: minPositions,
		maxPositions: maxPositions,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for _, name := range servoDevices {
			pos, err := m.servoMap[servoIDs[name]].Position(ctx)
			if err != nil {
				continue
			}
			m.curPositions[name] = pos
			if pos < m.minPositions[name] {
				m.minPositions[name] = pos
			}
			if pos > m.maxPositions[name] {
				m.maxPositions[name] = pos
			}
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableDeviceStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(servoDevices))
	ranges := make([]int, 0, len(servoDevices))
	for _, name := range servoDevices {
		rangeSize := m.maxPositions[name] - m.minPositions[name]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", servoIDs[name]),
			fmt.Sprintf("%d", m.curPositions[name]),
			fmt.Sprintf("%d", m.minPositions[name]),
			fmt.Sprintf("%d", m.maxPositions[name]),
			fmt.Sprintf("%d", rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Device", "ID", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableDeviceStyle
			case 2:
				return tableCurrentStyle
			case 5:
				if row >= 0 && row < len(ranges) && ranges[row] > 200 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))

	return sb.String()
}
