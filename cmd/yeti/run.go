package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/yeti/pkg/auto"
	"github.com/gwillem/yeti/pkg/opmode"
	"github.com/gwillem/yeti/pkg/robot"
	"github.com/gwillem/yeti/pkg/telemetry"
)

type RunCommand struct {
	Hz       int    `long:"hz" default:"50" description:"Control loop frequency"`
	Sim      bool   `long:"sim" description:"Run against the simulated robot"`
	NoWait   bool   `long:"no-wait" description:"Start immediately instead of asking for confirmation"`
	Headless bool   `long:"headless" description:"Print logs and telemetry instead of the dashboard"`
	Trigger  string `long:"trigger" default:"level" choice:"level" choice:"edge" description:"Issue phase commands every tick (level) or once on entry (edge)"`
	Record   string `long:"record" value-name:"PATH" description:"Record telemetry to a SQLite database"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

const (
	seriesTarget  = "target"
	seriesCurrent = "current"
)

var seriesColors = map[string]string{
	seriesTarget:  "208", // orange
	seriesCurrent: "51",  // cyan
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	phaseStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type runModel struct {
	runner   *opmode.Runner
	runDone  <-chan struct{}
	chart    *streamlinechart.Model
	width    int // terminal width
	height   int // terminal height
	logs     []string
	state    opmode.State
	done     bool
	quitting bool
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the runner
type stateMsg opmode.State
type logMsg string
type doneMsg struct{}

func waitForState(r *opmode.Runner) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-r.States())
	}
}

func waitForLog(r *opmode.Runner) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-r.Logs())
	}
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return doneMsg{}
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func initialRunModel(r *opmode.Runner, done <-chan struct{}) runModel {
	// Arm setpoints run from the stowed zero down to the hook position.
	lo := float64(robot.ArmTicks(robot.ArmAttachHook)) - 100
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(lo, 100),
	)
	for name, color := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return runModel{
		runner:  r,
		runDone: done,
		chart:   &chart,
	}
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.chartSize()
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		m.state = opmode.State(msg)
		m.chart.PushDataSet(seriesTarget, float64(m.state.ArmTarget))
		m.chart.PushDataSet(seriesCurrent, float64(m.state.ArmCurrent))
		m.chart.DrawAll()
		return m, waitForState(m.runner)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.runner)

	case doneMsg:
		m.done = true
		return m, nil
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Autonomous stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Yeti Autonomous"))
	sb.WriteString(fmt.Sprintf(" - %d Hz  ", m.runner.Hz()))
	if m.state.Phase != "" {
		sb.WriteString(phaseStyle.Render(string(m.state.Phase)))
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  %5.2fs / %.0fs  intake %.2f",
			m.state.Elapsed, m.runner.Sequence().Duration, m.state.Intake)))
	}
	if m.state.OverCurrent {
		sb.WriteString(alertStyle.Render("  ARM OVER CURRENT"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend(m.state))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	lines := append([]string(nil), m.logs...)
	switch {
	case m.done:
		lines = append(lines, statusStyle.Render("Done. Press 'q' to quit"))
	case len(lines) == 0:
		lines = append(lines, statusStyle.Render("Press 'q' to stop"))
	}
	sb.WriteString(logStyle.Render(strings.Join(lines, "\n")))
	sb.WriteString("\n")

	return sb.String()
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.runner),
		waitForLog(m.runner),
		waitForDone(m.runDone),
	)
}

func renderLegend(s opmode.State) string {
	values := map[string]int{seriesTarget: s.ArmTarget, seriesCurrent: s.ArmCurrent}
	var items []string
	for _, name := range []string{seriesTarget, seriesCurrent} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+fmt.Sprintf(" arm %s %d", name, values[name]))
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	switch {
	case err == nil:
	case c.Sim:
		cfg = &robot.Config{}
	default:
		fmt.Fprintf(os.Stderr, "No configuration found in %s. Run 'yeti setup' first, or use --sim.\n", configPath())
		os.Exit(1)
	}
	if c.Sim {
		cfg.Sim = true
	}
	if !cfg.Sim && !cfg.Servos.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Servos not calibrated. Run 'yeti setup' first.")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	hw, err := robot.Open(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("open hardware: %w", err)
	}
	defer hw.Close()

	var sinks []telemetry.Sink
	if c.Headless {
		sinks = append(sinks, telemetry.NewLineSink(os.Stdout))
	}
	if c.Record != "" {
		store, err := telemetry.OpenStore(c.Record)
		if err != nil {
			return err
		}
		defer store.Close()

		label := "robot"
		if cfg.Sim {
			label = "sim"
		}
		rec, err := store.NewRecorder(ctx, label)
		if err != nil {
			return err
		}
		sinks = append(sinks, rec)
		fmt.Printf("Recording run %s to %s\n", rec.RunID(), c.Record)
	}

	trigger, err := auto.ParseTrigger(c.Trigger)
	if err != nil {
		return err
	}

	runner, err := opmode.NewRunner(hw, opmode.Config{
		Hz:      c.Hz,
		Trigger: trigger,
		Sink:    telemetry.Multi(sinks...),
	})
	if err != nil {
		return err
	}

	start := make(chan struct{})
	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		runErr = runner.Run(ctx, start)
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}
	}()

	select {
	case <-runner.Ready():
	case <-done:
		return runErr
	}

	if !c.NoWait {
		confirmed := true
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Robot ready. Start autonomous?").
					Affirmative("Start").
					Negative("Abort").
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil || !confirmed {
			cancel()
			<-done
			return runErr
		}
	}
	close(start)

	if c.Headless {
		runHeadless(runner, done)
		return runErr
	}

	p := tea.NewProgram(initialRunModel(runner, done), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	cancel()
	<-done
	return runErr
}

func runHeadless(r *opmode.Runner, done <-chan struct{}) {
	log.SetFlags(0)
	for {
		select {
		case msg := <-r.Logs():
			log.Println(msg)
		case <-r.States():
		case <-done:
			for {
				select {
				case msg := <-r.Logs():
					log.Println(msg)
				default:
					return
				}
			}
		}
	}
}
