package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/gwillem/yeti/pkg/robot"
)

type Options struct {
	Config string `short:"c" long:"config" description:"Robot configuration file (default: yeti.json)"`

	Run   RunCommand   `command:"run" alias:"auto" description:"Run the autonomous routine"`
	Setup SetupCommand `command:"setup" description:"Find the servo bus, calibrate the servos and pick the CAN interface"`
	Plan  PlanCommand  `command:"plan" description:"Show the phase table of the autonomous routine"`
	Runs  RunsCommand  `command:"runs" description:"List recorded runs"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Yeti - 25 second autonomous routine for the competition robot"

	// A missing .env is fine; it only overrides ports.
	_ = godotenv.Load()

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

func configPath() string {
	if opts.Config != "" {
		return opts.Config
	}
	return robot.DefaultConfigFile
}

// loadConfig reads the configuration file and applies environment overrides.
func loadConfig() (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(configPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}
