// Command halcheck prints board pin tables and drives board wiring against
// the chip simulators.
package main

import (
	"fmt"
	"os"

	_ "motionhal-go/boards/g2v9"
	_ "motionhal-go/boards/picocnc"
	_ "motionhal-go/boards/sbv300"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagBoard    = "board"
	flagSettings = "settings"
	flagVerbose  = "verbose"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "halcheck:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "halcheck",
		Usage: "inspect and simulate motion controller boards",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagBoard,
				Aliases: []string{"b"},
				Value:   "sbv300",
				EnvVars: []string{"HALCHECK_BOARD"},
				Usage:   "board `NAME`",
			},
			&cli.PathFlag{
				Name:  flagSettings,
				Usage: "YAML `FILE` overriding per-socket motor settings",
			},
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "log wiring and init at debug level",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "boards",
				Usage:  "list known boards",
				Action: boardsAction,
			},
			{
				Name:   "pins",
				Usage:  "print the board's pin identity table",
				Action: pinsAction,
			},
			{
				Name:   "validate",
				Usage:  "audit the pin table and wire the board",
				Action: validateAction,
			},
			{
				Name:   "init",
				Usage:  "wire the board and bring every motor to disabled",
				Action: initAction,
			},
			{
				Name:      "run",
				Usage:     "run a simulation script against the wired board",
				ArgsUsage: "SCRIPT|-",
				Action:    runAction,
			},
		},
	}
}
