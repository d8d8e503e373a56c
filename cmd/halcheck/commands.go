package main

import (
	"fmt"
	"strings"

	"motionhal-go/hal"
	"motionhal-go/hal/stepper"
	"motionhal-go/internal/status"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func newTable(c *cli.Context, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	return t
}

func boardsAction(c *cli.Context) error {
	t := newTable(c, "", table.Row{"Board", "Chip", "Motors", "Roles"})
	for _, name := range hal.Boards() {
		b, _ := hal.LookupBoard(name)
		t.AppendRow(table.Row{b.Name, b.Chip, b.Motors, b.Pins.Len()})
	}
	t.Render()
	return nil
}

func pinsAction(c *cli.Context) error {
	b, err := lookupBoard(c)
	if err != nil {
		return err
	}
	t := newTable(c, b.Name+" ("+b.Chip+")", table.Row{"#", "Role", "Pad", "Shared", "Functions"})
	for _, e := range b.Pins.Entries() {
		funcs := make([]string, len(e.Funcs))
		for i, f := range e.Funcs {
			funcs[i] = string(f)
		}
		shared := ""
		if e.Shared {
			shared = "yes"
		}
		t.AppendRow(table.Row{int(e.Logical), e.Name, e.Physical.String(), shared, strings.Join(funcs, " ")})
	}
	t.Render()
	return nil
}

func validateAction(c *cli.Context) error {
	b, err := lookupBoard(c)
	if err != nil {
		return err
	}
	if err := b.Pins.Validate(); err != nil {
		return errors.Wrapf(err, "%s pin table", b.Name)
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s ok: %d roles, %d motors, serial %v, analog %v\n",
		b.Name, b.Pins.Len(), len(s.reg.Motors()), s.reg.SerialNames(), s.reg.AnalogNames())
	return nil
}

type laserTool interface{ LaserMode() stepper.LaserMode }

func initAction(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	if err := s.reg.BoardStepperInit(); err != nil {
		return errors.Wrap(err, "stepper init")
	}
	t := newTable(c, s.board.Name+" motors", table.Row{"Motor", "Kind", "State", "Mode", "Step", "Enable", "Level"})
	for i, m := range s.reg.Motors() {
		kind := "stepper"
		if _, ok := m.(laserTool); ok {
			kind = "laser"
		}
		set := s.board.Settings[i]
		t.AppendRow(table.Row{
			i + 1,
			kind,
			m.State(),
			set.PowerMode,
			m.StepPolarity(),
			m.EnablePolarity(),
			fmt.Sprintf("%.2f", m.PowerLevel()),
		})
	}
	t.Render()
	_, err = c.App.Writer.Write(status.Append(nil, s.reg))
	return err
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("run takes one script path, or - for stdin")
	}
	s, err := openSession(c)
	if err != nil {
		return err
	}
	in := c.App.Reader
	if path := c.Args().First(); path != "-" {
		f, err := openScript(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return newRunner(s, c.App.Writer).Run(c.Context, in)
}
