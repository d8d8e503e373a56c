package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"motionhal-go/errcode"
	"motionhal-go/hal/analog"
	"motionhal-go/hal/stepper"
	"motionhal-go/internal/status"
	"motionhal-go/persistence"

	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// sampleTimeout bounds each simulated conversion.
const sampleTimeout = time.Second

func openScript(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open script")
	}
	return f, nil
}

// runner executes a line-oriented script against a session. Lines are split
// shell-style; '#' starts a comment.
type runner struct {
	s   *session
	out io.Writer
	cmd map[string]command
}

type command struct {
	args  string
	nargs int // minimum
	fn    func(ctx context.Context, args []string) error
}

func newRunner(s *session, out io.Writer) *runner {
	r := &runner{s: s, out: out}
	r.cmd = map[string]command{
		"init":         {"", 0, r.initTable},
		"enable":       {"MOTOR", 1, r.enable},
		"disable":      {"", 0, r.disable},
		"dir":          {"MOTOR cw|ccw", 2, r.dir},
		"step":         {"MOTOR [COUNT]", 1, r.step},
		"microsteps":   {"MOTOR N", 2, r.microsteps},
		"stopped":      {"MOTOR", 1, r.stopped},
		"tick":         {"", 0, r.tick},
		"expect-state": {"MOTOR STATE", 2, r.expectState},
		"serial":       {"PORT BAUD TEXT...", 3, r.serial},
		"analog":       {"CHANNEL VOLTS", 2, r.analog},
		"write":        {"INDEX VALUE", 2, r.write},
		"read":         {"INDEX", 1, r.read},
		"status":       {"", 0, r.status},
		"expect-error": {"CODE COMMAND...", 2, r.expectError},
	}
	return r
}

// Run executes every line of in and stops at the first failure.
func (r *runner) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for n := 1; sc.Scan(); n++ {
		args, err := shlex.Split(sc.Text())
		if err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
		if len(args) == 0 {
			continue
		}
		if err := r.exec(ctx, args); err != nil {
			return errors.Wrapf(err, "line %d: %s", n, args[0])
		}
	}
	return errors.Wrap(sc.Err(), "read script")
}

func (r *runner) exec(ctx context.Context, args []string) error {
	c, ok := r.cmd[args[0]]
	if !ok {
		return errors.Errorf("unknown command %q", args[0])
	}
	if len(args)-1 < c.nargs {
		return errors.Errorf("usage: %s %s", args[0], c.args)
	}
	return c.fn(ctx, args[1:])
}

func (r *runner) motor(arg string) (int, stepper.Stepper, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "motor %q", arg)
	}
	m, err := r.s.reg.Motor(n - 1)
	return n - 1, m, err
}

func (r *runner) initTable(context.Context, []string) error { return r.s.reg.BoardStepperInit() }

func (r *runner) enable(_ context.Context, args []string) error {
	i, _, err := r.motor(args[0])
	if err != nil {
		return err
	}
	return r.s.reg.EnableMotor(i)
}

func (r *runner) disable(context.Context, []string) error {
	r.s.reg.DisableAll()
	return nil
}

func (r *runner) dir(_ context.Context, args []string) error {
	_, m, err := r.motor(args[0])
	if err != nil {
		return err
	}
	switch args[1] {
	case "cw":
		m.SetDirection(stepper.CW)
	case "ccw":
		m.SetDirection(stepper.CCW)
	default:
		return errcode.New(errcode.InvalidParams, "script.dir", args[1])
	}
	return nil
}

func (r *runner) step(_ context.Context, args []string) error {
	_, m, err := r.motor(args[0])
	if err != nil {
		return err
	}
	count := 1
	if len(args) > 1 {
		if count, err = strconv.Atoi(args[1]); err != nil {
			return errors.Wrap(err, "count")
		}
	}
	if !m.CanStep() {
		return errcode.New(errcode.Unsupported, "script.step", "motor has no step line")
	}
	for ; count > 0; count-- {
		m.StepStart()
		m.StepEnd()
	}
	return nil
}

func (r *runner) microsteps(_ context.Context, args []string) error {
	_, m, err := r.motor(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return errors.Wrap(err, "microsteps")
	}
	return m.SetMicrosteps(uint16(n))
}

func (r *runner) stopped(_ context.Context, args []string) error {
	_, m, err := r.motor(args[0])
	if err != nil {
		return err
	}
	m.MotionStopped()
	return nil
}

func (r *runner) tick(context.Context, []string) error {
	for _, m := range r.s.reg.Motors() {
		m.PeriodicCheck()
	}
	return nil
}

func (r *runner) expectState(_ context.Context, args []string) error {
	i, m, err := r.motor(args[0])
	if err != nil {
		return err
	}
	if got := m.State().String(); got != args[1] {
		return errors.Errorf("motor %d is %s, want %s", i+1, got, args[1])
	}
	return nil
}

func (r *runner) serial(ctx context.Context, args []string) error {
	p, ok := r.s.reg.Serial(args[0])
	if !ok {
		return errors.Wrapf(errcode.UnknownPeripheral, "serial %q", args[0])
	}
	baud, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return errors.Wrap(err, "baud")
	}
	if p.Baud() != uint32(baud) {
		if err := p.Init(uint32(baud)); err != nil {
			return err
		}
	}
	before, err := r.s.transmitted(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[2:], " ") + "\n"
	if _, err := p.WriteContext(ctx, []byte(text)); err != nil {
		return err
	}
	after, _ := r.s.transmitted(args[0])
	fmt.Fprintf(r.out, "%s @%d: sent %q\n", args[0], p.ActualBaud(), after[len(before):])
	return nil
}

func (r *runner) analog(ctx context.Context, args []string) error {
	ch, ok := r.s.reg.Analog(args[0])
	if !ok {
		return errors.Wrapf(errcode.InvalidChannel, "analog %q", args[0])
	}
	volts, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return errors.Wrap(err, "volts")
	}
	if ch.State() == analog.Uninitialised {
		if err := ch.Init(analog.Options{}); err != nil {
			return err
		}
	}
	r.s.setAnalog(ch.Spec().Number, volts)
	ctx, cancel := context.WithTimeout(ctx, sampleTimeout)
	defer cancel()
	raw, err := ch.Sample(ctx)
	if err != nil {
		return err
	}
	v, err := ch.Value()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s: raw %d, %s\n", args[0], raw, v)
	return nil
}

func (r *runner) write(ctx context.Context, args []string) error {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(err, "index")
	}
	v, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return errors.Wrap(err, "value")
	}
	return r.s.reg.WritePersistentValue(ctx, persistence.Entry{Index: idx, Value: float32(v)})
}

func (r *runner) read(ctx context.Context, args []string) error {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Wrap(err, "index")
	}
	e := persistence.Entry{Index: idx}
	if err := r.s.reg.ReadPersistentValue(ctx, &e); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "nvm[%d] = %g\n", e.Index, e.Value)
	return nil
}

func (r *runner) status(context.Context, []string) error {
	_, err := r.out.Write(status.Append(nil, r.s.reg))
	return err
}

// expectError runs the rest of the line and requires it to fail with CODE.
func (r *runner) expectError(ctx context.Context, args []string) error {
	want := errcode.Code(args[0])
	err := r.exec(ctx, args[1:])
	if err == nil {
		return errors.Errorf("%s succeeded, want %s", args[1], want)
	}
	if got := errcode.Of(err); got != want {
		return errors.Wrapf(err, "want %s, got %s", want, got)
	}
	return nil
}
