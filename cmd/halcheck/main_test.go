package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"motionhal-go/errcode"
	"motionhal-go/hal/line"
	"motionhal-go/hal/stepper"

	"github.com/google/go-cmp/cmp"
)

// run executes halcheck with args and stdin, returning stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"halcheck"}, args...))
	return out.String(), err
}

func mustContain(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(out, p) {
			t.Errorf("output lacks %q:\n%s", p, out)
		}
	}
}

func TestBoards_ListsCatalogue(t *testing.T) {
	out, err := run(t, "", "boards")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "sbv300", "g2v9", "picocnc", "SAM3X8C", "RP2040")
}

func TestPins_G2v9(t *testing.T) {
	out, err := run(t, "", "--board", "g2v9", "pins")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "g2v9 (SAM3X8C)", "eeprom_sda", "PB12", "TWI1_SDA", "spindle_pwm")
}

func TestValidate_EveryBoard(t *testing.T) {
	for _, b := range []string{"sbv300", "g2v9", "picocnc"} {
		out, err := run(t, "", "-b", b, "validate")
		if err != nil {
			t.Fatalf("%s: %v", b, err)
		}
		mustContain(t, out, b+" ok:")
	}
}

func TestUnknownBoard(t *testing.T) {
	_, err := run(t, "", "--board", "due", "pins")
	if errcode.Of(err) != errcode.UnknownBoard {
		t.Fatalf("err=%v", err)
	}
}

func TestInit_PrintsDisabledMotors(t *testing.T) {
	out, err := run(t, "", "init")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "sbv300 motors", "in-cycle", "sbv300 armed=1 m1=off")
}

func TestInit_SettingsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motors.yaml")
	doc := "motors:\n  - socket: 2\n    power_mode: always\n    active_level: 0.6\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "", "--board", "g2v9", "--settings", path, "init")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "always")
}

func TestRun_Sbv300Script(t *testing.T) {
	script := `
# interlock holds until the table is initialised
expect-error interlock enable 1
init
enable 1
expect-state 1 running
dir 1 ccw
step 1 10
expect-error busy write 0 1
disable
expect-state 1 off
write 0 1.5
read 0
serial host 115200 "ok"
analog adc1 3.3
status
`
	out, err := run(t, script, "run", "-")
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	mustContain(t, out, "nvm[0] = 1.5", `sent "ok\n"`, "adc1: raw 4095", "nvm=1")
}

func TestRun_PicocncStore(t *testing.T) {
	script := "write 5 2.5\nread 5\nexpect-error out_of_range write 128 1\n"
	out, err := run(t, script, "-b", "picocnc", "run", "-")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "nvm[5] = 2.5")
}

func TestRun_ReportsFailingLine(t *testing.T) {
	_, err := run(t, "init\nbogus 1\n", "run", "-")
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err=%v", err)
	}
	if _, err := run(t, "", "run"); err == nil {
		t.Fatal("run without a script should fail")
	}
}

func TestParseSettings(t *testing.T) {
	base := []stepper.Settings{stepper.DefaultSettings(), stepper.DefaultSettings()}

	got, err := parseSettings(nil, base)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(base, got); diff != "" {
		t.Fatalf("empty document changed settings (-want +got):\n%s", diff)
	}

	got, err = parseSettings([]byte(`
motors:
  - socket: 1
    step_polarity: active-low
    enable_polarity: active-high
    microsteps: 16
    activity_timeout: 5s
`), base)
	if err != nil {
		t.Fatal(err)
	}
	want := base[0]
	want.StepPolarity = line.ActiveLow
	want.EnablePolarity = line.ActiveHigh
	want.Microsteps = 16
	want.ActivityTimeout = 5 * time.Second
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("socket 1 (-want +got):\n%s", diff)
	}
	if base[0].Microsteps != 8 {
		t.Fatal("base mutated")
	}

	tests := []struct {
		name string
		doc  string
		want errcode.Code
	}{
		{"socket past board", "motors: [{socket: 3}]", errcode.OutOfRange},
		{"socket zero", "motors: [{socket: 0}]", errcode.OutOfRange},
		{"duplicate", "motors: [{socket: 1}, {socket: 1}]", errcode.InvalidParams},
		{"unknown key", "motors: [{socket: 1, speed: 3}]", errcode.InvalidParams},
		{"bad polarity", "motors: [{socket: 1, step_polarity: low}]", errcode.InvalidParams},
		{"bad mode", "motors: [{socket: 2, power_mode: sometimes}]", errcode.InvalidParams},
		{"level", "motors: [{socket: 2, idle_level: 1.5}]", errcode.OutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseSettings([]byte(tc.doc), base)
			if errcode.Of(err) != tc.want {
				t.Fatalf("err=%v want %s", err, tc.want)
			}
		})
	}
}
