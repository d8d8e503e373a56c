package main

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"time"

	"motionhal-go/errcode"
	"motionhal-go/hal/line"
	"motionhal-go/hal/stepper"
	"motionhal-go/x/mathx"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// settingsFile is the --settings document. Only the fields present override
// the board's values.
//
//	motors:
//	  - socket: 1
//	    power_mode: always
//	    active_level: 0.6
//	    activity_timeout: 5s
type settingsFile struct {
	Motors []motorSettings `yaml:"motors"`
}

type motorSettings struct {
	Socket          int            `yaml:"socket"`
	StepPolarity    string         `yaml:"step_polarity"`
	EnablePolarity  string         `yaml:"enable_polarity"`
	PowerMode       string         `yaml:"power_mode"`
	ActiveLevel     *float32       `yaml:"active_level"`
	IdleLevel       *float32       `yaml:"idle_level"`
	Microsteps      *uint16        `yaml:"microsteps"`
	ActivityTimeout *time.Duration `yaml:"activity_timeout"`
}

func loadSettings(path string, base []stepper.Settings) ([]stepper.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read settings")
	}
	out, err := parseSettings(data, base)
	if err != nil {
		return nil, errors.Wrapf(err, "settings %s", path)
	}
	return out, nil
}

// parseSettings returns a copy of base with the document's overrides.
func parseSettings(data []byte, base []stepper.Settings) ([]stepper.Settings, error) {
	var doc settingsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errcode.Wrap(errcode.InvalidParams, "settings.decode", err)
	}

	out := append([]stepper.Settings(nil), base...)
	seen := map[int]bool{}
	for _, m := range doc.Motors {
		if m.Socket < 1 || m.Socket > len(out) {
			return nil, errcode.New(errcode.OutOfRange, "settings.socket",
				"socket "+strconv.Itoa(m.Socket)+" not on this board")
		}
		if seen[m.Socket] {
			return nil, errcode.New(errcode.InvalidParams, "settings.socket",
				"socket "+strconv.Itoa(m.Socket)+" listed twice")
		}
		seen[m.Socket] = true
		if err := m.apply(&out[m.Socket-1]); err != nil {
			return nil, errors.Wrapf(err, "socket %d", m.Socket)
		}
	}
	return out, nil
}

func (m motorSettings) apply(s *stepper.Settings) error {
	if m.StepPolarity != "" {
		p, ok := line.ParsePolarity(m.StepPolarity)
		if !ok {
			return errcode.New(errcode.InvalidParams, "settings.step_polarity", m.StepPolarity)
		}
		s.StepPolarity = p
	}
	if m.EnablePolarity != "" {
		p, ok := line.ParsePolarity(m.EnablePolarity)
		if !ok {
			return errcode.New(errcode.InvalidParams, "settings.enable_polarity", m.EnablePolarity)
		}
		s.EnablePolarity = p
	}
	if m.PowerMode != "" {
		pm, ok := stepper.ParsePowerMode(m.PowerMode)
		if !ok {
			return errcode.New(errcode.InvalidParams, "settings.power_mode", m.PowerMode)
		}
		s.PowerMode = pm
	}
	for _, lv := range []struct {
		src *float32
		dst *float32
		key string
	}{{m.ActiveLevel, &s.ActiveLevel, "active_level"}, {m.IdleLevel, &s.IdleLevel, "idle_level"}} {
		if lv.src == nil {
			continue
		}
		if !mathx.Between(*lv.src, 0, 1) {
			return errcode.New(errcode.OutOfRange, "settings."+lv.key, "level outside [0,1]")
		}
		*lv.dst = *lv.src
	}
	if m.Microsteps != nil {
		s.Microsteps = *m.Microsteps
	}
	if m.ActivityTimeout != nil {
		if *m.ActivityTimeout < 0 {
			return errcode.New(errcode.OutOfRange, "settings.activity_timeout", m.ActivityTimeout.String())
		}
		s.ActivityTimeout = *m.ActivityTimeout
	}
	return nil
}
