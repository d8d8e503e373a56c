package main

import (
	"io"
	"strconv"
	"strings"

	"motionhal-go/errcode"
	"motionhal-go/hal"
	"motionhal-go/hal/chip/rp2"
	"motionhal-go/hal/chip/sam3x"
	"motionhal-go/hal/eeprom"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// session is one wired board on a simulator. Exactly one of sam and rp is
// set.
type session struct {
	board hal.Board
	reg   *hal.Registry
	sam   *sam3x.Sim
	rp    *rp2.Sim
	log   *zap.SugaredLogger
}

func newLogger(w io.Writer, verbose bool) *zap.SugaredLogger {
	level := zapcore.WarnLevel
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if verbose {
		level = zapcore.DebugLevel
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level)).Sugar()
}

// lookupBoard resolves --board and applies --settings.
func lookupBoard(c *cli.Context) (hal.Board, error) {
	name := c.String(flagBoard)
	b, ok := hal.LookupBoard(name)
	if !ok {
		return hal.Board{}, errors.Wrapf(errcode.UnknownBoard, "board %q (known: %s)",
			name, strings.Join(hal.Boards(), ", "))
	}
	if path := c.Path(flagSettings); path != "" {
		set, err := loadSettings(path, b.Settings)
		if err != nil {
			return hal.Board{}, err
		}
		b.Settings = set
	}
	return b, nil
}

func openSession(c *cli.Context) (*session, error) {
	b, err := lookupBoard(c)
	if err != nil {
		return nil, err
	}
	s := &session{board: b, log: newLogger(c.App.ErrWriter, c.Bool(flagVerbose))}
	opts := []hal.Option{hal.WithLogger(s.log)}
	switch {
	case strings.HasPrefix(b.Chip, "SAM3X"):
		s.sam = sam3x.NewSim()
		opts = append(opts, hal.WithBus(s.sam))
	case b.Chip == "RP2040":
		s.rp = rp2.NewSim()
		opts = append(opts, hal.WithChip(s.rp))
	default:
		return nil, errors.Errorf("no simulator for chip %s", b.Chip)
	}
	r, err := hal.New(b, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "wire %s", b.Name)
	}
	s.reg = r
	s.attachDevices()
	s.log.Debugw("board wired", "board", b.Name, "chip", b.Chip, "motors", len(r.Motors()))
	return s, nil
}

// attachDevices routes simulated interrupts and puts a blank EEPROM on
// whichever I2C block the board gave to its store.
func (s *session) attachDevices() {
	if s.sam != nil {
		s.sam.AttachAll(s.reg)
		for i, blk := range sam3x.TWIs {
			if owner, _ := s.reg.PeripheralOwner(blk.Name); owner == "eeprom" {
				s.sam.AttachI2C(sam3x.I2C(i), eeprom.NewFake(eeprom.DefaultSize, eeprom.DefaultPageSize))
			}
		}
		return
	}
	for i := 0; i < 2; i++ {
		if owner, _ := s.reg.PeripheralOwner("I2C"+strconv.Itoa(i)); owner == "eeprom" {
			s.rp.AttachI2C(i, eeprom.NewFake(eeprom.DefaultSize, eeprom.DefaultPageSize))
		}
	}
}

// transmitted returns what the named port has put on the wire.
func (s *session) transmitted(port string) ([]byte, error) {
	if s.sam != nil {
		for i, blk := range sam3x.Serials {
			if owner, _ := s.reg.PeripheralOwner(blk.Name); owner == port {
				return s.sam.Transmitted(sam3x.Serial(i)), nil
			}
		}
	} else {
		for _, blk := range rp2.UARTs {
			if owner, _ := s.reg.PeripheralOwner(blk.Name); owner == port {
				return s.rp.Transmitted(blk.Index), nil
			}
		}
	}
	return nil, errors.Wrapf(errcode.UnknownPeripheral, "serial %q", port)
}

// setAnalog drives a converter input.
func (s *session) setAnalog(ch int, volts float64) {
	if s.sam != nil {
		s.sam.SetAnalog(ch, volts)
		return
	}
	s.rp.SetAnalog(ch, volts)
}
