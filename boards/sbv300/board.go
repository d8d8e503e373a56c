// Package sbv300 describes the SBv3.00 controller: a SAM3X8E with five
// step/dir sockets and a sixth that carries either a stepper or a laser
// tool, eighteen inputs, eighteen outputs and four analog inputs.
package sbv300

import (
	"motionhal-go/boards/internal/sam3xwire"
	"motionhal-go/errcode"
	"motionhal-go/hal"
	"motionhal-go/hal/chip/sam3x"
	"motionhal-go/hal/line"
	"motionhal-go/hal/pins"
	"motionhal-go/hal/stepper"
	"motionhal-go/persistence"
)

const Name = "sbv300"

// Motors is the socket count.
const Motors = 6

// Host serial runs on USART0; the debug UART stays free for a console.
const HostBaud = 115200

// Settings stores 64 values in RAM. The board has no EEPROM because both
// TWI blocks share pads with inputs and analog channels.
const (
	StoreSize  = 256
	StoreCount = 64
)

// Logical pins.
const (
	Socket1Step pins.Logical = iota + 1
	Socket1Dir
	Socket2Step
	Socket2Dir
	Socket3Step
	Socket3Dir
	Socket4Step
	Socket4Dir
	Socket5Step
	Socket5Dir
	Socket6Step
	Socket6Dir

	Input1
	Input2
	Input3
	Input4
	Input5
	Input6
	Input7
	Input8
	Input9
	Input10
	Input11
	Input12
	Input13
	Input14
	Input15
	Input16
	Input17
	Input18

	Output1
	Output2
	Output3
	Output4
	Output5
	Output6
	Output7
	Output8
	Output9
	Output10
	Output11
	Output12
	Output13
	Output14
	Output15
	Output16
	Output17
	Output18

	ADC1
	ADC2
	ADC3
	ADC4

	HostRX
	HostTX
	LEDIndicator
	LEDDebug1
	LEDDebug2
	LEDDebug3
	LEDRX
	LEDTX

	LaserEnable
	LaserFire
	SpindlePWM
	SpeedMultiplier
	GlobalEnable
)

// roles is indexed by pad. Outputs 14 to 18 double as tool signals.
var roles = [sam3x.NumPins8E]pins.Role{
	sam3x.PC28: {Logical: Socket1Step, Name: "socket1_step"},
	sam3x.PB23: {Logical: Socket1Dir, Name: "socket1_dir"},
	sam3x.PC25: {Logical: Socket2Step, Name: "socket2_step"},
	sam3x.PB24: {Logical: Socket2Dir, Name: "socket2_dir"},
	sam3x.PC26: {Logical: Socket3Step, Name: "socket3_step"},
	sam3x.PB14: {Logical: Socket3Dir, Name: "socket3_dir"},
	sam3x.PC23: {Logical: Socket4Step, Name: "socket4_step"},
	sam3x.PB22: {Logical: Socket4Dir, Name: "socket4_dir"},
	sam3x.PC24: {Logical: Socket5Step, Name: "socket5_step"},
	sam3x.PC27: {Logical: Socket5Dir, Name: "socket5_dir"},
	sam3x.PB1:  {Logical: Socket6Step, Name: "socket6_step"},
	sam3x.PB0:  {Logical: Socket6Dir, Name: "socket6_dir"},

	sam3x.PB4:  {Logical: Input1, Name: "input1"},
	sam3x.PB5:  {Logical: Input2, Name: "input2"},
	sam3x.PC10: {Logical: Input3, Name: "input3"},
	sam3x.PB3:  {Logical: Input4, Name: "input4"},
	sam3x.PB8:  {Logical: Input5, Name: "input5"},
	sam3x.PB9:  {Logical: Input6, Name: "input6"},
	sam3x.PB6:  {Logical: Input7, Name: "input7"},
	sam3x.PB7:  {Logical: Input8, Name: "input8"},
	sam3x.PD2:  {Logical: Input9, Name: "input9"},
	sam3x.PC20: {Logical: Input10, Name: "input10"},
	sam3x.PD1:  {Logical: Input11, Name: "input11"},
	sam3x.PA17: {Logical: Input12, Name: "input12"},
	sam3x.PD0:  {Logical: Input13, Name: "input13"},
	sam3x.PB26: {Logical: Input14, Name: "input14"},
	sam3x.PB2:  {Logical: Input15, Name: "input15"},
	sam3x.PC4:  {Logical: Input16, Name: "input16"},
	sam3x.PC14: {Logical: Input17, Name: "input17"},
	sam3x.PC15: {Logical: Input18, Name: "input18"},

	sam3x.PA0:  {Logical: Output1, Name: "output1"},
	sam3x.PD9:  {Logical: Output2, Name: "output2"},
	sam3x.PD8:  {Logical: Output3, Name: "output3"},
	sam3x.PD7:  {Logical: Output4, Name: "output4"},
	sam3x.PD6:  {Logical: Output5, Name: "output5"},
	sam3x.PD5:  {Logical: Output6, Name: "output6"},
	sam3x.PD4:  {Logical: Output7, Name: "output7"},
	sam3x.PD3:  {Logical: Output8, Name: "output8"},
	sam3x.PD10: {Logical: Output9, Name: "output9"},
	sam3x.PA7:  {Logical: Output10, Name: "output10"},
	sam3x.PA5:  {Logical: Output11, Name: "output11"},
	sam3x.PA1:  {Logical: Output12, Name: "output12"},
	sam3x.PA15: {Logical: Output13, Name: "output13"},
	sam3x.PA14: {Logical: Output14, Name: "output14",
		Aliases: []pins.Alias{{Logical: LaserEnable, Name: "laser_enable"}}},
	sam3x.PA12: {Logical: Output15, Name: "output15",
		Aliases: []pins.Alias{{Logical: LaserFire, Name: "laser_fire"}}},
	sam3x.PA13: {Logical: Output16, Name: "output16",
		Aliases: []pins.Alias{{Logical: SpindlePWM, Name: "spindle_pwm"}}},
	sam3x.PC21: {Logical: Output17, Name: "output17",
		Aliases: []pins.Alias{{Logical: SpeedMultiplier, Name: "speed_multiplier"}}},
	sam3x.PC22: {Logical: Output18, Name: "output18",
		Aliases: []pins.Alias{{Logical: GlobalEnable, Name: "global_enable"}}},

	sam3x.PA16: {Logical: ADC1, Name: "adc1"},
	sam3x.PA24: {Logical: ADC2, Name: "adc2"},
	sam3x.PB12: {Logical: ADC3, Name: "adc3"},
	sam3x.PA23: {Logical: ADC4, Name: "adc4"},

	sam3x.USART0RX: {Logical: HostRX, Name: "host_rx"},
	sam3x.USART0TX: {Logical: HostTX, Name: "host_tx"},
	sam3x.PC9:      {Logical: LEDIndicator, Name: "led_indicator"},
	sam3x.PB27:     {Logical: LEDDebug1, Name: "led_debug1"},
	sam3x.PA21:     {Logical: LEDDebug2, Name: "led_debug2"},
	sam3x.PC30:     {Logical: LEDDebug3, Name: "led_debug3"},
	sam3x.PA18:     {Logical: LEDRX, Name: "led_rx"},
	sam3x.PA19:     {Logical: LEDTX, Name: "led_tx"},
}

// Sockets lists the driver sockets in motor order. The drivers strap their
// own microstepping and current, so only step and dir are wired.
var Sockets = [...]sam3xwire.Socket{
	{Step: "socket1_step", Dir: "socket1_dir"},
	{Step: "socket2_step", Dir: "socket2_dir"},
	{Step: "socket3_step", Dir: "socket3_dir"},
	{Step: "socket4_step", Dir: "socket4_dir"},
	{Step: "socket5_step", Dir: "socket5_dir"},
	{Step: "socket6_step", Dir: "socket6_dir"},
}

// A socket table that does not match Motors gives a negative array length
// here and fails to compile.
var (
	_ [len(Sockets) - Motors]struct{}
	_ [Motors - len(Sockets)]struct{}
)

// AnalogInputs are wired in this order.
var AnalogInputs = []string{"adc1", "adc2", "adc3", "adc4"}

// Settings are the per-socket defaults.
var Settings = func() (out [Motors]stepper.Settings) {
	for i := range out {
		s := stepper.DefaultSettings()
		s.Microsteps = 1
		out[i] = s
	}
	if HasLaser {
		out[Motors-1] = laserSettings()
	}
	return out
}()

// laserSettings drive the fire line active high at full power and hold the
// supply for the whole cycle.
func laserSettings() stepper.Settings {
	return stepper.Settings{
		StepPolarity:    line.ActiveHigh,
		EnablePolarity:  line.ActiveHigh,
		PowerMode:       stepper.PoweredInCycle,
		ActiveLevel:     1,
		ActivityTimeout: stepper.DefaultActivityTimeout,
	}
}

// Board is the static description host tools and firmware share.
var Board = hal.Board{
	Name:     Name,
	Chip:     "SAM3X8E",
	Pins:     sam3x.Table(Name, roles[:]),
	Motors:   Motors,
	Settings: Settings[:],
	Wire:     wire,
}

func init() { hal.RegisterBoard(Board) }

func wire(r *hal.Registry) error {
	if r.Bus() == nil {
		return errcode.New(errcode.BoardNotConfigured, "sbv300.wire", "no register bus")
	}
	for i, s := range Sockets {
		var err error
		if HasLaser && i == Motors-1 {
			err = sam3xwire.Laser(r, "laser_fire", "laser_enable", Settings[i])
		} else {
			err = sam3xwire.StepDir(r, s, Settings[i])
		}
		if err != nil {
			return err
		}
	}
	if _, err := sam3xwire.Serial(r, "host", sam3x.USART0); err != nil {
		return err
	}
	if _, err := sam3xwire.Analog(r, AnalogInputs...); err != nil {
		return err
	}
	r.SetStore(persistence.NewNVM(persistence.NewMemory(StoreSize), 0, StoreCount,
		persistence.WithMotionGuard(r.Moving)))
	return nil
}
