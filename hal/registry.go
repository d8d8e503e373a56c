package hal

import (
	"context"
	"fmt"
	"sort"

	"motionhal-go/errcode"
	"motionhal-go/hal/analog"
	"motionhal-go/hal/mmio"
	"motionhal-go/hal/pins"
	"motionhal-go/hal/serial"
	"motionhal-go/hal/stepper"
	"motionhal-go/persistence"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/pin"
)

// Registry owns every pin, peripheral block and device handle of a board.
// Construction happens once; afterwards only device state changes.
type Registry struct {
	board Board
	bus   mmio.Bus
	chip  any
	log   Logger

	pinOwner    map[pins.Physical]string
	periphOwner map[string]string
	irqs        map[int]func()

	motors []stepper.Stepper
	serial map[string]*serial.Port
	analog map[string]*analog.Channel
	store  persistence.Store

	armed bool
}

type Option func(*Registry)

// WithBus sets the register bus board wiring uses.
func WithBus(b mmio.Bus) Option { return func(r *Registry) { r.bus = b } }

// WithChip sets the chip handle for boards whose peripherals are not
// reached through a register bus.
func WithChip(c any) Option { return func(r *Registry) { r.chip = c } }

// WithLogger routes registry logging to l.
func WithLogger(l Logger) Option { return func(r *Registry) { r.log = l } }

// New validates the board's pin table and runs its wiring.
func New(b Board, opts ...Option) (*Registry, error) {
	r := &Registry{
		board:       b,
		log:         nopLogger{},
		pinOwner:    map[pins.Physical]string{},
		periphOwner: map[string]string{},
		irqs:        map[int]func(){},
		serial:      map[string]*serial.Port{},
		analog:      map[string]*analog.Channel{},
	}
	for _, o := range opts {
		o(r)
	}
	if b.Pins == nil || b.Wire == nil {
		return nil, errcode.New(errcode.BoardNotConfigured, "hal.new", b.Name)
	}
	if err := b.Pins.Validate(); err != nil {
		return nil, err
	}
	if len(b.Settings) != b.Motors {
		return nil, errcode.New(errcode.InvalidParams, "hal.new", "settings do not match motor count")
	}
	if err := b.Wire(r); err != nil {
		return nil, err
	}
	if len(r.motors) != b.Motors {
		return nil, errcode.New(errcode.BoardNotConfigured, "hal.new",
			fmt.Sprintf("wired %d motors, board has %d", len(r.motors), b.Motors))
	}
	r.log.Infow("board wired", "board", b.Name, "chip", b.Chip, "motors", b.Motors, "pins", b.Pins.Len())
	return r, nil
}

func (r *Registry) Board() Board      { return r.board }
func (r *Registry) Pins() *pins.Table { return r.board.Pins }
func (r *Registry) Bus() mmio.Bus     { return r.bus }
func (r *Registry) Chip() any         { return r.chip }
func (r *Registry) Logger() Logger    { return r.log }

// -----------------------------------------------------------------------------
// Ownership
// -----------------------------------------------------------------------------

// ClaimPins records owner for each pad. Zero pads (unwired signals) are
// skipped.
func (r *Registry) ClaimPins(owner string, pads ...pins.Physical) error {
	for _, p := range pads {
		if p == (pins.Physical{}) {
			continue
		}
		if prev, ok := r.pinOwner[p]; ok {
			return errcode.New(errcode.PinInUse, "hal.claim", fmt.Sprintf("%s held by %s, wanted by %s", p, prev, owner))
		}
		r.pinOwner[p] = owner
	}
	return nil
}

// ClaimRoles claims the pads behind named roles in the board table.
func (r *Registry) ClaimRoles(owner string, roles ...string) ([]pins.Physical, error) {
	pads := make([]pins.Physical, len(roles))
	for i, name := range roles {
		e, ok := r.board.Pins.ByName(name)
		if !ok {
			return nil, errcode.New(errcode.UnknownPin, "hal.claim", name)
		}
		pads[i] = e.Physical
	}
	return pads, r.ClaimPins(owner, pads...)
}

// ClaimSignal claims pad for owner after checking that the board table puts
// a role on it and that the pad offers f.
func (r *Registry) ClaimSignal(owner string, pad pins.Physical, f pin.Func) error {
	e, ok := r.board.Pins.At(pad)
	if !ok {
		return errcode.New(errcode.UnknownPin, "hal.claim", fmt.Sprintf("%s has no role for %s", pad, f))
	}
	if !e.Supports(f) {
		return errcode.New(errcode.InvalidParams, "hal.claim", fmt.Sprintf("%s does not offer %s", pad, f))
	}
	return r.ClaimPins(owner, pad)
}

// ClaimPeripheral records owner for a peripheral block.
func (r *Registry) ClaimPeripheral(owner, block string) error {
	if prev, ok := r.periphOwner[block]; ok {
		return errcode.New(errcode.PeripheralInUse, "hal.claim", fmt.Sprintf("%s held by %s", block, prev))
	}
	r.periphOwner[block] = owner
	return nil
}

// PeripheralOwner reports who holds block.
func (r *Registry) PeripheralOwner(block string) (string, bool) {
	o, ok := r.periphOwner[block]
	return o, ok
}

// PinOwner reports who holds p.
func (r *Registry) PinOwner(p pins.Physical) (string, bool) {
	o, ok := r.pinOwner[p]
	return o, ok
}

// -----------------------------------------------------------------------------
// Interrupts
// -----------------------------------------------------------------------------

// Handle routes irq to fn. Each line has one handler.
func (r *Registry) Handle(irq int, fn func()) error {
	if _, ok := r.irqs[irq]; ok {
		return errcode.New(errcode.PeripheralInUse, "hal.irq", fmt.Sprintf("irq %d already handled", irq))
	}
	r.irqs[irq] = fn
	return nil
}

// Dispatch runs the handler for irq. It reports false for an unhandled line.
func (r *Registry) Dispatch(irq int) bool {
	fn, ok := r.irqs[irq]
	if ok {
		fn()
	}
	return ok
}

// IRQs lists handled lines in ascending order.
func (r *Registry) IRQs() []int {
	out := make([]int, 0, len(r.irqs))
	for irq := range r.irqs {
		out = append(out, irq)
	}
	sort.Ints(out)
	return out
}

// -----------------------------------------------------------------------------
// Devices
// -----------------------------------------------------------------------------

// AddMotor appends the next socket's device and claims its pads.
func (r *Registry) AddMotor(st stepper.Stepper, pads ...pins.Physical) error {
	owner := fmt.Sprintf("motor%d", len(r.motors)+1)
	if err := r.ClaimPins(owner, pads...); err != nil {
		return err
	}
	r.motors = append(r.motors, st)
	return nil
}

func (r *Registry) AddSerial(name string, p *serial.Port)     { r.serial[name] = p }
func (r *Registry) AddAnalog(name string, ch *analog.Channel) { r.analog[name] = ch }
func (r *Registry) SetStore(s persistence.Store)              { r.store = s }

// Motors returns the wiring table in socket order.
func (r *Registry) Motors() []stepper.Stepper { return append([]stepper.Stepper(nil), r.motors...) }

// Motor returns socket i (zero-based).
func (r *Registry) Motor(i int) (stepper.Stepper, error) {
	if i < 0 || i >= len(r.motors) {
		return nil, errcode.New(errcode.OutOfRange, "hal.motor", fmt.Sprintf("socket %d of %d", i, len(r.motors)))
	}
	return r.motors[i], nil
}

func (r *Registry) Serial(name string) (*serial.Port, bool) {
	p, ok := r.serial[name]
	return p, ok
}

func (r *Registry) Analog(name string) (*analog.Channel, bool) {
	ch, ok := r.analog[name]
	return ch, ok
}

// AnalogNames lists analog channels, sorted.
func (r *Registry) AnalogNames() []string {
	out := make([]string, 0, len(r.analog))
	for n := range r.analog {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SerialNames lists serial ports, sorted.
func (r *Registry) SerialNames() []string {
	out := make([]string, 0, len(r.serial))
	for n := range r.serial {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Store() persistence.Store { return r.store }

// Moving reports whether any motor is running. Persistence uses it to hold
// off storage writes.
func (r *Registry) Moving() bool {
	for _, m := range r.motors {
		if m.State() == stepper.Running {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Motor table bring-up
// -----------------------------------------------------------------------------

// BoardStepperInit initialises every motor in table order, applies its
// settings and checks that all of them ended disabled. It never enables a
// motor.
func (r *Registry) BoardStepperInit() error {
	r.armed = false
	var err error
	for i, m := range r.motors {
		if e := m.Init(); e != nil {
			r.log.Warnw("motor init failed", "motor", i+1, "err", e)
			err = multierr.Append(err, fmt.Errorf("motor %d: %w", i+1, e))
			continue
		}
		if e := stepper.Apply(m, r.board.Settings[i]); e != nil && errcode.Of(e) != errcode.Unsupported {
			err = multierr.Append(err, fmt.Errorf("motor %d: %w", i+1, e))
		}
		r.log.Debugw("motor initialised", "motor", i+1, "state", m.State().String())
	}
	for i, m := range r.motors {
		if m.Enabled() {
			err = multierr.Append(err, errcode.New(errcode.Interlock, "hal.stepper_init",
				fmt.Sprintf("motor %d not disabled", i+1)))
		}
	}
	if err != nil {
		return err
	}
	r.armed = true
	r.log.Infow("motors initialised", "count", len(r.motors))
	return nil
}

// Initialised reports whether BoardStepperInit completed cleanly.
func (r *Registry) Initialised() bool { return r.armed }

// EnableMotor applies socket i's power mode and energises it. It refuses
// until BoardStepperInit has brought every motor to disabled.
func (r *Registry) EnableMotor(i int) error {
	m, err := r.Motor(i)
	if err != nil {
		return err
	}
	if !r.armed {
		return errcode.New(errcode.Interlock, "hal.enable", "motor table not initialised")
	}
	mode := r.board.Settings[i].PowerMode
	if mode == stepper.Disabled {
		return errcode.New(errcode.InvalidParams, "hal.enable", fmt.Sprintf("motor %d is disabled in settings", i+1))
	}
	m.SetPowerMode(mode)
	m.Enable()
	return nil
}

// DisableAll de-energises every motor, for stop and fault paths.
func (r *Registry) DisableAll() {
	for _, m := range r.motors {
		m.Disable()
	}
}

// -----------------------------------------------------------------------------
// Persistence
// -----------------------------------------------------------------------------

// ReadPersistentValue reads one stored value.
func (r *Registry) ReadPersistentValue(ctx context.Context, e *persistence.Entry) error {
	if r.store == nil {
		return errcode.New(errcode.NotInitialised, "hal.persist", "board has no store")
	}
	return r.store.Read(ctx, e)
}

// WritePersistentValue writes one stored value.
func (r *Registry) WritePersistentValue(ctx context.Context, e persistence.Entry) error {
	if r.store == nil {
		return errcode.New(errcode.NotInitialised, "hal.persist", "board has no store")
	}
	return r.store.Write(ctx, e)
}
