package pins

import (
	"slices"
	"strconv"

	"motionhal-go/errcode"

	"periph.io/x/conn/v3/pin"
)

// Table is a board's resolved pin identity table. It is immutable.
type Table struct {
	board     string
	entries   []Entry
	byLogical map[Logical]int
	byName    map[string]int
}

// NewTable indexes entries by logical number and by name. Later duplicates
// do not replace earlier ones; Validate reports them.
func NewTable(board string, entries []Entry) *Table {
	es := slices.Clone(entries)
	slices.SortStableFunc(es, func(a, b Entry) int { return int(a.Logical) - int(b.Logical) })
	t := &Table{
		board:     board,
		entries:   es,
		byLogical: make(map[Logical]int, len(es)),
		byName:    make(map[string]int, len(es)),
	}
	for i, e := range es {
		if _, dup := t.byLogical[e.Logical]; !dup {
			t.byLogical[e.Logical] = i
		}
		if _, dup := t.byName[e.Name]; !dup {
			t.byName[e.Name] = i
		}
	}
	return t
}

func (t *Table) Board() string { return t.board }
func (t *Table) Len() int      { return len(t.entries) }

// Entries returns a copy ordered by logical number.
func (t *Table) Entries() []Entry { return slices.Clone(t.entries) }

// Resolve returns the binding for l.
func (t *Table) Resolve(l Logical) (Entry, bool) {
	i, ok := t.byLogical[l]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// ByName returns the binding for a role name.
func (t *Table) ByName(name string) (Entry, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// At returns the first role bound to pad.
func (t *Table) At(pad Physical) (Entry, bool) {
	for _, e := range t.entries {
		if e.Physical == pad {
			return e, true
		}
	}
	return Entry{}, false
}

// Physical returns the pad behind l, or errcode.UnknownPin.
func (t *Table) Physical(l Logical) (Physical, error) {
	e, ok := t.Resolve(l)
	if !ok {
		return Physical{}, errcode.New(errcode.UnknownPin, "pins.resolve", t.board+" logical "+strconv.Itoa(int(l)))
	}
	return e.Physical, nil
}

// Serving lists the logical pins whose pad offers f.
func (t *Table) Serving(f pin.Func) []Logical {
	var out []Logical
	for _, e := range t.entries {
		if e.Supports(f) {
			out = append(out, e.Logical)
		}
	}
	return out
}

// Validate audits the table: logical numbers and names are unique, and a pad
// carries more than one role only when every role on it is marked shared.
func (t *Table) Validate() error {
	seenL := map[Logical]string{}
	seenN := map[string]bool{}
	onPad := map[Physical][]Entry{}
	for _, e := range t.entries {
		if e.Name == "" {
			return errcode.New(errcode.InvalidParams, "pins.validate", "unnamed role "+strconv.Itoa(int(e.Logical)))
		}
		if prev, dup := seenL[e.Logical]; dup {
			return errcode.New(errcode.PinInUse, "pins.validate", "logical "+strconv.Itoa(int(e.Logical))+" used by "+prev+" and "+e.Name)
		}
		seenL[e.Logical] = e.Name
		if seenN[e.Name] {
			return errcode.New(errcode.PinInUse, "pins.validate", "role "+e.Name+" declared twice")
		}
		seenN[e.Name] = true
		onPad[e.Physical] = append(onPad[e.Physical], e)
	}
	for p, es := range onPad {
		if len(es) < 2 {
			continue
		}
		for _, e := range es {
			if !e.Shared {
				return errcode.New(errcode.PinInUse, "pins.validate", p.String()+" claimed by "+es[0].Name+" and "+es[1].Name)
			}
		}
	}
	return nil
}
