// Package hal binds a board's pin table and device wiring into a registry
// built once at start-up.
package hal

import (
	"fmt"
	"sort"
	"sync"

	"motionhal-go/hal/pins"
	"motionhal-go/hal/stepper"
)

// Logger is the structured logging seam. *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugw(string, ...interface{}) {}
func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}

// Board describes one controller board.
type Board struct {
	Name string
	Chip string
	Pins *pins.Table
	// Motors is the socket count. Wire must add exactly this many motors.
	Motors int
	// Settings holds one entry per socket.
	Settings []stepper.Settings
	// Wire constructs device handles and claims their pins and blocks.
	Wire func(r *Registry) error
}

// -----------------------------------------------------------------------------
// Board catalogue
// -----------------------------------------------------------------------------

var (
	muBoards sync.RWMutex
	boards   = map[string]Board{}
)

// RegisterBoard makes b available by name to host tools.
// It panics on duplicate registration to catch mistakes at start-up.
func RegisterBoard(b Board) {
	muBoards.Lock()
	defer muBoards.Unlock()
	if b.Name == "" {
		panic("hal: empty board name")
	}
	if _, exists := boards[b.Name]; exists {
		panic(fmt.Sprintf("hal: board %q already registered", b.Name))
	}
	boards[b.Name] = b
}

// LookupBoard finds a registered board.
func LookupBoard(name string) (Board, bool) {
	muBoards.RLock()
	defer muBoards.RUnlock()
	b, ok := boards[name]
	return b, ok
}

// Boards lists registered board names, sorted.
func Boards() []string {
	muBoards.RLock()
	defer muBoards.RUnlock()
	out := make([]string, 0, len(boards))
	for n := range boards {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
