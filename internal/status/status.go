// Package status renders a one-line summary of a wired board: interlock,
// motor power states, the latest analog readings and storage wear.
package status

import (
	"motionhal-go/hal"
	"motionhal-go/x/conv"

	"periph.io/x/conn/v3/physic"
)

type wearCounter interface{ Writes() uint32 }

// Append writes the summary for r to dst, newline terminated. It only reads
// latched values and never starts a conversion.
func Append(dst []byte, r *hal.Registry) []byte {
	dst = append(dst, r.Board().Name...)
	dst = append(dst, " armed="...)
	if r.Initialised() {
		dst = append(dst, '1')
	} else {
		dst = append(dst, '0')
	}
	for i, m := range r.Motors() {
		dst = append(dst, " m"...)
		dst = conv.AppendInt(dst, int64(i+1))
		dst = append(dst, '=')
		dst = append(dst, m.State().String()...)
	}
	for _, name := range r.AnalogNames() {
		ch, _ := r.Analog(name)
		dst = append(dst, ' ')
		dst = append(dst, name...)
		dst = append(dst, '=')
		v, err := ch.Value()
		if err != nil {
			dst = append(dst, '-')
			continue
		}
		dst = conv.AppendFixed(dst, float32(v)/float32(physic.Volt), 3)
		dst = append(dst, 'V')
	}
	if w, ok := r.Store().(wearCounter); ok {
		dst = append(dst, " nvm="...)
		dst = conv.AppendUint(dst, uint64(w.Writes()))
	}
	return append(dst, '\n')
}
