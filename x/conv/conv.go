// Package conv appends numbers to byte slices without fmt or strconv, for
// status output from the firmware main loop.
package conv

// AppendUint appends the decimal form of n.
func AppendUint(dst []byte, n uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}

// AppendInt appends the decimal form of n with a leading '-' when negative.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		return AppendUint(dst, uint64(-(n + 1))+1)
	}
	return AppendUint(dst, uint64(n))
}

// AppendFixed appends v rounded to decimals places (0..6). NaN and
// infinities are written as "nan", "+inf" and "-inf".
func AppendFixed(dst []byte, v float32, decimals int) []byte {
	f := float64(v)
	switch {
	case f != f:
		return append(dst, "nan"...)
	case f > 1e18:
		return append(dst, "+inf"...)
	case f < -1e18:
		return append(dst, "-inf"...)
	}
	if decimals < 0 {
		decimals = 0
	}
	if decimals > 6 {
		decimals = 6
	}
	scale := uint64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	if f < 0 {
		dst = append(dst, '-')
		f = -f
	}
	u := uint64(f*float64(scale) + 0.5)
	dst = AppendUint(dst, u/scale)
	if decimals == 0 {
		return dst
	}
	dst = append(dst, '.')
	frac := u % scale
	for div := scale / 10; div > 0; div /= 10 {
		dst = append(dst, byte('0'+frac/div%10))
	}
	return dst
}
