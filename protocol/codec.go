package protocol

// Encoded number ceilings. A value encoded into n bytes must be strictly
// below the matching ceiling.
const (
	CharMax  = 253
	ShortMax = CharMax * CharMax
	ThreeMax = CharMax * CharMax * CharMax
	IntMax   = CharMax * CharMax * CharMax * CharMax
)

// EncodeNumber encodes n as four base-253 digits, least significant first.
// Each digit d is stored as d+1; a 254 marks a digit the value never
// reached. Callers slice the result down to the field width.
func EncodeNumber(n int) [4]byte {
	value := n

	d := byte(0xFE)
	if n >= ThreeMax {
		d = byte(value/ThreeMax + 1)
		value %= ThreeMax
	}

	c := byte(0xFE)
	if n >= ShortMax {
		c = byte(value/ShortMax + 1)
		value %= ShortMax
	}

	b := byte(0xFE)
	if n >= CharMax {
		b = byte(value/CharMax + 1)
		value %= CharMax
	}

	a := byte(value + 1)
	return [4]byte{a, b, c, d}
}

// DecodeNumber reverses EncodeNumber for 1 to 4 bytes. Extra bytes are
// ignored.
func DecodeNumber(b []byte) int {
	n := len(b)
	if n > 4 {
		n = 4
	}

	result := 0
	for i := n - 1; i >= 0; i-- {
		v := int(b[i])
		if v == 0 || v == 0xFE {
			v = 1
		}
		result = result*CharMax + (v - 1)
	}
	return result
}

// FlipMSB toggles the high bit of every byte in place, leaving 0x00 and
// 0x80 untouched so that the step is its own inverse.
func FlipMSB(buf []byte) {
	for i, b := range buf {
		if b&0x7F != 0 {
			buf[i] = b ^ 0x80
		}
	}
}

// Interleave places the bytes of buf at even positions ascending, then
// odd positions descending.
func Interleave(buf []byte) {
	out := make([]byte, len(buf))
	n := 0
	i := 0
	for ; i < len(buf); i += 2 {
		out[i] = buf[n]
		n++
	}
	i--
	if len(buf)%2 != 0 {
		i -= 2
	}
	for ; i >= 0; i -= 2 {
		out[i] = buf[n]
		n++
	}
	copy(buf, out)
}

// Deinterleave is the inverse of Interleave.
func Deinterleave(buf []byte) {
	out := make([]byte, len(buf))
	n := 0
	i := 0
	for ; i < len(buf); i += 2 {
		out[n] = buf[i]
		n++
	}
	i--
	if len(buf)%2 != 0 {
		i -= 2
	}
	for ; i >= 0; i -= 2 {
		out[n] = buf[i]
		n++
	}
	copy(buf, out)
}

// SwapMultiples reverses, in place, every run of two or more consecutive
// bytes whose value is a multiple of k. It does nothing when k is 0.
func SwapMultiples(buf []byte, k int) {
	if k <= 0 {
		return
	}

	run := 0
	for i := 0; i <= len(buf); i++ {
		if i != len(buf) && int(buf[i])%k == 0 {
			run++
			continue
		}
		if run > 1 {
			reverse(buf[i-run : i])
		}
		run = 0
	}
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// EncodeChain applies the outbound transform order in place:
// swap-by-multiple, flip, interleave.
func EncodeChain(buf []byte, multiple int) {
	SwapMultiples(buf, multiple)
	FlipMSB(buf)
	Interleave(buf)
}

// DecodeChain reverses EncodeChain in place.
func DecodeChain(buf []byte, multiple int) {
	Deinterleave(buf)
	FlipMSB(buf)
	SwapMultiples(buf, multiple)
}
