// Package wire holds the big-endian integer helpers shared by the AVP and
// message codecs: 24-bit lengths have no native Go type, so both framing
// layers go through the same few functions instead of hand-rolling shifts
// at each call site.
package wire

// PutUint24 writes the low 24 bits of v into buf (which must be at least 3
// bytes) in network byte order.
func PutUint24(buf []byte, v uint32) {
	buf[0] = byte(v >> 16)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v)
}

// Uint24 reads a 24-bit big-endian unsigned integer from the first 3 bytes
// of buf.
func Uint24(buf []byte) uint32 {
	_ = buf[2]
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])
}

// Padding returns the number of zero bytes needed to round length up to the
// next multiple of 4.
func Padding(length int) int {
	return (4 - (length % 4)) % 4
}

// Pad4 rounds length up to the next multiple of 4.
func Pad4(length int) int {
	return length + Padding(length)
}
