package arena

import "encoding/binary"

// A frame is the footprint of one Allocate call:
//
//	[padding][payload][footer]
//
// The 4-byte little-endian footer holds the whole frame size so Free can
// step back over the newest frame without being told its size.
const footerSize = 4

// DefaultAlignment is the payload alignment used when callers have no
// stronger requirement.
const DefaultAlignment uint32 = 4

func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}

// alignPadding returns the bytes needed to move addr up to the next
// multiple of alignment, which must be a power of two.
func alignPadding(addr uintptr, alignment uint32) uint32 {
	mask := uintptr(alignment) - 1
	if mis := uint32(addr & mask); mis != 0 {
		return alignment - mis
	}
	return 0
}

// putFooter records size in the four bytes ending at top.
func putFooter(mem []byte, top int, size uint32) {
	binary.LittleEndian.PutUint32(mem[top-footerSize:top], size)
}

// readFooter returns the size of the frame ending at top.
func readFooter(mem []byte, top int) uint32 {
	return binary.LittleEndian.Uint32(mem[top-footerSize : top])
}
