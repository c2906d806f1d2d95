package ndarray

import "unsafe"

// bytesToFloat32 reinterprets a byte slice as []float32 without copying.
// The caller guarantees the slice came from a Float32 allocation.
func bytesToFloat32(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy reinterpretation, length derived from the allocation
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(data)/4)
}
