//go:build !debug

package encoder

// scratchChecksum and checkScratchIntegrity are no-ops outside debug builds
// (-tags debug); see integrity_debug.go.
func scratchChecksum(scratch []byte) (uint16, uint8) { return 0, 0 }

func checkScratchIntegrity(scratch []byte, wantCRC16 uint16, wantCRC8 uint8) error { return nil }
