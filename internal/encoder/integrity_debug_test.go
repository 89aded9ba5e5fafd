//go:build debug

package encoder

import "testing"

func TestScratchChecksum_DetectsMutation(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	crc16a, crc8a := scratchChecksum(buf)

	buf[3] = 0xFF
	crc16b, crc8b := scratchChecksum(buf)

	if crc16a == crc16b && crc8a == crc8b {
		t.Fatal("checksum did not change after mutating the buffer")
	}

	if err := checkScratchIntegrity(buf, crc16a, crc8a); err == nil {
		t.Fatal("expected integrity check to fail after mutation")
	}
	if err := checkScratchIntegrity(buf, crc16b, crc8b); err != nil {
		t.Fatalf("expected integrity check to pass on matching checksum: %v", err)
	}
}
