//go:build debug

package encoder

import (
	"fmt"

	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
)

var (
	scratchTable16 = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)
	scratchTable8  = crc8.MakeTable(crc8.CRC8)
)

// scratchChecksum returns a CRC-16 of the whole buffer plus a CRC-8 of its
// first kilobyte, cheap enough to call twice per frame in debug builds.
func scratchChecksum(scratch []byte) (uint16, uint8) {
	spotLen := 1024
	if len(scratch) < spotLen {
		spotLen = len(scratch)
	}
	return crc16.Checksum(scratch, scratchTable16), crc8.Checksum(scratch[:spotLen], scratchTable8)
}

// checkScratchIntegrity re-checksums the I420 scratch buffer after
// backend.Encode returns and compares it against the checksum taken right
// after internal/yuv filled it. Backend is only supposed to read raw; a
// backend that mutates its input in place (some hardware encoders reuse
// scratch memory for in-place color conversion) would otherwise corrupt the
// next frame's conversion silently.
func checkScratchIntegrity(scratch []byte, wantCRC16 uint16, wantCRC8 uint8) error {
	gotCRC16, gotCRC8 := scratchChecksum(scratch)
	if gotCRC16 != wantCRC16 || gotCRC8 != wantCRC8 {
		return fmt.Errorf("encoder: scratch buffer mutated by backend during Encode (crc16 %x != %x)", gotCRC16, wantCRC16)
	}
	return nil
}
