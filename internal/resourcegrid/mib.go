package resourcegrid

// MIB is the NB-IoT Master Information Block, spec.md §6: 34 payload
// bits (sched_info_sib1, sys_info_tag, ac_barring, operation-mode-info,
// spare) plus a 16-bit CRC, re-encoded once every 8 radio frames and
// transmitted across the eight subframe-0's of that window (spec.md §4.G
// step 2).
type MIB struct {
	SchedInfoSIB1     uint32 // 4 bits
	SysInfoTag        uint32 // 5 bits
	ACBarring         uint32 // 1 bit
	OperationModeInfo uint32 // 7 bits
	HFN               uint32 // patched into the 11-bit spare field each 8-frame window
}

const mibPayloadBits = 34

// Pack serialises m into 34 payload bits followed by a 16-bit CRC,
// mirroring the field layout of spec.md §6.
func (m MIB) Pack() []int {
	bits := make([]int, 0, mibPayloadBits)
	putBits := func(v uint32, w int) {
		for i := w - 1; i >= 0; i-- {
			bits = append(bits, int((v>>uint(i))&1))
		}
	}
	putBits(m.SchedInfoSIB1, 4)
	putBits(m.SysInfoTag, 5)
	putBits(m.ACBarring, 1)
	putBits(m.OperationModeInfo, 7)
	putBits(m.HFN, 11) // spare(11), repurposed to carry the rolling HFN
	// The fields above fill 28 bits; the rest of the payload is zero.
	putBits(0, mibPayloadBits-28)
	crc := crc16(bits)
	for i := 15; i >= 0; i-- {
		bits = append(bits, int((crc>>uint(i))&1))
	}
	return bits
}

// UnpackMIB is the inverse of Pack, returning ok=false on CRC mismatch.
func UnpackMIB(bits []int) (MIB, bool) {
	if len(bits) != mibPayloadBits+16 {
		return MIB{}, false
	}
	payload := bits[:mibPayloadBits]
	want := crc16(payload)
	var got uint32
	for _, b := range bits[mibPayloadBits:] {
		got = (got << 1) | uint32(b)
	}
	if want != got {
		return MIB{}, false
	}
	pos := 0
	read := func(w int) uint32 {
		var v uint32
		for i := 0; i < w; i++ {
			v = (v << 1) | uint32(payload[pos])
			pos++
		}
		return v
	}
	return MIB{
		SchedInfoSIB1:     read(4),
		SysInfoTag:        read(5),
		ACBarring:         read(1),
		OperationModeInfo: read(7),
		HFN:               read(11),
	}, true
}

// crc16 is the CRC used to protect the MIB payload (CCITT polynomial
// 0x1021), distinct from the transport-block CRC-24A used by NPUSCH/
// NPDSCH.
func crc16(bits []int) uint32 {
	var reg uint32
	for _, b := range bits {
		top := (reg >> 15) & 1
		reg = (reg << 1) & 0xFFFF
		if top^uint32(b) != 0 {
			reg ^= 0x1021
		}
	}
	for i := 0; i < 16; i++ {
		top := (reg >> 15) & 1
		reg = (reg << 1) & 0xFFFF
		if top != 0 {
			reg ^= 0x1021
		}
	}
	return reg & 0xFFFF
}
