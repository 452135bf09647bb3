package dci

// FormatN0Bits is the fixed size of the uplink grant DCI, spec.md §4.D.
const FormatN0Bits = 23

// FormatN0 is the uplink grant DCI.
type FormatN0 struct {
	SubcarrierIndication uint32 // 6 bits
	SchedulingDelay      uint32 // 2 bits, k0
	ResourceAssignment   uint32 // 3 bits
	MCS                  uint32 // 4 bits
	RedundancyVersion    uint32 // 1 bit
	RepetitionNumber     uint32 // 3 bits
	NewDataIndicator     uint32 // 1 bit
	DCISubframeRepeat    uint32 // 2 bits
}

// Pack serialises d into FormatN0Bits bits.
func (d FormatN0) Pack() []int {
	w := &bitWriter{}
	w.put(d.SubcarrierIndication, 6)
	w.put(d.SchedulingDelay, 2)
	w.put(d.ResourceAssignment, 3)
	w.put(d.MCS, 4)
	w.put(d.RedundancyVersion, 1)
	w.put(d.RepetitionNumber, 3)
	w.put(d.NewDataIndicator, 1)
	w.put(d.DCISubframeRepeat, 2)
	w.pad(FormatN0Bits - len(w.bits))
	return w.bits
}

// UnpackFormatN0 deserialises a FormatN0Bits-bit stream back into a
// FormatN0, the inverse of Pack (spec.md testable property 5).
func UnpackFormatN0(bits []int) FormatN0 {
	r := &bitReader{bits: bits}
	return FormatN0{
		SubcarrierIndication: r.get(6),
		SchedulingDelay:      r.get(2),
		ResourceAssignment:   r.get(3),
		MCS:                  r.get(4),
		RedundancyVersion:    r.get(1),
		RepetitionNumber:     r.get(3),
		NewDataIndicator:     r.get(1),
		DCISubframeRepeat:    r.get(2),
	}
}
