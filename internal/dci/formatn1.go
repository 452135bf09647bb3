package dci

// FormatN1Bits is the fixed size of the downlink grant DCI, spec.md §4.D.
const FormatN1Bits = 23

// FormatN1 is the downlink grant DCI. When IsSIB1 is set, SchedInfoSIB1
// and ResourceAssignment are populated and every other field is ignored
// (Pack emits the "has_sib1" overlay form); otherwise the full form is
// used. The discriminator bit sits in the same leading position as
// NPDCCHOrderFlag in the full form, consistent with spec.md §4.C's
// description of SIB1 scheduling as an overlay of the normal DL grant.
type FormatN1 struct {
	IsSIB1 bool

	// Full form.
	NPDCCHOrderFlag    uint32 // 1 bit
	SchedulingDelay    uint32 // 3 bits
	ResourceAssignment uint32 // 3 bits
	MCS                uint32 // 4 bits
	RepetitionNumber   uint32 // 4 bits
	HARQAckResource    uint32 // 4 bits
	DCISubframeRepeat  uint32 // 2 bits
	NewDataIndicator   uint32 // 1 bit

	// SIB1 overlay form.
	SchedInfoSIB1 uint32 // 4 bits
}

// Pack serialises d into FormatN1Bits bits.
func (d FormatN1) Pack() []int {
	w := &bitWriter{}
	if d.IsSIB1 {
		w.put(1, 1)
		w.put(d.SchedInfoSIB1, 4)
		w.put(d.ResourceAssignment, 3)
		w.pad(FormatN1Bits - len(w.bits))
		return w.bits
	}
	w.put(0, 1)
	w.put(d.SchedulingDelay, 3)
	w.put(d.ResourceAssignment, 3)
	w.put(d.MCS, 4)
	w.put(d.RepetitionNumber, 4)
	w.put(d.HARQAckResource, 4)
	w.put(d.DCISubframeRepeat, 2)
	w.put(d.NewDataIndicator, 1)
	w.pad(FormatN1Bits - len(w.bits))
	return w.bits
}

// UnpackFormatN1 is the inverse of Pack.
func UnpackFormatN1(bits []int) FormatN1 {
	r := &bitReader{bits: bits}
	flag := r.get(1)
	if flag == 1 {
		d := FormatN1{IsSIB1: true}
		d.SchedInfoSIB1 = r.get(4)
		d.ResourceAssignment = r.get(3)
		return d
	}
	return FormatN1{
		NPDCCHOrderFlag:    flag,
		SchedulingDelay:    r.get(3),
		ResourceAssignment: r.get(3),
		MCS:                r.get(4),
		RepetitionNumber:   r.get(4),
		HARQAckResource:    r.get(4),
		DCISubframeRepeat:  r.get(2),
		NewDataIndicator:   r.get(1),
	}
}
