package dci

// RARGrantBits is the fixed size of a random-access-response UL grant as
// carried in the MAC RAR payload (spec.md §4.D).
const RARGrantBits = 15

// RARGrant is the MSG3 uplink grant embedded in a Random Access Response.
type RARGrant struct {
	SubcarrierSpacing    uint32 // 1 bit
	SubcarrierIndication uint32 // 6 bits
	SchedulingDelay      uint32 // 2 bits
	RepetitionNumber     uint32 // 3 bits
	MCS                  uint32 // 3 bits
}

// Pack serialises g into exactly RARGrantBits bits (no padding needed).
func (g RARGrant) Pack() []int {
	w := &bitWriter{}
	w.put(g.SubcarrierSpacing, 1)
	w.put(g.SubcarrierIndication, 6)
	w.put(g.SchedulingDelay, 2)
	w.put(g.RepetitionNumber, 3)
	w.put(g.MCS, 3)
	return w.bits
}

// UnpackRARGrant is the inverse of Pack.
func UnpackRARGrant(bits []int) RARGrant {
	r := &bitReader{bits: bits}
	return RARGrant{
		SubcarrierSpacing:    r.get(1),
		SubcarrierIndication: r.get(6),
		SchedulingDelay:      r.get(2),
		RepetitionNumber:     r.get(3),
		MCS:                  r.get(3),
	}
}
