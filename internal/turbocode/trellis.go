package turbocode

// The 3GPP 36.212 rate-1/3 turbo code is built from two identical 8-state
// recursive systematic convolutional encoders, constraint length 4,
// generator polynomials g0=13(oct) (feedback, 1+D^2+D^3) and g1=15(oct)
// (feed-forward, 1+D+D^3). This file builds the state-transition and
// output tables once at init and is shared by the encoder and the
// max-log-MAP SISO decoder.
const numStates = 8

type trellisEdge struct {
	nextState int
	parity    int // 0 or 1
}

// transition[state][inputBit] gives the edge taken.
var transition [numStates][2]trellisEdge

// terminationInput[state] is the input bit that makes the feedback bit
// zero, so three such steps flush any state to state 0.
var terminationInput [numStates]int

func init() {
	for s := 0; s < numStates; s++ {
		for in := 0; in < 2; in++ {
			// Register contents, MSB-first: s = b2 b1 b0 (b2 most
			// recently shifted in, so b2, b1, b0 hold D, D^2, D^3).
			b0 := s & 1
			b1 := (s >> 1) & 1
			b2 := (s >> 2) & 1
			feedback := in ^ b1 ^ b0 // g0 = 1 + D^2 + D^3
			parity := feedback ^ b2 ^ b0 // g1 = 1 + D + D^3
			nextState := (feedback << 2) | (b2 << 1) | b1
			transition[s][in] = trellisEdge{nextState: nextState, parity: parity}
			if feedback == 0 {
				terminationInput[s] = in
			}
		}
	}
}

// rscEncode runs one full pass of the constituent encoder over bits,
// returning the parity stream and three tail bits that flush the encoder
// back to state 0, mirroring 3GPP's trellis-termination procedure.
func rscEncode(bits []int) (parity []int, tailSystematic, tailParity [3]int) {
	state := 0
	parity = make([]int, len(bits))
	for i, b := range bits {
		e := transition[state][b]
		parity[i] = e.parity
		state = e.nextState
	}
	for i := 0; i < 3; i++ {
		in := terminationInput[state]
		e := transition[state][in]
		tailSystematic[i] = in
		tailParity[i] = e.parity
		state = e.nextState
	}
	return parity, tailSystematic, tailParity
}
