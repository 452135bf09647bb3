package turbocode

import "math"

const negInf = -1e18

// sisoDecode runs one max-log-MAP (BCJR with the max-star approximated by
// a plain max) pass over the 8-state RSC trellis of length n = len(sysLLR)
// and returns extrinsic LLRs for the n input bits. sysLLR/parLLR/apriori
// are channel/a-priori log-likelihood ratios in the bit=1-is-positive
// convention. The trellis is assumed to start and end in state 0, which
// holds for every constituent encoder in this package because all of
// them are explicitly terminated (spec.md §4.B step 2 / §9's "scoped
// resource with guaranteed release" principle applied to trellis state
// instead of file handles: the trellis never exits in an unknown state).
func sisoDecode(sysLLR, parLLR, apriori []float64) []float64 {
	n := len(sysLLR)
	alpha := make([][numStates]float64, n+1)
	beta := make([][numStates]float64, n+1)
	for s := 1; s < numStates; s++ {
		alpha[0][s] = negInf
		beta[n][s] = negInf
	}

	gamma := make([][numStates][2]float64, n)
	for t := 0; t < n; t++ {
		for s := 0; s < numStates; s++ {
			for b := 0; b < 2; b++ {
				e := transition[s][b]
				bpm := float64(2*b - 1)
				ppm := float64(2*e.parity - 1)
				gamma[t][s][b] = 0.5 * (bpm*(sysLLR[t]+apriori[t]) + ppm*parLLR[t])
			}
		}
	}

	for t := 0; t < n; t++ {
		for s := 0; s < numStates; s++ {
			alpha[t+1][s] = negInf
		}
		for s := 0; s < numStates; s++ {
			if alpha[t][s] == negInf {
				continue
			}
			for b := 0; b < 2; b++ {
				e := transition[s][b]
				v := alpha[t][s] + gamma[t][s][b]
				if v > alpha[t+1][e.nextState] {
					alpha[t+1][e.nextState] = v
				}
			}
		}
	}

	for t := n - 1; t >= 0; t-- {
		for s := 0; s < numStates; s++ {
			best := negInf
			for b := 0; b < 2; b++ {
				e := transition[s][b]
				if beta[t+1][e.nextState] == negInf {
					continue
				}
				v := beta[t+1][e.nextState] + gamma[t][s][b]
				if v > best {
					best = v
				}
			}
			beta[t][s] = best
		}
	}

	extrinsic := make([]float64, n)
	for t := 0; t < n; t++ {
		best1, best0 := negInf, negInf
		for s := 0; s < numStates; s++ {
			if alpha[t][s] == negInf {
				continue
			}
			for b := 0; b < 2; b++ {
				e := transition[s][b]
				if beta[t+1][e.nextState] == negInf {
					continue
				}
				v := alpha[t][s] + gamma[t][s][b] + beta[t+1][e.nextState]
				if b == 1 && v > best1 {
					best1 = v
				}
				if b == 0 && v > best0 {
					best0 = v
				}
			}
		}
		total := best1 - best0
		if math.IsInf(total, 0) || math.IsNaN(total) {
			total = 0
		}
		extrinsic[t] = total - sysLLR[t] - apriori[t]
	}
	return extrinsic
}
