package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validDL(raw int) bool {
	sfIdx := raw % 10
	sfn := (raw / 10) % 1024
	if sfIdx == 0 || sfIdx == 5 {
		return false
	}
	if sfIdx == 9 && sfn%2 == 0 {
		return false
	}
	return true
}

// TestUserDLSearchSpaceDiscipline is TESTABLE PROPERTY 3 for the user-DL
// path: every DL DCI lands on a subframe with tti_tx_dl mod 8 < 2.
func TestUserDLSearchSpaceDiscipline(t *testing.T) {
	s := NewScheduler(0, 4, 4)
	u := s.AddUser(0x1001)
	u.PendingDLBytes = 40

	var dciRaw int
	found := false
	for raw := 0; raw < 10240; raw++ {
		if !validDL(raw) {
			continue
		}
		dec := s.GetDLSched(raw/10, raw%10, raw, validDL)
		if dec.Kind == GrantUserDL {
			dciRaw = dec.UE.DCIRaw
			found = true
			break
		}
	}
	require.True(t, found)
	require.Less(t, dciRaw%8, 2)
}

// TestDCIDataGap is TESTABLE PROPERTY 4 for the user-DL path: NPDSCH
// lands on the first valid DL subframe at or after DCI+5.
func TestDCIDataGap(t *testing.T) {
	u := &UEState{PendingDLBytes: 40}
	rmap := NewResourceMap()
	dec, ok := TryScheduleDL(u, 16, 4, rmap, validDL)
	require.True(t, ok)
	require.Equal(t, 16, dec.DCIRaw)
	require.Equal(t, 21, dec.DataRaw)
}

func TestRARSearchSpaceDiscipline(t *testing.T) {
	rmap := NewResourceMap()
	ulMap := NewResourceMap()
	s := NewRARScheduler(rmap, ulMap)
	s.Enqueue(RARPending{RARNTI: 0x02, Msg3Grants: []Msg3Grant{{RNTI: 0x1001, NRUsc: 12, MCS: 0}}})

	found := false
	for raw := 0; raw < 10240; raw++ {
		if !validDL(raw) {
			continue
		}
		dec, ok := s.TryDrain(raw, validDL)
		if ok {
			require.Less(t, raw%16, 8)
			require.Len(t, dec.Msg3ULRaws, 1)
			found = true
			break
		}
	}
	require.True(t, found)
}

func TestUserDLCooldown(t *testing.T) {
	u := &UEState{PendingDLBytes: 10}
	rmap := NewResourceMap()
	_, ok := TryScheduleDL(u, 16, 4, rmap, validDL)
	require.True(t, ok)

	u.DLActive = false
	u.PendingDLBytes = 10
	_, ok = TryScheduleDL(u, 16+UECooldownSubframes-1, 4, rmap, validDL)
	require.False(t, ok)

	_, ok = TryScheduleDL(u, 16+UECooldownSubframes, 4, rmap, validDL)
	require.True(t, ok)
}
