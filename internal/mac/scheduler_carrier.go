package mac

import "sync"

// GrantKind tags which sub-scheduler produced a DL allocation, spec.md
// §3's "Tagged sum of {SIB1, other-SIB, RAR, user-data, dl-dci-only-for-ul}".
type GrantKind int

const (
	GrantNone GrantKind = iota
	GrantSIB1
	GrantSIB2
	GrantRAR
	GrantUserDL
)

// DLDecision is the carrier scheduler's answer to "what, if anything, do
// I transmit at tti_tx_dl".
type DLDecision struct {
	Kind    GrantKind
	RAR     RARDecision
	UE      UEDLDecision
	RNTI    uint32
	IsFirst bool // SIB1 only: true on the first subframe of each 8-subframe block
}

// ULDecision is the carrier scheduler's answer to "what, if anything, do
// I expect at tti_tx_ul".
type ULDecision struct {
	Valid bool
	UE    UEULDecision
	RNTI  uint32
}

// Scheduler is the per-cell singleton of spec.md §4.J, composing the
// broadcast/RAR/user sub-schedulers behind the tie-break policy
// broadcast > RAR > user-DL > user-UL, with round-robin among users.
type Scheduler struct {
	mu sync.Mutex

	DLMap *ResourceMap
	ULMap *ResourceMap

	Broadcast *BroadcastScheduler
	RAR       *RARScheduler

	users     map[uint32]*UEState
	userOrder []uint32
	rrCursor  int

	DefaultMCS int
}

// NewScheduler constructs a Scheduler for a single cell.
func NewScheduler(sib1Start, sib1Nrep, defaultMCS int) *Scheduler {
	dlMap := NewResourceMap()
	ulMap := NewResourceMap()
	return &Scheduler{
		DLMap:      dlMap,
		ULMap:      ulMap,
		Broadcast:  NewBroadcastScheduler(dlMap, sib1Start, sib1Nrep),
		RAR:        NewRARScheduler(dlMap, ulMap),
		users:      make(map[uint32]*UEState),
		DefaultMCS: defaultMCS,
	}
}

// AddUser creates scheduling state for rnti (spec.md §3: "created on
// random-access detection").
func (s *Scheduler) AddUser(rnti uint32) *UEState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[rnti]; ok {
		return u
	}
	u := &UEState{RNTI: rnti}
	s.users[rnti] = u
	s.userOrder = append(s.userOrder, rnti)
	return u
}

// RemoveUser destroys rnti's scheduling state ("destroyed on RRC release
// complete").
func (s *Scheduler) RemoveUser(rnti uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, rnti)
	for i, r := range s.userOrder {
		if r == rnti {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
}

// User returns rnti's scheduling state, or nil if unknown.
func (s *Scheduler) User(rnti uint32) *UEState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[rnti]
}

// GetDLSched implements stack.get_dl_sched's PHY-side counterpart: at
// most one decision per TTI, in tie-break order broadcast > RAR >
// user-DL, with users visited round-robin starting after whichever user
// was tried last time (spec.md §4.J: "within user traffic, a time-domain
// round-robin by tti % n_users").
func (s *Scheduler) GetDLSched(sfn, sfIdx, ttiTxDL int, isValidDL func(raw int) bool) DLDecision {
	if isSIB1, _, isFirst := IsSIB1Subframe(sfn, sfIdx, s.Broadcast.SIB1Start, s.Broadcast.SIB1Nrep); isSIB1 {
		s.Broadcast.TryReserveSIB1(ttiTxDL)
		return DLDecision{Kind: GrantSIB1, RNTI: 0x0001, IsFirst: isFirst}
	}
	if IsSIB2Subframe(sfn, sfIdx) {
		if s.DLMap.Alloc(ttiTxDL, true) {
			return DLDecision{Kind: GrantSIB2}
		}
	}

	if dec, ok := s.RAR.TryDrain(ttiTxDL, isValidDL); ok {
		return DLDecision{Kind: GrantRAR, RAR: dec}
	}

	s.mu.Lock()
	order := append([]uint32(nil), s.userOrder...)
	n := len(order)
	cursor := s.rrCursor
	s.mu.Unlock()
	if n == 0 {
		return DLDecision{Kind: GrantNone}
	}
	for i := 0; i < n; i++ {
		idx := (cursor + i) % n
		rnti := order[idx]
		u := s.User(rnti)
		if u == nil {
			continue
		}
		if dec, ok := TryScheduleDL(u, ttiTxDL, s.DefaultMCS, s.DLMap, isValidDL); ok {
			s.mu.Lock()
			s.rrCursor = (idx + 1) % n
			s.mu.Unlock()
			return DLDecision{Kind: GrantUserDL, UE: dec, RNTI: rnti}
		}
	}
	return DLDecision{Kind: GrantNone}
}

// GetULSched implements stack.get_ul_sched's PHY-side counterpart,
// round-robining over users by starting the search at user index
// ttiTxUL mod n_users.
func (s *Scheduler) GetULSched(ttiTxUL int, isValidDL func(raw int) bool) ULDecision {
	s.mu.Lock()
	order := append([]uint32(nil), s.userOrder...)
	s.mu.Unlock()
	n := len(order)
	for i := 0; i < n; i++ {
		rnti := order[(ttiTxUL%n+n+i)%n]
		u := s.User(rnti)
		if u == nil {
			continue
		}
		if dec, ok := TryScheduleUL(u, ttiTxUL, s.ULMap, isValidDL); ok {
			return ULDecision{Valid: true, UE: dec, RNTI: rnti}
		}
	}
	return ULDecision{}
}

// Tick advances every user's per-TTI timers; called once per TTI.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		u.Tick()
	}
}
