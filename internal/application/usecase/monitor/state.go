package monitor

import (
	"strings"
	"sync"

	"spotarb/internal/domain/model"
)

type Dir int

const (
	DirSame Dir = 0
	DirUp   Dir = +1
	DirDown Dir = -1
)

type pxState struct {
	price float64
	has   bool
	dir   Dir
	seen  bool // 本轮是否有报价
}

type pairState struct {
	venues map[string]*pxState // venue -> price state
}

// State 记录每个交易对在各交易所的最近买一价及变化方向
type State struct {
	mu sync.Mutex

	order []model.TradingPair
	pairs map[model.TradingPair]*pairState
}

func NewState(pairs []model.TradingPair) *State {
	order := make([]model.TradingPair, 0, len(pairs))
	m := make(map[model.TradingPair]*pairState, len(pairs))
	for _, p := range pairs {
		if p.IsZero() {
			continue
		}
		if _, dup := m[p]; dup {
			continue
		}
		order = append(order, p)
		m[p] = &pairState{venues: make(map[string]*pxState)}
	}
	return &State{order: order, pairs: m}
}

func (s *State) Pairs() []model.TradingPair {
	return s.order
}

// ApplyCycle 应用一轮报价；本轮没有报价的交易所标记为未见
func (s *State) ApplyCycle(quotes []model.VenueQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ps := range s.pairs {
		for _, px := range ps.venues {
			px.seen = false
		}
	}
	for _, q := range quotes {
		s.apply(q)
	}
}

func (s *State) apply(q model.VenueQuote) {
	venue := strings.ToLower(strings.TrimSpace(q.Venue))
	if venue == "" || q.Bid <= 0 {
		return
	}
	st := s.pairs[q.Pair]
	if st == nil {
		return
	}

	px := st.venues[venue]
	if px == nil {
		px = &pxState{}
		st.venues[venue] = px
	}
	px.seen = true

	if !px.has {
		px.has = true
		px.price = q.Bid
		px.dir = DirSame
		return
	}

	switch {
	case q.Bid > px.price:
		px.dir = DirUp
	case q.Bid < px.price:
		px.dir = DirDown
	default:
		px.dir = DirSame
	}
	px.price = q.Bid
}

// Snapshot 返回 venue -> 价格状态 副本
func (s *State) Snapshot(pair model.TradingPair) map[string]pxState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.pairs[pair]
	if st == nil {
		return nil
	}
	out := make(map[string]pxState, len(st.venues))
	for v, px := range st.venues {
		out[v] = *px
	}
	return out
}
