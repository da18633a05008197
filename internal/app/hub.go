package app

import (
	"sync"
	"time"

	"contest-scoring-service/internal/domain"
)

// LeaderboardHub fans ranked snapshots out to live subscribers.
type LeaderboardHub struct {
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]domain.RankFilter
}

func NewLeaderboardHub() *LeaderboardHub {
	return &LeaderboardHub{subscribers: make(map[chan domain.Leaderboard]domain.RankFilter)}
}

// subscribe registers a channel for filter and primes it with initial.
func (h *LeaderboardHub) subscribe(filter domain.RankFilter, initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	h.subscribers[ch] = filter
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// broadcast ranks participants once per distinct filter and pushes the result.
func (h *LeaderboardHub) broadcast(participants []domain.Participant, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	boards := make(map[domain.RankFilter]domain.Leaderboard)
	for ch, filter := range h.subscribers {
		lb, ok := boards[filter]
		if !ok {
			lb = domain.Leaderboard{Filter: filter, Entries: Rank(participants, filter), UpdatedAt: now}
			boards[filter] = lb
		}
		select {
		case ch <- lb:
		default:
			// slow subscriber: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

// Subscribers reports how many live subscriptions exist.
func (h *LeaderboardHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
