package engine

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"signal-arena/internal/domain"
	"signal-arena/internal/scoring"
)

// AgentSort orders an agent listing. Every order falls back to the
// leaderboard order on ties.
type AgentSort string

const (
	SortJoined      AgentSort = ""            // join order
	SortRank        AgentSort = "rank"        // leaderboard order
	SortScore       AgentSort = "score"       // reputation desc
	SortAccuracy    AgentSort = "accuracy"    // correct/total desc
	SortStreak      AgentSort = "streak"      // current streak desc
	SortPredictions AgentSort = "predictions" // resolved predictions desc
)

// IsValid reports whether s is a known order.
func (s AgentSort) IsValid() bool {
	switch s {
	case SortJoined, SortRank, SortScore, SortAccuracy, SortStreak, SortPredictions:
		return true
	}
	return false
}

// AgentQuery filters, orders and pages agents.
type AgentQuery struct {
	Rank           domain.Rank // empty matches every rank
	MinAccuracyBps uint64      // 0..10000
	MinPredictions uint64      // resolved predictions
	Search         string      // case-insensitive substring of the name
	SortBy         AgentSort
	Offset         int
	Limit          int // <= 0 returns everything after Offset
}

func (q AgentQuery) validate() error {
	if q.Rank != "" && !q.Rank.IsValid() {
		return fmt.Errorf("%w: unknown rank %q", ErrInvalidQuery, q.Rank)
	}
	if !q.SortBy.IsValid() {
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidQuery, q.SortBy)
	}
	if q.MinAccuracyBps > 10_000 {
		return fmt.Errorf("%w: min accuracy above 100%%", ErrInvalidQuery)
	}
	if q.Offset < 0 {
		return fmt.Errorf("%w: negative offset", ErrInvalidQuery)
	}
	return nil
}

func (q AgentQuery) match(a *domain.Agent) bool {
	if q.Rank != "" && a.Rank != q.Rank {
		return false
	}
	if a.TotalPredictions < q.MinPredictions {
		return false
	}
	if q.MinAccuracyBps > 0 && !scoring.AccuracyAtLeast(a.CorrectPredictions, a.TotalPredictions, q.MinAccuracyBps) {
		return false
	}
	if q.Search != "" && !strings.Contains(strings.ToLower(a.Name), strings.ToLower(q.Search)) {
		return false
	}
	return true
}

// QueryAgents runs q over every agent and returns the requested page and the
// number of agents that matched before paging.
func (e *Engine) QueryAgents(ctx context.Context, q AgentQuery) ([]*domain.Agent, int, error) {
	if err := q.validate(); err != nil {
		return nil, 0, err
	}
	agents, err := e.Agents(ctx)
	if err != nil {
		return nil, 0, err
	}
	return SelectAgents(agents, q)
}

// SelectAgents applies q to agents, which are taken in join order. The input
// slice is not modified.
func SelectAgents(agents []*domain.Agent, q AgentQuery) ([]*domain.Agent, int, error) {
	if err := q.validate(); err != nil {
		return nil, 0, err
	}

	matched := make([]*domain.Agent, 0, len(agents))
	for _, a := range agents {
		if q.match(a) {
			matched = append(matched, a)
		}
	}
	if q.SortBy != SortJoined {
		sort.SliceStable(matched, func(i, j int) bool {
			return agentBefore(q.SortBy, matched[i], matched[j])
		})
	}

	total := len(matched)
	if q.Offset >= total {
		return []*domain.Agent{}, total, nil
	}
	page := matched[q.Offset:]
	if q.Limit > 0 && len(page) > q.Limit {
		page = page[:q.Limit]
	}
	return page, total, nil
}

func agentBefore(by AgentSort, a, b *domain.Agent) bool {
	switch by {
	case SortScore:
		if a.ReputationScore != b.ReputationScore {
			return a.ReputationScore > b.ReputationScore
		}
	case SortAccuracy:
		if c := scoring.CompareAccuracy(a.CorrectPredictions, a.TotalPredictions, b.CorrectPredictions, b.TotalPredictions); c != 0 {
			return c > 0
		}
	case SortStreak:
		if a.Streak != b.Streak {
			return a.Streak > b.Streak
		}
	case SortPredictions:
		if a.TotalPredictions != b.TotalPredictions {
			return a.TotalPredictions > b.TotalPredictions
		}
	}
	return leaderBefore(a, b)
}

// leaderBefore is the leaderboard order: rank tier desc, reputation desc,
// correct predictions desc, then address.
func leaderBefore(a, b *domain.Agent) bool {
	if a.Rank.Level() != b.Rank.Level() {
		return a.Rank.Level() > b.Rank.Level()
	}
	if a.ReputationScore != b.ReputationScore {
		return a.ReputationScore > b.ReputationScore
	}
	if a.CorrectPredictions != b.CorrectPredictions {
		return a.CorrectPredictions > b.CorrectPredictions
	}
	return bytes.Compare(a.Address[:], b.Address[:]) < 0
}
