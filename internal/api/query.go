package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"signal-arena/internal/domain"
	"signal-arena/internal/engine"
)

// Listing page bounds.
const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxPage        = 1 << 20
)

type pagination struct {
	page    int
	perPage int
}

func (p pagination) meta(count, total int) map[string]any {
	return map[string]any{
		"count":    count,
		"total":    total,
		"page":     p.page,
		"per_page": p.perPage,
		"has_next": p.page*p.perPage < total,
	}
}

// parseAgentQuery reads page, perPage, rank, minAccuracy, minPredictions,
// search and sortBy. It writes a 400 itself and returns false on bad input.
func parseAgentQuery(c *gin.Context, defaultSort engine.AgentSort) (engine.AgentQuery, pagination, bool) {
	q := engine.AgentQuery{SortBy: defaultSort}
	p := pagination{page: 1, perPage: defaultPerPage}

	bad := func(field string) (engine.AgentQuery, pagination, bool) {
		Error(c, http.StatusBadRequest, "invalid "+field, map[string]any{"error": "invalid_query"})
		return engine.AgentQuery{}, pagination{}, false
	}

	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPage {
			return bad("page")
		}
		p.page = n
	}
	if raw := strings.TrimSpace(c.Query("perPage")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return bad("perPage")
		}
		p.perPage = min(n, maxPerPage)
	}
	q.Offset = (p.page - 1) * p.perPage
	q.Limit = p.perPage

	if raw := strings.TrimSpace(c.Query("rank")); raw != "" && !strings.EqualFold(raw, "all") {
		r := domain.Rank(strings.ToUpper(raw))
		if !r.IsValid() {
			return bad("rank")
		}
		q.Rank = r
	}

	if raw := strings.TrimSpace(c.Query("minAccuracy")); raw != "" {
		pct, err := decimal.NewFromString(raw)
		if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return bad("minAccuracy")
		}
		// Percent to basis points, rounded up so the floor is never loosened.
		q.MinAccuracyBps = uint64(pct.Shift(2).Ceil().IntPart())
	}

	if raw := strings.TrimSpace(c.Query("minPredictions")); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return bad("minPredictions")
		}
		q.MinPredictions = n
	}

	q.Search = strings.TrimSpace(c.Query("search"))

	if raw := strings.TrimSpace(c.Query("sortBy")); raw != "" {
		by := engine.AgentSort(strings.ToLower(raw))
		if by == engine.SortJoined || !by.IsValid() {
			return bad("sortBy")
		}
		q.SortBy = by
	}
	return q, p, true
}
