package api

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"signal-arena/internal/cache"
	"signal-arena/internal/domain"
)

type createSeasonRequest struct {
	EntryFee     uint64 `json:"entry_fee"`
	DurationDays uint32 `json:"duration_days"`
	PrizePoolBps uint16 `json:"prize_pool_bps"`
}

func (h *Handler) createSeason(c *gin.Context) {
	var req createSeasonRequest
	if !bindJSON(c, &req) {
		return
	}
	season, err := h.eng.CreateSeason(c.Request.Context(), signerOf(c), req.EntryFee, req.DurationDays, req.PrizePoolBps)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newSeasonView(season), nil)
}

func (h *Handler) listSeasons(c *gin.Context) {
	seasons, err := h.eng.Seasons(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	out := make([]seasonView, len(seasons))
	for i, s := range seasons {
		out[i] = newSeasonView(s)
	}
	Ok(c, out, map[string]any{"count": len(out)})
}

func (h *Handler) getSeason(c *gin.Context) {
	id, ok := pathSeasonID(c)
	if !ok {
		return
	}
	season, err := h.eng.Season(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newSeasonView(season), nil)
}

func (h *Handler) standings(c *gin.Context) {
	id, ok := pathSeasonID(c)
	if !ok {
		return
	}
	out, err := cache.Fetch(c.Request.Context(), h.cache, standingsKey(id), h.ttl, func(ctx context.Context) ([]entryView, error) {
		entries, err := h.eng.Standings(ctx, id)
		if err != nil {
			return nil, err
		}
		views := make([]entryView, len(entries))
		for i, e := range entries {
			views[i] = newEntryView(e, i+1)
		}
		return views, nil
	})
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, out, map[string]any{"count": len(out)})
}

type enterRequest struct {
	Agent *domain.Address `json:"agent"` // defaults to the signer's agent
}

// enterSeason pays the entry fee from the signer.
func (h *Handler) enterSeason(c *gin.Context) {
	id, ok := pathSeasonID(c)
	if !ok {
		return
	}
	var req enterRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	player := signerOf(c)
	agent := h.eng.Addresses().Agent(player)
	if req.Agent != nil {
		agent = *req.Agent
	}

	ctx := c.Request.Context()
	entry, err := h.eng.EnterSeason(ctx, id, agent, player)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	InvalidateSeason(ctx, h.cache, id)
	Ok(c, newEntryView(entry, 0), nil)
}

type submitRequest struct {
	Agent          *domain.Address `json:"agent"`
	PredictionHash string          `json:"prediction_hash"` // hex SHA-256
	StakeAmount    uint64          `json:"stake_amount"`
}

func (h *Handler) submitPrediction(c *gin.Context) {
	id, ok := pathSeasonID(c)
	if !ok {
		return
	}
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}
	raw, err := hex.DecodeString(req.PredictionHash)
	if err != nil || len(raw) != domain.HashLen {
		Error(c, http.StatusBadRequest, "prediction_hash must be 32 hex-encoded bytes", nil)
		return
	}
	var hash [domain.HashLen]byte
	copy(hash[:], raw)

	player := signerOf(c)
	agent := h.eng.Addresses().Agent(player)
	if req.Agent != nil {
		agent = *req.Agent
	}
	pred, err := h.eng.SubmitPrediction(c.Request.Context(), id, agent, player, hash, req.StakeAmount)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newPredictionView(pred), nil)
}

type distributeRequest struct {
	Winners []domain.Address `json:"winners"` // up to three; defaults to the top standings
}

func (h *Handler) distribute(c *gin.Context) {
	id, ok := pathSeasonID(c)
	if !ok {
		return
	}
	var req distributeRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if len(req.Winners) > 3 {
		Error(c, http.StatusBadRequest, "at most three winners", nil)
		return
	}

	ctx := c.Request.Context()
	var winners [3]domain.Address
	if len(req.Winners) == 0 {
		top, err := h.eng.TopWinners(ctx, id)
		if err != nil {
			fail(c, h.logger, err)
			return
		}
		winners = top
	} else {
		copy(winners[:], req.Winners)
	}

	d, err := h.eng.DistributePrizes(ctx, id, signerOf(c), winners)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	InvalidateSeason(ctx, h.cache, id)
	Ok(c, newDistributionView(d), nil)
}
