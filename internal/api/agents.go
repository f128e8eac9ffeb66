package api

import (
	"github.com/gin-gonic/gin"

	"signal-arena/internal/cache"
	"signal-arena/internal/domain"
	"signal-arena/internal/engine"
)

type registerAgentRequest struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// registerAgent creates the signer's agent.
func (h *Handler) registerAgent(c *gin.Context) {
	var req registerAgentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	agent, err := h.eng.RegisterAgent(ctx, signerOf(c), req.Name, req.Endpoint)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	cache.Invalidate(ctx, h.cache, leaderboardKey)
	Ok(c, newAgentView(agent), nil)
}

func (h *Handler) getAgent(c *gin.Context) {
	addr, ok := pathAddress(c, "address")
	if !ok {
		return
	}
	agent, err := h.eng.Agent(c.Request.Context(), addr)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newAgentView(agent), nil)
}

// listAgents returns agents in join order unless sortBy is given.
func (h *Handler) listAgents(c *gin.Context) {
	q, page, ok := parseAgentQuery(c, engine.SortJoined)
	if !ok {
		return
	}
	agents, total, err := h.eng.QueryAgents(c.Request.Context(), q)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newAgentViews(agents), page.meta(len(agents), total))
}

// leaderboard pages the cached agent set, ordered by rank unless sortBy is given.
func (h *Handler) leaderboard(c *gin.Context) {
	q, page, ok := parseAgentQuery(c, engine.SortRank)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	agents, err := cache.Fetch(ctx, h.cache, leaderboardKey, h.ttl, h.eng.Agents)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	board, total, err := engine.SelectAgents(agents, q)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newAgentViews(board), page.meta(len(board), total))
}

func (h *Handler) listPredictions(c *gin.Context) {
	addr, ok := pathAddress(c, "address")
	if !ok {
		return
	}
	preds, err := h.eng.Predictions(c.Request.Context(), addr)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	out := make([]predictionView, len(preds))
	for i, p := range preds {
		out[i] = newPredictionView(p)
	}
	Ok(c, out, map[string]any{"count": len(out)})
}

func (h *Handler) listAchievements(c *gin.Context) {
	addr, ok := pathAddress(c, "address")
	if !ok {
		return
	}
	achs, err := h.eng.Achievements(c.Request.Context(), addr)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	out := make([]achievementView, len(achs))
	for i, a := range achs {
		out[i] = newAchievementView(a)
	}
	Ok(c, out, map[string]any{"count": len(out)})
}

type awardRequest struct {
	AchievementType domain.AchievementType `json:"achievement_type"`
}

func (h *Handler) awardAchievement(c *gin.Context) {
	addr, ok := pathAddress(c, "address")
	if !ok {
		return
	}
	var req awardRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	ach, err := h.eng.AwardAchievement(ctx, addr, signerOf(c), req.AchievementType)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	cache.Invalidate(ctx, h.cache, leaderboardKey)
	Ok(c, newAchievementView(ach), nil)
}
