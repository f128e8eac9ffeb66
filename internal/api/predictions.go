package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getPrediction(c *gin.Context) {
	addr, ok := pathAddress(c, "address")
	if !ok {
		return
	}
	pred, err := h.eng.Prediction(c.Request.Context(), addr)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newPredictionView(pred), nil)
}

type revealRequest struct {
	PredictionData string `json:"prediction_data"`
}

func (h *Handler) reveal(c *gin.Context) {
	addr, ok := pathAddress(c, "address")
	if !ok {
		return
	}
	var req revealRequest
	if !bindJSON(c, &req) {
		return
	}
	pred, err := h.eng.RevealPrediction(c.Request.Context(), addr, signerOf(c), req.PredictionData)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newPredictionView(pred), nil)
}

type resolveRequest struct {
	WasCorrect *bool `json:"was_correct"`
}

func (h *Handler) resolve(c *gin.Context) {
	addr, ok := pathAddress(c, "address")
	if !ok {
		return
	}
	var req resolveRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.WasCorrect == nil {
		Error(c, http.StatusBadRequest, "was_correct required", nil)
		return
	}
	ctx := c.Request.Context()
	res, err := h.eng.ResolvePrediction(ctx, addr, signerOf(c), *req.WasCorrect)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	InvalidateSeason(ctx, h.cache, res.Prediction.SeasonID)
	Ok(c, newResolutionView(res), nil)
}
