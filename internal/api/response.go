package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"signal-arena/internal/engine"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.AbortWithStatusJSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

type errorMapping struct {
	err    error
	status int
	kind   string
}

var errorTable = []errorMapping{
	{engine.ErrNameTooLong, http.StatusBadRequest, "name_too_long"},
	{engine.ErrEndpointTooLong, http.StatusBadRequest, "endpoint_too_long"},
	{engine.ErrInvalidPrizeSplit, http.StatusBadRequest, "invalid_prize_split"},
	{engine.ErrPredictionDataTooLong, http.StatusBadRequest, "prediction_data_too_long"},
	{engine.ErrInvalidAchievement, http.StatusBadRequest, "invalid_achievement"},
	{engine.ErrInvalidAddress, http.StatusBadRequest, "invalid_address"},
	{engine.ErrHashMismatch, http.StatusBadRequest, "hash_mismatch"},
	{engine.ErrArithmeticOverflow, http.StatusBadRequest, "arithmetic_overflow"},
	{engine.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"},

	{engine.ErrUnauthorized, http.StatusForbidden, "unauthorized"},

	{engine.ErrNotInitialized, http.StatusNotFound, "not_initialized"},
	{engine.ErrAgentNotFound, http.StatusNotFound, "agent_not_found"},
	{engine.ErrSeasonNotFound, http.StatusNotFound, "season_not_found"},
	{engine.ErrPredictionNotFound, http.StatusNotFound, "prediction_not_found"},

	{engine.ErrSeasonNotActive, http.StatusConflict, "season_not_active"},
	{engine.ErrSeasonEnded, http.StatusConflict, "season_ended"},
	{engine.ErrSeasonNotEnded, http.StatusConflict, "season_not_ended"},
	{engine.ErrInvalidSeasonStatus, http.StatusConflict, "invalid_season_status"},
	{engine.ErrInvalidPredictionStatus, http.StatusConflict, "invalid_prediction_status"},
	{engine.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
	{engine.ErrAlreadyInitialized, http.StatusConflict, "already_initialized"},
	{engine.ErrAgentExists, http.StatusConflict, "agent_exists"},
	{engine.ErrAlreadyEntered, http.StatusConflict, "already_entered"},
	{engine.ErrNotEntered, http.StatusConflict, "not_entered"},
}

// fail writes the envelope for an engine error. Unknown errors are logged
// and reported as 500 without detail.
func fail(c *gin.Context, logger *zap.Logger, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			Error(c, m.status, err.Error(), map[string]any{"error": m.kind})
			return
		}
	}
	logger.Error("request failed",
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	Error(c, http.StatusInternalServerError, "internal error", nil)
}
