package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"signal-arena/internal/domain"
)

type initializeRequest struct {
	Treasury domain.Address `json:"treasury"`
}

// initialize makes the signer the arena authority.
func (h *Handler) initialize(c *gin.Context) {
	var req initializeRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	arena, err := h.eng.Initialize(ctx, signerOf(c), req.Treasury)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newArenaView(arena, 0, h.eng.Policy()), nil)
}

func (h *Handler) getArena(c *gin.Context) {
	ctx := c.Request.Context()
	arena, err := h.eng.Arena(ctx)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	balance, err := h.eng.Balance(ctx, arena.Treasury)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, newArenaView(arena, balance, h.eng.Policy()), nil)
}

type withdrawRequest struct {
	Amount uint64 `json:"amount"`
}

func (h *Handler) withdraw(c *gin.Context) {
	var req withdrawRequest
	if !bindJSON(c, &req) {
		return
	}
	remaining, err := h.eng.WithdrawTreasury(c.Request.Context(), signerOf(c), req.Amount)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, gin.H{
		"amount":        req.Amount,
		"remaining":     remaining,
		"remaining_sol": sol(remaining),
	}, nil)
}

func (h *Handler) getBalance(c *gin.Context) {
	addr, ok := pathAddress(c, "address")
	if !ok {
		return
	}
	balance, err := h.eng.Balance(c.Request.Context(), addr)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, balanceView{Address: addr, Balance: balance, SOL: sol(balance)}, nil)
}

type airdropRequest struct {
	Address domain.Address `json:"address"`
	Amount  uint64         `json:"amount"`
}

// devAirdrop mints balance for local testing. Registered only in dev.
func (h *Handler) devAirdrop(c *gin.Context) {
	var req airdropRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Address.IsZero() {
		Error(c, http.StatusBadRequest, "address required", map[string]any{"error": "invalid_address"})
		return
	}
	ctx := c.Request.Context()
	if err := h.funder.Fund(ctx, req.Address, req.Amount); err != nil {
		fail(c, h.logger, err)
		return
	}
	balance, err := h.eng.Balance(ctx, req.Address)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	Ok(c, balanceView{Address: req.Address, Balance: balance, SOL: sol(balance)}, nil)
}
