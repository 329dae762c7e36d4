package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabungan-api/internal/service"
	"github.com/noah-isme/tabungan-api/pkg/response"
)

// LedgerHandler exposes ledger maintenance endpoints.
type LedgerHandler struct {
	ledger *service.LedgerService
}

// NewLedgerHandler constructs LedgerHandler.
func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Audit godoc
// @Summary Recompute every balance from its transactions
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /ledger/audit [get]
func (h *LedgerHandler) Audit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	audit, err := h.ledger.Audit(actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audit, nil)
}
