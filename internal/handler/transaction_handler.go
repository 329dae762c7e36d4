package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabungan-api/internal/dto"
	"github.com/noah-isme/tabungan-api/internal/service"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
	"github.com/noah-isme/tabungan-api/pkg/response"
)

// TransactionHandler exposes deposit and withdrawal endpoints.
type TransactionHandler struct {
	ledger *service.LedgerService
}

// NewTransactionHandler constructs TransactionHandler.
func NewTransactionHandler(ledger *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// Create godoc
// @Summary Record a deposit or withdrawal
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateTransactionRequest true "Transaction payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	txn, err := h.ledger.AddTransaction(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, _ := h.ledger.GetStudent(txn.StudentID)
	response.JSON(c, http.StatusCreated, txn, nil, map[string]interface{}{"balance": student.Balance})
}

// Get godoc
// @Summary Get transaction
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Envelope
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	txn, ok := h.ledger.GetTransaction(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "transaction not found"))
		return
	}
	response.JSON(c, http.StatusOK, txn, nil)
}

// Update godoc
// @Summary Edit a transaction
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param payload body dto.UpdateTransactionRequest true "Transaction payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /transactions/{id} [patch]
func (h *TransactionHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	txn, err := h.ledger.UpdateTransaction(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, _ := h.ledger.GetStudent(txn.StudentID)
	response.JSON(c, http.StatusOK, txn, nil, map[string]interface{}{"balance": student.Balance})
}

// Delete godoc
// @Summary Delete a transaction and reverse its effect
// @Tags Transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.ledger.DeleteTransaction(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
