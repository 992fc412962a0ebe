package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"parking-gate-backend/internal/model"
)

type paymentIntentRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency"`
}

// CreatePaymentIntent handles POST /api/payments/intent by delegating to
// the card gateway.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid amount"})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = h.stripe.Currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("Payment gateway error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Payment initialization failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clientSecret":  intent.ClientSecret,
		"transactionId": intent.ID,
	})
}

type saveTransactionRequest struct {
	TransactionID string    `json:"transactionId" binding:"required"`
	Amount        float64   `json:"amount" binding:"required,gt=0"`
	Status        string    `json:"status" binding:"required,oneof=success failed"`
	Timestamp     time.Time `json:"timestamp"`
}

// SaveTransaction handles POST /api/payments.
func (h *Handler) SaveTransaction(c *gin.Context) {
	var req saveTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	payment := model.Payment{
		UserID:        currentUserID(c),
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Status:        req.Status,
		Timestamp:     req.Timestamp,
	}
	if err := h.store.SavePayment(c.Request.Context(), &payment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction saved", "payment": payment})
}

// GetTransactions handles GET /api/transactions for the authenticated user.
func (h *Handler) GetTransactions(c *gin.Context) {
	payments, err := h.store.PaymentsByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
		return
	}
	if len(payments) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No transactions found."})
		return
	}
	c.JSON(http.StatusOK, payments)
}
