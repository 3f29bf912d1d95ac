package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"go-adega-pos/internal/checkout"
	"go-adega-pos/internal/ledger"
	"go-adega-pos/internal/models"
	"go-adega-pos/internal/pix"
	"go-adega-pos/internal/receipt"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SaleRequest defines what the Frontend sends us
type SaleRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Items         []checkout.Line      `json:"items"`
	Discount      decimal.Decimal      `json:"discount"`
	Received      *decimal.Decimal     `json:"received"`
}

// SaleResponse carries the committed sale plus its printable forms.
type SaleResponse struct {
	Receipt     *checkout.Receipt `json:"receipt"`
	ReceiptText string            `json:"receipt_text"`
	PixPayload  string            `json:"pix_payload,omitempty"`
}

// --- POST: /api/checkout ---
func (h *Handler) ProcessSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The cashier is whoever holds the token (set by AuthMiddleware).
	userID, username, _ := currentUser(c)
	rcpt, err := h.checkout.ProcessSale(c.Request.Context(), checkout.Request{
		CashierID:     userID,
		CashierName:   username,
		PaymentMethod: req.PaymentMethod,
		Items:         req.Items,
		Discount:      req.Discount,
		Received:      req.Received,
	})
	if err != nil {
		checkoutError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.saleResponse(c.Request.Context(), rcpt))
}

// --- GET: /api/sales/:id ---
func (h *Handler) GetSale(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sale, err := h.ledger.GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrSaleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sale"})
		return
	}
	cashier, err := h.ledger.Cashier(ctx, sale.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cashier"})
		return
	}
	c.JSON(http.StatusOK, h.saleResponse(ctx, &checkout.Receipt{Sale: sale, Cashier: cashier}))
}

func (h *Handler) saleResponse(ctx context.Context, r *checkout.Receipt) SaleResponse {
	settings, err := h.loadSettings(ctx)
	if err != nil {
		// The sale is committed either way; print with defaults.
		log.Printf("handlers: load settings for receipt: %v", err)
		def := models.DefaultSettings()
		settings = &def
	}

	var payload string
	if r.Sale.PaymentMethod == models.PaymentPix {
		payload = pix.Payload(pix.Merchant{
			Key:  settings.PixKey,
			Name: settings.StoreName,
			City: settings.PixMerchantCity,
		}, r.Sale.Total, fmt.Sprintf("VENDA%d", r.Sale.ID))
	}
	return SaleResponse{
		Receipt:     r,
		ReceiptText: receipt.Render(*settings, r, payload),
		PixPayload:  payload,
	}
}

// checkoutError turns a checkout failure into a status the till can act on.
func checkoutError(c *gin.Context, err error) {
	var (
		qtyErr      *checkout.InvalidQuantityError
		discountErr *checkout.InvalidDiscountError
		enumErr     *models.EnumError
		notFound    *checkout.ProductNotFoundError
		outOfStock  *checkout.OutOfStockError
		payment     *checkout.InsufficientPaymentError
		infra       *checkout.InfrastructureError
	)
	switch {
	case errors.As(err, &infra):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Store temporarily unavailable, try again"})
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrInvalidPayment),
		errors.As(err, &qtyErr), errors.As(err, &discountErr), errors.As(err, &enumErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "product_id": notFound.ProductID})
	case errors.As(err, &outOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "shortages": outOfStock.Shortages, "retryable": false})
	case errors.Is(err, checkout.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": checkout.ErrConcurrencyConflict.Error(), "retryable": true})
	case errors.As(err, &payment):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "required": payment.Required, "received": payment.Received})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Request canceled"})
	default:
		log.Printf("handlers: unexpected checkout error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
	}
}
