package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"go-adega-pos/internal/ai"
	"go-adega-pos/internal/auth"
	"go-adega-pos/internal/catalog"
	"go-adega-pos/internal/checkout"
	"go-adega-pos/internal/ledger"
	"go-adega-pos/internal/middleware"
	"go-adega-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler holds what the HTTP endpoints need.
type Handler struct {
	db        *gorm.DB
	catalog   *catalog.Repository
	ledger    *ledger.Repository
	checkout  *checkout.Processor
	tokens    *auth.Tokens
	assistant *ai.Assistant
}

func New(db *gorm.DB, tokens *auth.Tokens, proc *checkout.Processor, assistant *ai.Assistant) *Handler {
	return &Handler{
		db:        db,
		catalog:   catalog.New(db),
		ledger:    ledger.New(db),
		checkout:  proc,
		tokens:    tokens,
		assistant: assistant,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

// currentUser returns what AuthMiddleware put in the context.
func currentUser(c *gin.Context) (uint, string, models.Role) {
	role, _ := c.Get(middleware.KeyRole)
	r, _ := role.(models.Role)
	return c.GetUint(middleware.KeyUserID), c.GetString(middleware.KeyUsername), r
}

// catalogError maps catalog sentinels to statuses; anything else is a 500.
func catalogError(c *gin.Context, err error, action string) {
	var enumErr *models.EnumError
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrSupplierNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrStockConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, catalog.ErrNegativeStock):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrInvalid), errors.As(err, &enumErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("handlers: failed to %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}
