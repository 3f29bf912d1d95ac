package handlers

import (
	"context"
	"net/http"

	"go-adega-pos/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) loadSettings(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	if err := h.db.WithContext(ctx).First(&s, models.SettingsID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// --- GET: /api/settings ---
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.loadSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// --- PUT: /api/settings ---
// Fields left out of the body keep their stored value.
func (h *Handler) UpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := h.loadSettings(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	if err := c.ShouldBindJSON(s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.ID = models.SettingsID
	if err := s.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.WithContext(ctx).Save(s).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}
