package handlers

import (
	"errors"
	"log"
	"net/http"

	"go-adega-pos/internal/ai"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	response, err := h.assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, ai.ErrNoAPIKey) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured"})
			return
		}
		log.Printf("handlers: assistant: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant failed to answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
