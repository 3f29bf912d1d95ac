package handlers

import (
	"net/http"
	"strings"

	"go-adega-pos/internal/auth"
	"go-adega-pos/internal/models"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Find User in DB
	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("username = ?", strings.TrimSpace(input.Username)).
		First(&user).Error
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. Verify Password (PBKDF2, constant-time compare)
	if !auth.VerifyPassword(input.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. Generate JWT Token
	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
	})
}

// Register opens self sign-up. The first account becomes admin, later ones
// are cashiers until an admin promotes them.
func (h *Handler) Register(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	role := models.RoleCashier
	var count int64
	if err := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}
	if count == 0 {
		role = models.RoleAdmin
	}

	user, err := h.createUser(c, input.Username, input.Password, role)
	if err != nil {
		userError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "user": user})
}
