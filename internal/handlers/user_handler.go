package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-adega-pos/internal/auth"
	"go-adega-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	errUserExists   = errors.New("user already exists")
	errUserNotFound = errors.New("user not found")
	errNoUsername   = errors.New("username is required")
	errWeakPassword = errors.New("password must have at least 4 characters")
)

func (h *Handler) createUser(c *gin.Context, username, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errNoUsername
	}
	if len(password) < 4 {
		return nil, errWeakPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errUserExists
		}
		return nil, err
	}
	return &user, nil
}

func userError(c *gin.Context, err error) {
	var enumErr *models.EnumError
	switch {
	case errors.Is(err, errUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errWeakPassword), errors.Is(err, errNoUsername), errors.As(err, &enumErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
	}
}

type createUserRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
}

// --- GET: /api/users ---
func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.WithContext(c.Request.Context()).Order("username").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// --- POST: /api/users ---
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.createUser(c, req.Username, req.Password, req.Role)
	if err != nil {
		userError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// --- PUT: /api/users/:id/role ---
func (h *Handler) SetUserRole(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if self, _, _ := currentUser(c); self == id && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot demote yourself"})
		return
	}
	user, err := h.updateUser(c, id, "role", req.Role)
	if err != nil {
		userError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// --- PUT: /api/users/:id/password ---
func (h *Handler) ResetPassword(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.setPassword(c, id, req.Password); err != nil {
		userError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// --- PUT: /api/me/password ---
// ChangePassword lets any signed-in user rotate their own password.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		Current string `json:"current_password" binding:"required"`
		New     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, _, _ := currentUser(c)
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
		return
	}
	if !auth.VerifyPassword(req.Current, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is wrong"})
		return
	}
	if err := h.setPassword(c, id, req.New); err != nil {
		userError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *Handler) setPassword(c *gin.Context, id uint, password string) error {
	if len(password) < 4 {
		return errWeakPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = h.updateUser(c, id, "password_hash", hash)
	return err
}

func (h *Handler) updateUser(c *gin.Context, id uint, column string, value any) (*models.User, error) {
	db := h.db.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	if err := db.Model(&user).Update(column, value).Error; err != nil {
		return nil, err
	}
	if err := db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

var errUserHasSales = errors.New("user has recorded sales and cannot be deleted")

// --- DELETE: /api/users/:id ---
// Users referenced by the sales ledger stay; change their role instead.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if self, _, _ := currentUser(c); self == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete the logged-in user"})
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUserNotFound
			}
			return err
		}
		var sales int64
		if err := tx.Model(&models.Sale{}).Where("user_id = ?", id).Count(&sales).Error; err != nil {
			return err
		}
		if sales > 0 {
			return errUserHasSales
		}
		return tx.Delete(&user).Error
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	case errors.Is(err, errUserHasSales):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		userError(c, err)
	}
}
