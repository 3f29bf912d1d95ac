package handlers

import (
	"net/http"

	"go-adega-pos/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetSuppliers(c *gin.Context) {
	suppliers, err := h.catalog.ListSuppliers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suppliers"})
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *Handler) AddSupplier(c *gin.Context) {
	var s models.Supplier
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.ID = 0
	if err := h.catalog.CreateSupplier(c.Request.Context(), &s); err != nil {
		catalogError(c, err, "create supplier")
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) UpdateSupplier(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var s models.Supplier
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.catalog.UpdateSupplier(c.Request.Context(), id, &s)
	if err != nil {
		catalogError(c, err, "update supplier")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteSupplier detaches the supplier's products before removing it.
func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteSupplier(c.Request.Context(), id); err != nil {
		catalogError(c, err, "delete supplier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted successfully"})
}
