package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go-adega-pos/internal/catalog"
	"go-adega-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: List active products ---
// Supports ?q= (name, sku, barcode), ?category=, ?brand= and ?limit=.
func (h *Handler) GetProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	products, err := h.catalog.Search(c.Request.Context(), catalog.Filter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Limit:    limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/products/scan/:barcode ---
func (h *Handler) ScanProduct(c *gin.Context) {
	p, err := h.catalog.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		catalogError(c, err, "look up barcode")
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	var newProduct models.Product
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Stock enters through an adjustment so every unit has an audit row.
	newProduct.ID = 0
	newProduct.Active = true
	if newProduct.ItemType == "" {
		newProduct.ItemType = models.ItemOther
	}

	userID, _, _ := currentUser(c)
	if err := h.catalog.CreateWithStock(c.Request.Context(), &newProduct, userID, "opening stock"); err != nil {
		catalogError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, newProduct)
}

// --- PUT: Update product fields ---
// Fields missing from the body keep their current value. Stock is ignored.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		catalogError(c, err, "update product")
		return
	}
	// Decoding over the loaded row gives partial-update semantics.
	if err := c.ShouldBindJSON(product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.catalog.UpdateProduct(ctx, id, product)
	if err != nil {
		catalogError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": updated})
}

// --- DELETE: Deactivate a product ---
// Rows stay because past sale items point at them.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.catalog.Deactivate(c.Request.Context(), id); err != nil {
		catalogError(c, err, "deactivate product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

type adjustRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// --- POST: /api/products/:id/adjust ---
func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _, _ := currentUser(c)
	mv, err := h.catalog.AdjustStock(c.Request.Context(), id, req.Delta, userID, req.Reason)
	if err != nil {
		catalogError(c, err, "adjust stock")
		return
	}
	c.JSON(http.StatusOK, mv)
}

// --- GET: /api/products/:id/movements ---
func (h *Handler) GetMovements(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.catalog.GetProduct(ctx, id); err != nil {
		catalogError(c, err, "fetch movements")
		return
	}
	movements, err := h.catalog.Movements(ctx, id)
	if err != nil {
		catalogError(c, err, "fetch movements")
		return
	}
	c.JSON(http.StatusOK, movements)
}

// --- POST: /api/products/import ---
// Takes a multipart "file": .xlsx goes through excelize, anything else is
// read as ';' separated CSV.
func (h *Handler) ImportProducts(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	userID, _, _ := currentUser(c)
	var res *catalog.ImportResult
	if strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		res, err = h.catalog.ImportXLSX(ctx, f, userID)
	} else {
		res, err = h.catalog.ImportCSV(ctx, f, userID)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- GET: /api/products/low-stock ---
func (h *Handler) LowStock(c *gin.Context) {
	products, err := h.catalog.LowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch low stock"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/products/expiring?days=30 ---
func (h *Handler) Expiring(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
		return
	}
	products, err := h.catalog.Expiring(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expiring products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/products/filters ---
// Categories and brands for the search dropdowns.
func (h *Handler) ProductFilters(c *gin.Context) {
	f, err := h.catalog.Facets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch filters"})
		return
	}
	c.JSON(http.StatusOK, f)
}
