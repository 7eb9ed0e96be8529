package handlers

import (
	"net/http"
	"strconv"

	"sellersync/internal/logger"
	"sellersync/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SellerHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewSellerHandler(db *gorm.DB, logger *logger.Logger) *SellerHandler {
	return &SellerHandler{
		db:     db,
		logger: logger,
	}
}

func (h *SellerHandler) List(c *gin.Context) {
	var sellers []models.Seller

	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	// Filters
	stateSlug := c.Query("state")
	search := c.Query("search")

	query := h.db.Model(&models.Seller{}).Preload("StateTerm")

	if stateSlug != "" {
		query = query.Joins("JOIN state_terms ON state_terms.id = sellers.state_term_id").
			Where("state_terms.slug = ?", stateSlug)
	}

	if search != "" {
		query = query.Where("sellers.name LIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	if err := query.Order("sellers.name").Offset(offset).Limit(limit).Find(&sellers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sellers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": sellers,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *SellerHandler) Get(c *gin.Context) {
	slug := c.Param("slug")

	var seller models.Seller
	if err := h.db.Preload("StateTerm").First(&seller, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Seller not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch seller"})
		return
	}

	var logo models.LogoAsset
	if err := h.db.First(&logo, "seller_id = ?", seller.ID).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"data": seller, "logo": logo})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": seller})
}
