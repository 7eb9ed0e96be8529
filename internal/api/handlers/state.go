package handlers

import (
	"net/http"

	"sellersync/internal/logger"
	"sellersync/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StateHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewStateHandler(db *gorm.DB, logger *logger.Logger) *StateHandler {
	return &StateHandler{
		db:     db,
		logger: logger,
	}
}

type stateWithCount struct {
	models.StateTerm
	SellerCount int64 `json:"seller_count"`
}

func (h *StateHandler) List(c *gin.Context) {
	var terms []models.StateTerm
	if err := h.db.Order("name").Find(&terms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch states"})
		return
	}

	out := make([]stateWithCount, 0, len(terms))
	for _, term := range terms {
		var count int64
		h.db.Model(&models.Seller{}).Where("state_term_id = ?", term.ID).Count(&count)
		out = append(out, stateWithCount{StateTerm: term, SellerCount: count})
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}
