package handlers

import (
	"net/http"

	"trimly/services/rating"
	"trimly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RatingHandler exposes rating submission and shop statistics over HTTP.
type RatingHandler struct {
	Service rating.RatingService
	Logger  *zap.Logger
}

func NewRatingHandler(svc rating.RatingService, logger *zap.Logger) *RatingHandler {
	return &RatingHandler{Service: svc, Logger: logger}
}

// SubmitRatingHandler rates a completed appointment.
// POST /api/ratings
func (h *RatingHandler) SubmitRatingHandler(c *gin.Context) {
	var req rating.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	r, err := h.Service.SubmitRating(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rating": r})
}

// GetShopRatingHandler returns a shop's aggregate rating statistics.
// GET /api/shops/:id/rating
func (h *RatingHandler) GetShopRatingHandler(c *gin.Context) {
	agg, err := h.Service.GetShopRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rating": agg})
}

// ListShopRatingsHandler returns a shop's individual ratings.
// GET /api/shops/:id/ratings
func (h *RatingHandler) ListShopRatingsHandler(c *gin.Context) {
	ratings, err := h.Service.ListShopRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}
