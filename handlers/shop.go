package handlers

import (
	"errors"
	"net/http"

	notificationRepo "trimly/database/repository/notification"
	shopRepo "trimly/database/repository/shop"
	"trimly/models"
	"trimly/utils"

	"github.com/gin-gonic/gin"
)

// ShopHandler exposes shop schedule management and the owner inbox.
type ShopHandler struct {
	Shops         shopRepo.ShopRepository
	Notifications notificationRepo.NotificationRepository
}

func NewShopHandler(shops shopRepo.ShopRepository, notifications notificationRepo.NotificationRepository) *ShopHandler {
	return &ShopHandler{Shops: shops, Notifications: notifications}
}

// GetShopHandler returns one shop document.
// GET /api/shops/:id
func (h *ShopHandler) GetShopHandler(c *gin.Context) {
	shop, err := h.Shops.GetShopByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shopRepo.ErrShopNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Not found", "shop does not exist")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"shop": shop})
}

// UpdateAvailabilityHandler replaces the shop's weekly schedule.
// PUT /api/shops/:id/availability
func (h *ShopHandler) UpdateAvailabilityHandler(c *gin.Context) {
	var availability models.WeeklyAvailability
	if err := c.ShouldBindJSON(&availability); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if err := h.Shops.UpdateAvailability(c.Request.Context(), c.Param("id"), availability); err != nil {
		if errors.Is(err, shopRepo.ErrShopNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Not found", "shop does not exist")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "availability updated"})
}

// ListNotificationsHandler returns the owner inbox, newest first.
// GET /api/shops/:id/notifications?unread=true
func (h *ShopHandler) ListNotificationsHandler(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.Notifications.ListShopNotifications(c.Request.Context(), c.Param("id"), unreadOnly)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationReadHandler flips one inbox record to read.
// POST /api/notifications/:id/read
func (h *ShopHandler) MarkNotificationReadHandler(c *gin.Context) {
	if err := h.Notifications.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
