package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) BotStatus(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token inválido"})
		return
	}

	status := h.registry.Status(user.ID)
	c.JSON(http.StatusOK, gin.H{
		"isActive":    status.IsActive,
		"isConnected": status.IsConnected,
		"qrCode":      status.QRCode,
		"config":      status.Config,
		"settings":    status.Settings,
	})
}

type botStartRequest struct {
	Config   map[string]any `json:"config"`
	Settings map[string]any `json:"settings"`
}

func (h HandlerSet) BotStart(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token inválido"})
		return
	}

	var req botStartRequest
	// An empty body is fine; defaults and stored config apply.
	_ = c.ShouldBindJSON(&req)

	result := h.registry.Start(c.Request.Context(), user.ID, req.Config, req.Settings)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) BotStop(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token inválido"})
		return
	}

	result := h.registry.Stop(c.Request.Context(), user.ID)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) BotConfig(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token inválido"})
		return
	}

	var partial map[string]any
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Configuração inválida"})
		return
	}

	result := h.registry.UpdateConfig(c.Request.Context(), user.ID, partial)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) BotSettings(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token inválido"})
		return
	}

	var partial map[string]any
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Configuração inválida"})
		return
	}

	result := h.registry.UpdateSettings(c.Request.Context(), user.ID, partial)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
