package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zapbot/api/internal/middleware"
	"zapbot/api/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Email e senha são obrigatórios",
		})
		return
	}

	result := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login realizado com sucesso!",
		"user":    result.User,
		"token":   result.Token,
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

func (h HandlerSet) SignUp(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Email, senha e nome são obrigatórios",
		})
		return
	}

	result := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.Name, req.Phone)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Usuário criado com sucesso!",
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	token := c.GetString(middleware.ContextToken)

	result := h.authService.Logout(c.Request.Context(), token)
	if !result.Success {
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout realizado com sucesso!",
	})
}

func (h HandlerSet) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token inválido"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func currentUser(c *gin.Context) *models.PublicUser {
	value, exists := c.Get(middleware.ContextUser)
	if !exists {
		return nil
	}
	user, ok := value.(*models.PublicUser)
	if !ok {
		return nil
	}
	return user
}
