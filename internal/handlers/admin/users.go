package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ciment_back_end/internal/handlers"
	"ciment_back_end/internal/middleware"
	"ciment_back_end/internal/services"
)

func (h *Handler) Users(c *gin.Context) {
	page, err := h.users.ListUsers(c.Request.Context(), handlers.PageParam(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) User(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.User(c.Request.Context(), id)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BindError(c, err)
		return
	}
	u, err := h.users.CreateUser(c.Request.Context(), in)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	middleware.SetAuditTarget(c, strconv.FormatUint(uint64(u.ID), 10), gin.H{"username": u.Username, "is_staff": u.IsStaff})
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BindError(c, err)
		return
	}
	u, err := h.users.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	middleware.SetAuditTarget(c, c.Param("id"), gin.H{"username": u.Username, "is_staff": u.IsStaff, "is_active": u.IsActive})
	c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := handlers.ParamID(c, "id")
	if !ok {
		return
	}
	if id == c.GetUint("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vous ne pouvez pas supprimer votre propre compte"})
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Utilisateur supprimé avec succès"})
}
