package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boardhub/backend/domain"
	"boardhub/backend/service/auth"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userCreateRequest struct {
	Email    string          `json:"email" binding:"required"`
	Password string          `json:"password" binding:"required"`
	Role     domain.UserRole `json:"role,omitempty"`
}

func (r *Router) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := r.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (r *Router) me(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		r.handleError(c, auth.ErrUnauthorized)
		return
	}
	user, err := r.service.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (r *Router) listUsers(c *gin.Context) {
	users, err := r.service.ListUsers(c.Request.Context())
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (r *Router) createUser(c *gin.Context) {
	var req userCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := r.service.CreateUser(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
