package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"boardhub/backend/domain"
)

// queryBool 解析 ?refresh=1 / ?refresh=true；无法解析按 false 处理
func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func (r *Router) listBoards(c *gin.Context) {
	boards, err := r.service.ListBoards(c.Request.Context(), queryBool(c, "refresh"))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards})
}

func (r *Router) getBoard(c *gin.Context) {
	board, err := r.service.GetBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (r *Router) listBoardSubscribers(c *gin.Context) {
	subs, err := r.service.ListBoardSubscribers(c.Request.Context(), c.Param("id"), queryBool(c, "refresh"))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribers": subs})
}

type subscriberRequest struct {
	BoardID string `json:"boardId" binding:"required"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
}

func (req subscriberRequest) toDomain() domain.Subscriber {
	return domain.Subscriber{
		BoardID: req.BoardID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
	}
}

func (r *Router) listSubscribers(c *gin.Context) {
	subs, err := r.service.ListSubscribers(c.Request.Context())
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribers": subs})
}

func (r *Router) getSubscriber(c *gin.Context) {
	sub, err := r.service.GetSubscriber(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (r *Router) createSubscriber(c *gin.Context) {
	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := r.service.CreateSubscriber(c.Request.Context(), req.toDomain())
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (r *Router) updateSubscriber(c *gin.Context) {
	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := r.service.UpdateSubscriber(c.Request.Context(), c.Param("id"), req.toDomain())
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (r *Router) deleteSubscriber(c *gin.Context) {
	if err := r.service.DeleteSubscriber(c.Request.Context(), c.Param("id")); err != nil {
		r.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
