package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boardhub/backend/domain"
)

type scheduleRequest struct {
	Name     string         `json:"name" binding:"required"`
	Channel  domain.Channel `json:"channel" binding:"required"`
	BoardID  string         `json:"boardId,omitempty"`
	Cron     string         `json:"cron" binding:"required"`
	Timezone string         `json:"timezone,omitempty"`
	Message  string         `json:"message,omitempty"`
	// 省略时默认启用
	Enabled *bool `json:"enabled,omitempty"`
}

func (req scheduleRequest) toDomain() domain.Schedule {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return domain.Schedule{
		Name:     req.Name,
		Channel:  req.Channel,
		BoardID:  req.BoardID,
		CronExpr: req.Cron,
		Timezone: req.Timezone,
		Message:  req.Message,
		Enabled:  enabled,
	}
}

func (r *Router) listSchedules(c *gin.Context) {
	channel := domain.Channel(c.Query("channel"))
	schedules, err := r.service.ListSchedules(c.Request.Context(), channel)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

func (r *Router) getSchedule(c *gin.Context) {
	sched, err := r.service.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (r *Router) createSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sched, err := r.service.CreateSchedule(c.Request.Context(), req.toDomain())
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sched)
}

func (r *Router) updateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sched, err := r.service.UpdateSchedule(c.Request.Context(), c.Param("id"), req.toDomain())
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (r *Router) enableSchedule(c *gin.Context)  { r.setScheduleEnabled(c, true) }
func (r *Router) disableSchedule(c *gin.Context) { r.setScheduleEnabled(c, false) }

func (r *Router) setScheduleEnabled(c *gin.Context, enabled bool) {
	sched, err := r.service.SetScheduleEnabled(c.Request.Context(), c.Param("id"), enabled)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (r *Router) deleteSchedule(c *gin.Context) {
	if err := r.service.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		r.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
