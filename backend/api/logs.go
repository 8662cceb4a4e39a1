package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
}

// parseOffset 解析非负的字节偏移；空值为 0
func parseOffset(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid 'since' parameter %q: must be a non-negative integer", raw)
	}
	return v, nil
}

// getAppLogs 按字节偏移增量读取应用日志，前端用返回的 to 作为下一次的 since
func (r *Router) getAppLogs(c *gin.Context) {
	since, err := parseOffset(c.Query("since"))
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, r.service.GetAppLogs(since))
}
