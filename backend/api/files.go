package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"boardhub/backend/pathsec"
	"boardhub/backend/service/files"
)

// multipartOverhead multipart 边界与表头的额外字节
const multipartOverhead int64 = 1 << 20

func (r *Router) listFiles(c *gin.Context) {
	list, err := r.service.ListFiles(c.Request.Context())
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": list})
}

func (r *Router) uploadFile(c *gin.Context) {
	if r.maxUpload > 0 {
		limit := r.maxUpload + multipartOverhead
		if c.Request.ContentLength > limit {
			r.handleError(c, fmt.Errorf("%w: limit is %d bytes", files.ErrTooLarge, r.maxUpload))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			r.handleError(c, fmt.Errorf("%w: limit is %d bytes", files.ErrTooLarge, r.maxUpload))
			return
		}
		badRequest(c, fmt.Errorf("multipart field 'file' is required: %w", err))
		return
	}
	src, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer src.Close()

	stored, err := r.service.UploadFile(c.Request.Context(), header.Filename, src)
	if err != nil {
		r.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func (r *Router) downloadFile(c *gin.Context) {
	f, info, err := r.service.OpenFile(c.Request.Context(), c.Param("name"))
	if err != nil {
		r.handleReadError(c, err)
		return
	}
	defer f.Close()

	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, f, map[string]string{
		// 清洗后的文件名只含 [A-Za-z0-9._-]，可直接放进引号
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, info.Name),
	})
}

func (r *Router) deleteFile(c *gin.Context) {
	if err := r.service.DeleteFile(c.Request.Context(), c.Param("name")); err != nil {
		r.handleReadError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleReadError 无法清洗的文件名不可能存在，按 404 返回
func (r *Router) handleReadError(c *gin.Context, err error) {
	if errors.Is(err, pathsec.ErrInvalidInput) {
		c.JSON(http.StatusNotFound, gin.H{"error": files.ErrFileNotFound.Error()})
		return
	}
	r.handleError(c, err)
}
