package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hr-interview-bot/internal/admin"
	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/questions"
)

type reportsHandler struct {
	reports *admin.Reports
	logger  *zap.Logger
}

func (h *reportsHandler) stats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// recent отдает последние результаты; ?track= фильтрует по позиции
func (h *reportsHandler) recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		rows []admin.ResultRow
		err  error
	)
	if track := c.Query("track"); track != "" {
		rows, err = h.reports.ByTrack(c.Request.Context(), questions.Track(track), limit)
	} else {
		rows, err = h.reports.Recent(c.Request.Context(), limit)
	}
	if errors.Is(err, interview.ErrUnknownTrack) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown track"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func (h *reportsHandler) candidate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid candidate id"})
		return
	}

	detail, err := h.reports.Detail(c.Request.Context(), id)
	if errors.Is(err, interview.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "result not found"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *reportsHandler) fail(c *gin.Context, err error) {
	h.logger.Error("report request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
