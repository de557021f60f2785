package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lovably74/SmartCON-sub001/internal/stats"
)

func (s *Server) GetApprovalStats(c *gin.Context) {
	var query struct {
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	from, err := parseOptionalDate(query.From)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	to, err := parseOptionalDate(query.To)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req := stats.SummarizeRequest{}
	if from != nil {
		req.From = *from
	}
	if to != nil {
		req.To = *to
	}

	resp, err := s.statsSvc.Summarize(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseOptionalDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, err
		}
	}
	return &parsed, nil
}
