package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
)

func (s *Server) ListApprovalHistory(c *gin.Context) {
	var query struct {
		pagination.Pagination
		SubscriptionID string `form:"subscription_id"`
		Action         string `form:"action"`
		ActorID        string `form:"actor_id"`
		From           string `form:"from"`
		To             string `form:"to"`
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

	req := auditdomain.ListRequest{
		SubscriptionID: strings.TrimSpace(query.SubscriptionID),
		Action:         strings.TrimSpace(query.Action),
		ActorID:        strings.TrimSpace(query.ActorID),
		Pagination:     query.Pagination,
	}
	if from != nil {
		req.From = *from
	}
	if to != nil {
		req.To = *to
	}

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSubscriptionHistory(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Action string `form:"action"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListRequest{
		SubscriptionID: c.Param("id"),
		Action:         strings.TrimSpace(query.Action),
		Pagination:     query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
