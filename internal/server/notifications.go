package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	notifdomain "github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	"github.com/lovably74/SmartCON-sub001/internal/tenantctx"
	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
)

func (s *Server) ListNotifications(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Recipient  string `form:"recipient"`
		UnreadOnly bool   `form:"unread_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	recipient := strings.TrimSpace(query.Recipient)
	// Tenant-facing calls only see their own feed; admin calls default to the
	// platform inbox unless a recipient is named.
	if tenantID, ok := tenantctx.TenantIDFromContext(c.Request.Context()); ok {
		recipient = notifdomain.TenantRecipient(tenantID)
	} else if recipient == "" {
		recipient = s.cfg.PlatformAdminRecipient
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), notifdomain.ListRequest{
		Recipient:  recipient,
		UnreadOnly: query.UnreadOnly,
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	if err := s.notificationSvc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"read": true}})
}
