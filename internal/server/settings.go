package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetAutoApprovalSetting(c *gin.Context) {
	enabled, err := s.settingsSvc.AutoApprovalEnabled(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"enabled": enabled}})
}

func (s *Server) PutAutoApprovalSetting(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.settingsSvc.SetAutoApprovalEnabled(c.Request.Context(), *req.Enabled); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"enabled": *req.Enabled}})
}
