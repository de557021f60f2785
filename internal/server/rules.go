package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ruledomain "github.com/lovably74/SmartCON-sub001/internal/rule/domain"
)

func (s *Server) CreateRule(c *gin.Context) {
	var req struct {
		Name                string   `json:"name"`
		Priority            int      `json:"priority"`
		PlanFilter          []string `json:"plan_filter"`
		PaymentMethodFilter []string `json:"payment_method_filter"`
		VerifiedTenantsOnly bool     `json:"verified_tenants_only"`
		MaxAmount           *int64   `json:"max_amount"`
		Active              *bool    `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.ruleSvc.Create(c.Request.Context(), ruledomain.CreateRequest{
		Name:                strings.TrimSpace(req.Name),
		Priority:            req.Priority,
		PlanFilter:          req.PlanFilter,
		PaymentMethodFilter: req.PaymentMethodFilter,
		VerifiedTenantsOnly: req.VerifiedTenantsOnly,
		MaxAmount:           req.MaxAmount,
		Active:              req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRule(c *gin.Context) {
	var req struct {
		Name                *string   `json:"name"`
		Priority            *int      `json:"priority"`
		PlanFilter          *[]string `json:"plan_filter"`
		PaymentMethodFilter *[]string `json:"payment_method_filter"`
		VerifiedTenantsOnly *bool     `json:"verified_tenants_only"`
		MaxAmount           *int64    `json:"max_amount"`
		ClearMaxAmount      bool      `json:"clear_max_amount"`
		Active              *bool     `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.ruleSvc.Update(c.Request.Context(), ruledomain.UpdateRequest{
		ID:                  c.Param("id"),
		Name:                req.Name,
		Priority:            req.Priority,
		PlanFilter:          req.PlanFilter,
		PaymentMethodFilter: req.PaymentMethodFilter,
		VerifiedTenantsOnly: req.VerifiedTenantsOnly,
		MaxAmount:           req.MaxAmount,
		ClearMaxAmount:      req.ClearMaxAmount,
		Active:              req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRule(c *gin.Context) {
	if err := s.ruleSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ToggleRule(c *gin.Context) {
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.ruleSvc.ToggleActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRuleByID(c *gin.Context) {
	resp, err := s.ruleSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRules(c *gin.Context) {
	var query struct {
		ActiveOnly bool `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.ruleSvc.List(c.Request.Context(), ruledomain.ListRequest{ActiveOnly: query.ActiveOnly})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
