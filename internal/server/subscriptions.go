package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	"github.com/lovably74/SmartCON-sub001/internal/tenantctx"
	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
)

// SubmissionRateLimit throttles subscription submissions per tenant. Requests
// without a tenant context pass through and fail tenant validation downstream.
func (s *Server) SubmissionRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.submitLimiter == nil {
			c.Next()
			return
		}

		tenantID, ok := tenantctx.TenantIDFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		if !s.submitLimiter.Allow(c.Request.Context(), tenantID) {
			s.obsMetrics.RecordRateLimited(c.Request.Context(), "submit_subscription")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many submissions, retry later",
			}})
			return
		}
		c.Next()
	}
}

func (s *Server) SubmitSubscription(c *gin.Context) {
	var req struct {
		PlanID         string `json:"plan_id"`
		PaymentMethod  string `json:"payment_method"`
		MonthlyAmount  int64  `json:"monthly_amount"`
		VerifiedTenant bool   `json:"verified_tenant"`
		RequestedBy    string `json:"requested_by"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.subscriptionSvc.Submit(c.Request.Context(), subscriptiondomain.SubmitRequest{
		PlanID:         strings.TrimSpace(req.PlanID),
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		MonthlyAmount:  req.MonthlyAmount,
		VerifiedTenant: req.VerifiedTenant,
		RequestedBy:    strings.TrimSpace(req.RequestedBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordSubmission(c.Request.Context(), string(resp.Status))

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) transitionHandler(action subscriptiondomain.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason string `json:"reason"`
		}
		// Reason is optional for some actions, so an empty body is fine.
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				AbortWithError(c, ErrInvalidRequest)
				return
			}
		}

		resp, err := s.subscriptionSvc.Transition(c.Request.Context(), subscriptiondomain.TransitionRequest{
			ID:             c.Param("id"),
			Action:         action,
			Reason:         strings.TrimSpace(req.Reason),
			IdempotencyKey: strings.TrimSpace(c.GetHeader(headerIdempotencyKey)),
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}

		s.obsMetrics.RecordTransition(c.Request.Context(), string(action))

		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

func (s *Server) GetSubscriptionByID(c *gin.Context) {
	resp, err := s.subscriptionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSubscriptions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		TenantID string `form:"tenant_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tenantID := strings.TrimSpace(query.TenantID)
	// Tenant-facing calls are always scoped to the caller's own tenant.
	if callerTenant, ok := tenantctx.TenantIDFromContext(c.Request.Context()); ok {
		tenantID = callerTenant.String()
	}

	resp, err := s.subscriptionSvc.List(c.Request.Context(), subscriptiondomain.ListRequest{
		TenantID:   tenantID,
		Status:     subscriptiondomain.Status(strings.TrimSpace(query.Status)),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
