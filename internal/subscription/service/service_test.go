package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/actorctx"
	auditdomain "github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	auditrepo "github.com/lovably74/SmartCON-sub001/internal/audit/repository"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	notifdomain "github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	notifrepo "github.com/lovably74/SmartCON-sub001/internal/notification/repository"
	ruledomain "github.com/lovably74/SmartCON-sub001/internal/rule/domain"
	rulerepo "github.com/lovably74/SmartCON-sub001/internal/rule/repository"
	ruleservice "github.com/lovably74/SmartCON-sub001/internal/rule/service"
	settingsdomain "github.com/lovably74/SmartCON-sub001/internal/settings/domain"
	settingsrepo "github.com/lovably74/SmartCON-sub001/internal/settings/repository"
	settingsservice "github.com/lovably74/SmartCON-sub001/internal/settings/service"
	"github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	"github.com/lovably74/SmartCON-sub001/internal/subscription/repository"
	"github.com/lovably74/SmartCON-sub001/internal/tenantctx"
	"github.com/lovably74/SmartCON-sub001/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc       domain.Service
	rules     ruledomain.Service
	settings  settingsdomain.Service
	auditRepo auditdomain.Repository
	notifRepo notifdomain.Repository
	conn      *gorm.DB
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&ruledomain.AutoApprovalRule{},
		&settingsdomain.PlatformSetting{},
		&auditdomain.ApprovalHistoryEntry{},
		&notifdomain.Notification{},
		&domain.Subscription{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.SystemClock{}
	cfg := config.Config{PlatformAdminRecipient: "platform-admins"}

	rules := ruleservice.New(ruleservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk,
		Repo: rulerepo.Provide(), Cfg: cfg,
	})
	settings := settingsservice.New(settingsservice.Params{
		DB: conn, Log: log, Clock: clk, Repo: settingsrepo.Provide(),
	})
	auditRepo := auditrepo.Provide()
	notifRepo := notifrepo.Provide()

	svc := New(Params{
		DB:        conn,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Cfg:       cfg,
		Repo:      repository.Provide(),
		AuditRepo: auditRepo,
		NotifRepo: notifRepo,
		Rules:     rules,
		Settings:  settings,
	})

	return &fixture{
		svc:       svc,
		rules:     rules,
		settings:  settings,
		auditRepo: auditRepo,
		notifRepo: notifRepo,
		conn:      conn,
	}
}

func adminCtx(tenantID int64) context.Context {
	ctx := tenantctx.WithTenantID(context.Background(), snowflake.ID(tenantID))
	return actorctx.WithActor(ctx, actorctx.ActorTypeAdmin, "admin-1")
}

func (f *fixture) historyFor(t *testing.T, id string) []auditdomain.ApprovalHistoryEntry {
	t.Helper()
	parsed, err := snowflake.ParseString(id)
	require.NoError(t, err)
	entries, err := f.auditRepo.List(context.Background(), f.conn, auditdomain.ListFilter{SubscriptionID: parsed})
	require.NoError(t, err)
	return entries
}

func TestSubmitRequiresTenant(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		PlanID: "basic", PaymentMethod: "credit_card", MonthlyAmount: 1000,
	})
	assert.ErrorIs(t, err, domain.ErrMissingTenant)
}

func TestSubmitValidation(t *testing.T) {
	f := setup(t)
	ctx := adminCtx(9)

	_, err := f.svc.Submit(ctx, domain.SubmitRequest{PaymentMethod: "credit_card"})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{PlanID: "basic"})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	_, err = f.svc.Submit(ctx, domain.SubmitRequest{
		PlanID: "basic", PaymentMethod: "credit_card", MonthlyAmount: -5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSubmitDefersWithoutMatchingRule(t *testing.T) {
	f := setup(t)
	ctx := adminCtx(9)

	resp, err := f.svc.Submit(ctx, domain.SubmitRequest{
		PlanID: "premium", PaymentMethod: "bank_transfer", MonthlyAmount: 90000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, resp.Status)
	assert.Nil(t, resp.MatchedRuleID)

	// No ledger row until a decision is made.
	assert.Empty(t, f.historyFor(t, resp.ID))

	// The admin queue got the request.
	notifs, err := f.notifRepo.List(ctx, f.conn, notifdomain.ListFilter{Recipient: "platform-admins"})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notifdomain.TypeSubscriptionRequest, notifs[0].Type)
}

func TestSubmitAutoApproves(t *testing.T) {
	f := setup(t)
	ctx := adminCtx(9)

	ceiling := int64(50000)
	rule, err := f.rules.Create(ctx, ruledomain.CreateRequest{
		Name:       "small basic plans",
		Priority:   10,
		PlanFilter: []string{"basic"},
		MaxAmount:  &ceiling,
	})
	require.NoError(t, err)

	resp, err := f.svc.Submit(ctx, domain.SubmitRequest{
		PlanID: "basic", PaymentMethod: "credit_card", MonthlyAmount: 40000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAutoApproved, resp.Status)
	require.NotNil(t, resp.MatchedRuleID)
	assert.Equal(t, rule.ID, *resp.MatchedRuleID)
	assert.NotNil(t, resp.DecidedAt)

	entries := f.historyFor(t, resp.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, string(domain.ActionAutoApprove), entries[0].Action)
	assert.Equal(t, actorctx.ActorTypeSystem, entries[0].ActorType)
	require.NotNil(t, entries[0].MatchedRuleID)
	assert.Equal(t, rule.ID, entries[0].MatchedRuleID.String())

	// The tenant is told, the admin queue is not.
	notifs, err := f.notifRepo.List(ctx, f.conn, notifdomain.ListFilter{Recipient: "tenant-9"})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notifdomain.TypeAutoApproved, notifs[0].Type)

	adminNotifs, err := f.notifRepo.List(ctx, f.conn, notifdomain.ListFilter{Recipient: "platform-admins"})
	require.NoError(t, err)
	assert.Empty(t, adminNotifs)
}

func TestSubmitDefersWhenSwitchedOff(t *testing.T) {
	f := setup(t)
	ctx := adminCtx(9)

	_, err := f.rules.Create(ctx, ruledomain.CreateRequest{Name: "match everything"})
	require.NoError(t, err)
	require.NoError(t, f.settings.SetAutoApprovalEnabled(ctx, false))

	resp, err := f.svc.Submit(ctx, domain.SubmitRequest{
		PlanID: "basic", PaymentMethod: "credit_card", MonthlyAmount: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, resp.Status)
	assert.Nil(t, resp.MatchedRuleID)
}

func TestFullLifecycleRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := adminCtx(9)

	sub, err := f.svc.Submit(ctx, domain.SubmitRequest{
		PlanID: "standard", PaymentMethod: "credit_card", MonthlyAmount: 120000,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPendingApproval, sub.Status)

	steps := []struct {
		action domain.Action
		reason string
		want   domain.Status
	}{
		{domain.ActionApprove, "", domain.StatusApproved},
		{domain.ActionActivate, "", domain.StatusActive},
		{domain.ActionSuspend, "payment overdue", domain.StatusSuspended},
		{domain.ActionReactivate, "", domain.StatusActive},
		{domain.ActionTerminate, "contract ended", domain.StatusTerminated},
	}
	for _, step := range steps {
		resp, err := f.svc.Transition(ctx, domain.TransitionRequest{
			ID: sub.ID, Action: step.action, Reason: step.reason,
		})
		require.NoError(t, err, "action %s", step.action)
		assert.Equal(t, step.want, resp.Status, "action %s", step.action)
	}

	entries := f.historyFor(t, sub.ID)
	require.Len(t, entries, len(steps))
	// Ledger is newest-first; the chain must be contiguous.
	for i := 0; i < len(entries)-1; i++ {
		assert.Equal(t, entries[i+1].ToStatus, entries[i].FromStatus)
	}
	assert.Equal(t, string(domain.StatusTerminated), entries[0].ToStatus)

	// Every step notified the tenant.
	notifs, err := f.notifRepo.List(ctx, f.conn, notifdomain.ListFilter{Recipient: "tenant-9"})
	require.NoError(t, err)
	assert.Len(t, notifs, len(steps))
}

func TestTransitionRejectsIllegalEdges(t *testing.T) {
	f := setup(t)
	ctx := adminCtx(9)

	sub, err := f.svc.Submit(ctx, domain.SubmitRequest{
		PlanID: "standard", PaymentMethod: "credit_card", MonthlyAmount: 1000,
	})
	require.NoError(t, err)

	// Cannot activate before approval.
	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionActivate})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionApprove})
	require.NoError(t, err)

	// Approving twice is not allowed.
	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionApprove})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Terminal statuses stay terminal.
	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionActivate})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionTerminate, Reason: "done"})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionReactivate})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransitionValidation(t *testing.T) {
	f := setup(t)
	ctx := adminCtx(9)

	sub, err := f.svc.Submit(ctx, domain.SubmitRequest{
		PlanID: "standard", PaymentMethod: "credit_card", MonthlyAmount: 1000,
	})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionReject})
	assert.ErrorIs(t, err, domain.ErrMissingReason)

	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionReject, Reason: "   "})
	assert.ErrorIs(t, err, domain.ErrMissingReason)

	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: "ESCALATE"})
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: sub.ID, Action: domain.ActionAutoApprove})
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	_, err = f.svc.Transition(ctx, domain.TransitionRequest{ID: "999", Action: domain.ActionApprove})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionIdempotentRetry(t *testing.T) {
	f := setup(t)
	ctx := adminCtx(9)

	sub, err := f.svc.Submit(ctx, domain.SubmitRequest{
		PlanID: "standard", PaymentMethod: "credit_card", MonthlyAmount: 1000,
	})
	require.NoError(t, err)

	first, err := f.svc.Transition(ctx, domain.TransitionRequest{
		ID: sub.ID, Action: domain.ActionApprove, IdempotencyKey: "approve-once",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, first.Status)

	// The retry returns the stored outcome and appends nothing.
	retry, err := f.svc.Transition(ctx, domain.TransitionRequest{
		ID: sub.ID, Action: domain.ActionApprove, IdempotencyKey: "approve-once",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, retry.Status)
	assert.Len(t, f.historyFor(t, sub.ID), 1)

	// Reusing the key for a different action is a client bug.
	_, err = f.svc.Transition(ctx, domain.TransitionRequest{
		ID: sub.ID, Action: domain.ActionActivate, IdempotencyKey: "approve-once",
	})
	assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)
}

func TestListFiltersAndPagination(t *testing.T) {
	f := setup(t)

	for tenant := int64(1); tenant <= 2; tenant++ {
		for i := 0; i < 3; i++ {
			_, err := f.svc.Submit(adminCtx(tenant), domain.SubmitRequest{
				PlanID: "standard", PaymentMethod: "credit_card", MonthlyAmount: 1000,
			})
			require.NoError(t, err)
		}
	}

	page, err := f.svc.List(context.Background(), domain.ListRequest{TenantID: "1"})
	require.NoError(t, err)
	assert.Len(t, page.Subscriptions, 3)

	page, err = f.svc.List(context.Background(), domain.ListRequest{Status: domain.StatusPendingApproval})
	require.NoError(t, err)
	assert.Len(t, page.Subscriptions, 6)
}
