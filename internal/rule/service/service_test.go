package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	"github.com/lovably74/SmartCON-sub001/internal/rule/domain"
	"github.com/lovably74/SmartCON-sub001/internal/rule/repository"
	"github.com/lovably74/SmartCON-sub001/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRuleService(t *testing.T, cacheTTLSeconds int) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.AutoApprovalRule{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.SystemClock{},
		Repo:  repository.Provide(),
		Cfg:   config.Config{RuleCacheTTLSeconds: cacheTTLSeconds},
	})
	return svc, conn
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupRuleService(t, 0)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	negative := int64(-1)
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "negative ceiling", MaxAmount: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidMaxAmount)

	zero := int64(0)
	created, err := svc.Create(ctx, domain.CreateRequest{Name: "zero ceiling", MaxAmount: &zero})
	require.NoError(t, err)
	require.NotNil(t, created.MaxAmount)
	assert.Equal(t, int64(0), *created.MaxAmount)
	assert.True(t, created.Active)
}

func TestToggleActiveDoesNotClobberOtherFields(t *testing.T) {
	svc, _ := setupRuleService(t, 0)
	ctx := context.Background()

	ceiling := int64(50000)
	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:                "small basic plans",
		Priority:            10,
		PlanFilter:          []string{"basic"},
		VerifiedTenantsOnly: true,
		MaxAmount:           &ceiling,
	})
	require.NoError(t, err)

	toggled, err := svc.ToggleActive(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "small basic plans", got.Name)
	assert.Equal(t, 10, got.Priority)
	assert.Equal(t, []string{"basic"}, got.PlanFilter)
	assert.True(t, got.VerifiedTenantsOnly)
	require.NotNil(t, got.MaxAmount)
	assert.Equal(t, int64(50000), *got.MaxAmount)
	assert.False(t, got.Active)
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := setupRuleService(t, 0)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:       "original",
		Priority:   5,
		PlanFilter: []string{"basic", "standard"},
	})
	require.NoError(t, err)

	newPriority := 20
	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:       created.ID,
		Priority: &newPriority,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Priority)
	assert.Equal(t, "original", updated.Name)
	assert.Equal(t, []string{"basic", "standard"}, updated.PlanFilter)

	empty := ""
	_, err = svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestDeleteThenLookups(t *testing.T) {
	svc, _ := setupRuleService(t, 0)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "to delete"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActiveRulesCacheInvalidatedOnWrite(t *testing.T) {
	svc, _ := setupRuleService(t, 60)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateRequest{Name: "first"})
	require.NoError(t, err)

	rules, err := svc.ActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	// A committed write must be visible immediately despite the warm cache.
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "second"})
	require.NoError(t, err)

	rules, err = svc.ActiveRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	_, err = svc.ToggleActive(ctx, first.ID, false)
	require.NoError(t, err)

	rules, err = svc.ActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "second", rules[0].Name)
}

func TestActiveRulesOrdering(t *testing.T) {
	svc, conn := setupRuleService(t, 0)
	ctx := context.Background()

	// Force known IDs so the tie-break ordering is observable.
	now := time.Now().UTC()
	for _, seed := range []struct {
		id       int64
		priority int
	}{
		{7, 10},
		{3, 10},
		{5, 30},
	} {
		require.NoError(t, conn.Exec(
			`INSERT INTO auto_approval_rules (id, name, active, priority, verified_tenants_only, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			seed.id, "seeded", true, seed.priority, false, now, now,
		).Error)
	}

	rules, err := svc.ActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, snowflake.ID(5), rules[0].ID)
	assert.Equal(t, snowflake.ID(3), rules[1].ID)
	assert.Equal(t, snowflake.ID(7), rules[2].ID)
}
