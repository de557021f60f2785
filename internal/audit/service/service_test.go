package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	"github.com/lovably74/SmartCON-sub001/internal/audit/repository"
	"github.com/lovably74/SmartCON-sub001/pkg/db"
	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuditService(t *testing.T) (domain.Service, domain.Repository, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.ApprovalHistoryEntry{}))

	repo := repository.Provide()
	svc := New(Params{DB: conn, Log: zap.NewNop(), Repo: repo})
	return svc, repo, conn
}

func seedEntry(t *testing.T, repo domain.Repository, conn *gorm.DB, id, subID int64, action string) {
	t.Helper()
	require.NoError(t, repo.Insert(context.Background(), conn, &domain.ApprovalHistoryEntry{
		ID:             snowflake.ID(id),
		SubscriptionID: snowflake.ID(subID),
		FromStatus:     "PENDING_APPROVAL",
		ToStatus:       "APPROVED",
		Action:         action,
		ActorType:      "admin",
		ActorID:        "admin-1",
		CreatedAt:      time.Now().UTC(),
	}))
}

func TestListNewestFirstWithCursor(t *testing.T) {
	svc, repo, conn := setupAuditService(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		seedEntry(t, repo, conn, i, 100, "APPROVE")
	}

	page, err := svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "5", page.Entries[0].ID)
	assert.Equal(t, "4", page.Entries[1].ID)
	require.True(t, page.PageInfo.HasMore)

	page, err = svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.PageInfo.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "3", page.Entries[0].ID)
	assert.Equal(t, "2", page.Entries[1].ID)
}

func TestListFilters(t *testing.T) {
	svc, repo, conn := setupAuditService(t)
	ctx := context.Background()

	seedEntry(t, repo, conn, 1, 100, "APPROVE")
	seedEntry(t, repo, conn, 2, 100, "SUSPEND")
	seedEntry(t, repo, conn, 3, 200, "APPROVE")

	page, err := svc.List(ctx, domain.ListRequest{SubscriptionID: "100"})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 2)

	page, err = svc.List(ctx, domain.ListRequest{SubscriptionID: "100", Action: "SUSPEND"})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "2", page.Entries[0].ID)

	_, err = svc.List(ctx, domain.ListRequest{SubscriptionID: "not-a-number"})
	assert.ErrorIs(t, err, domain.ErrInvalidSubscriptionID)

	_, err = svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestFindByIdempotencyKey(t *testing.T) {
	_, repo, conn := setupAuditService(t)
	ctx := context.Background()

	key := "retry-abc"
	require.NoError(t, repo.Insert(ctx, conn, &domain.ApprovalHistoryEntry{
		ID:             snowflake.ID(10),
		SubscriptionID: snowflake.ID(100),
		FromStatus:     "PENDING_APPROVAL",
		ToStatus:       "APPROVED",
		Action:         "APPROVE",
		ActorType:      "admin",
		IdempotencyKey: &key,
		CreatedAt:      time.Now().UTC(),
	}))

	found, err := repo.FindByIdempotencyKey(ctx, conn, snowflake.ID(100), key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "APPROVED", found.ToStatus)

	// Same key on a different subscription is a different operation.
	found, err = repo.FindByIdempotencyKey(ctx, conn, snowflake.ID(200), key)
	require.NoError(t, err)
	assert.Nil(t, found)
}
