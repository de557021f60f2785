package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	"github.com/lovably74/SmartCON-sub001/internal/notification/repository"
	"github.com/lovably74/SmartCON-sub001/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupNotificationService(t *testing.T) (domain.Service, domain.Repository, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Notification{}))

	repo := repository.Provide()
	svc := New(Params{DB: conn, Log: zap.NewNop(), Clock: clock.SystemClock{}, Repo: repo})
	return svc, repo, conn
}

func seedNotification(t *testing.T, repo domain.Repository, conn *gorm.DB, id int64, recipient string, typ domain.Type) {
	t.Helper()
	require.NoError(t, repo.Insert(context.Background(), conn, &domain.Notification{
		ID:             snowflake.ID(id),
		Type:           typ,
		Recipient:      recipient,
		SubscriptionID: snowflake.ID(100),
		TenantID:       snowflake.ID(9),
		Title:          "subscription update",
		CreatedAt:      time.Now().UTC(),
	}))
}

func TestListByRecipientUnreadOnly(t *testing.T) {
	svc, repo, conn := setupNotificationService(t)
	ctx := context.Background()

	seedNotification(t, repo, conn, 1, "platform-admins", domain.TypeSubscriptionRequest)
	seedNotification(t, repo, conn, 2, "platform-admins", domain.TypeApprovalReminder)
	seedNotification(t, repo, conn, 3, "tenant-9", domain.TypeApproved)

	page, err := svc.List(ctx, domain.ListRequest{Recipient: "platform-admins"})
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, "2", page.Notifications[0].ID)

	require.NoError(t, svc.MarkRead(ctx, "2"))

	page, err = svc.List(ctx, domain.ListRequest{Recipient: "platform-admins", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, "1", page.Notifications[0].ID)
}

func TestMarkReadIdempotentAndMissing(t *testing.T) {
	svc, repo, conn := setupNotificationService(t)
	ctx := context.Background()

	seedNotification(t, repo, conn, 1, "tenant-9", domain.TypeApproved)

	require.NoError(t, svc.MarkRead(ctx, "1"))
	require.NoError(t, svc.MarkRead(ctx, "1"))

	assert.ErrorIs(t, svc.MarkRead(ctx, "999"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, "abc?"), domain.ErrInvalidID)
}

func TestExistsForSubscription(t *testing.T) {
	_, repo, conn := setupNotificationService(t)
	ctx := context.Background()

	seedNotification(t, repo, conn, 1, "platform-admins", domain.TypeApprovalReminder)

	exists, err := repo.ExistsForSubscription(ctx, conn, snowflake.ID(100), domain.TypeApprovalReminder)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForSubscription(ctx, conn, snowflake.ID(100), domain.TypeRejected)
	require.NoError(t, err)
	assert.False(t, exists)
}
