package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	notifdomain "github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	notifrepo "github.com/lovably74/SmartCON-sub001/internal/notification/repository"
	subdomain "github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	subrepo "github.com/lovably74/SmartCON-sub001/internal/subscription/repository"
	"github.com/lovably74/SmartCON-sub001/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type jobFixture struct {
	job       *Job
	conn      *gorm.DB
	clock     *clock.FakeClock
	notifRepo notifdomain.Repository
}

func setupJob(t *testing.T) *jobFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&subdomain.Subscription{}, &notifdomain.Notification{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))
	notifRepo := notifrepo.Provide()
	job := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Cfg: config.Config{
			PlatformAdminRecipient: "platform-admins",
			ReminderAfterHours:     24,
		},
		SubRepo:   subrepo.Provide(),
		NotifRepo: notifRepo,
	})
	return &jobFixture{job: job, conn: conn, clock: clk, notifRepo: notifRepo}
}

func (f *jobFixture) seedPending(t *testing.T, id int64, submittedAt time.Time) {
	t.Helper()
	require.NoError(t, subrepo.Provide().Insert(context.Background(), f.conn, &subdomain.Subscription{
		ID:            snowflake.ID(id),
		TenantID:      snowflake.ID(9),
		PlanID:        "standard",
		PaymentMethod: "credit_card",
		MonthlyAmount: 1000,
		Status:        subdomain.StatusPendingApproval,
		SubmittedAt:   submittedAt,
		CreatedAt:     submittedAt,
		UpdatedAt:     submittedAt,
	}))
}

func (f *jobFixture) reminders(t *testing.T) []notifdomain.Notification {
	t.Helper()
	notifs, err := f.notifRepo.List(context.Background(), f.conn, notifdomain.ListFilter{Recipient: "platform-admins"})
	require.NoError(t, err)
	return notifs
}

func TestRunSendsReminderAfterThreshold(t *testing.T) {
	f := setupJob(t)
	now := f.clock.Now()

	f.seedPending(t, 1, now.Add(-30*time.Hour))
	f.seedPending(t, 2, now.Add(-2*time.Hour))

	require.NoError(t, f.job.Run(context.Background()))

	notifs := f.reminders(t)
	require.Len(t, notifs, 1)
	assert.Equal(t, notifdomain.TypeApprovalReminder, notifs[0].Type)
	assert.Equal(t, snowflake.ID(1), notifs[0].SubscriptionID)
}

func TestRunSendsAtMostOneReminderPerApplication(t *testing.T) {
	f := setupJob(t)

	f.seedPending(t, 1, f.clock.Now().Add(-30*time.Hour))

	require.NoError(t, f.job.Run(context.Background()))
	require.Len(t, f.reminders(t), 1)

	// Subsequent scans must not pile on more reminders.
	f.clock.Advance(12 * time.Hour)
	require.NoError(t, f.job.Run(context.Background()))
	assert.Len(t, f.reminders(t), 1)
}

func TestRunPicksUpApplicationsThatAgeIn(t *testing.T) {
	f := setupJob(t)

	f.seedPending(t, 1, f.clock.Now().Add(-2*time.Hour))

	require.NoError(t, f.job.Run(context.Background()))
	assert.Empty(t, f.reminders(t))

	f.clock.Advance(23 * time.Hour)
	require.NoError(t, f.job.Run(context.Background()))
	assert.Len(t, f.reminders(t), 1)
}
