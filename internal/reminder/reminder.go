// Package reminder nudges platform admins about applications that have been
// waiting for a manual decision too long.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	notifdomain "github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	"github.com/lovably74/SmartCON-sub001/internal/ratelimit"
	subdomain "github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	scanInterval = time.Hour
	lockKey      = "reminder:pending-scan"
	lockTTL      = 5 * time.Minute
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	SubRepo   subdomain.Repository
	NotifRepo notifdomain.Repository
	Locker    *ratelimit.Locker
}

type Job struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	cfg       config.Config
	subRepo   subdomain.Repository
	notifRepo notifdomain.Repository
	locker    *ratelimit.Locker
}

func New(p Params) *Job {
	return &Job{
		db:        p.DB,
		log:       p.Log.Named("reminder.job"),
		genID:     p.GenID,
		clock:     p.Clock,
		cfg:       p.Cfg,
		subRepo:   p.SubRepo,
		notifRepo: p.NotifRepo,
		locker:    p.Locker,
	}
}

// Run scans once. Safe to call from multiple instances; the redis lock keeps
// the scans from overlapping when one is configured.
func (j *Job) Run(ctx context.Context) error {
	if j.locker != nil {
		token, ok, err := j.locker.TryLock(ctx, lockKey, lockTTL)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		defer func() {
			if err := j.locker.Release(ctx, lockKey, token); err != nil {
				j.log.Warn("failed to release scan lock", zap.Error(err))
			}
		}()
	}

	cutoff := j.clock.Now().Add(-time.Duration(j.cfg.ReminderAfterHours) * time.Hour)
	pending, err := j.subRepo.ListPendingBefore(ctx, j.db, cutoff)
	if err != nil {
		return err
	}

	sent := 0
	for i := range pending {
		sub := &pending[i]
		exists, err := j.notifRepo.ExistsForSubscription(ctx, j.db, sub.ID, notifdomain.TypeApprovalReminder)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		waiting := j.clock.Now().Sub(sub.SubmittedAt).Round(time.Hour)
		err = j.notifRepo.Insert(ctx, j.db, &notifdomain.Notification{
			ID:             j.genID.Generate(),
			Type:           notifdomain.TypeApprovalReminder,
			Recipient:      j.cfg.PlatformAdminRecipient,
			SubscriptionID: sub.ID,
			TenantID:       sub.TenantID,
			Title:          "Subscription request awaiting review",
			Body:           fmt.Sprintf("Tenant %s's %s request has been pending for %s", sub.TenantID, sub.PlanID, waiting),
			CreatedAt:      j.clock.Now(),
		})
		if err != nil {
			return err
		}
		sent++
	}

	if sent > 0 {
		j.log.Info("approval reminders sent", zap.Int("count", sent), zap.Int("pending", len(pending)))
	}
	return nil
}

func (j *Job) start(lc fx.Lifecycle) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(scanInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if err := j.Run(ctx); err != nil {
							j.log.Error("reminder scan failed", zap.Error(err))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

var Module = fx.Module("reminder.job",
	fx.Provide(New),
	fx.Invoke(func(j *Job, lc fx.Lifecycle) { j.start(lc) }),
)
