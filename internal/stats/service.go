// Package stats derives approval statistics from the subscriptions table and
// the approval history ledger. Nothing here is stored; every summary is
// computed from source rows at request time.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	ruledomain "github.com/lovably74/SmartCON-sub001/internal/rule/domain"
	subdomain "github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RuleNameFallback is shown for history rows whose matched rule was deleted
// after the approval happened.
const RuleNameFallback = "rule no longer exists"

const defaultRangeDays = 7

type SummarizeRequest struct {
	From time.Time
	To   time.Time
}

type RuleStats struct {
	RuleID       string  `json:"rule_id"`
	RuleName     string  `json:"rule_name"`
	AutoApproved int64   `json:"auto_approved"`
	Terminated   int64   `json:"terminated"`
	SuccessRate  float64 `json:"success_rate"`
}

type DailyStats struct {
	Date         string `json:"date"`
	Submitted    int64  `json:"submitted"`
	AutoApproved int64  `json:"auto_approved"`
	Approved     int64  `json:"approved"`
	Rejected     int64  `json:"rejected"`
}

type Summary struct {
	From              time.Time    `json:"from"`
	To                time.Time    `json:"to"`
	TotalRules        int64        `json:"total_rules"`
	ActiveRules       int64        `json:"active_rules"`
	TotalApplications int64        `json:"total_applications"`
	AutoApproved      int64        `json:"auto_approved"`
	Approved          int64        `json:"approved"`
	Rejected          int64        `json:"rejected"`
	Pending           int64        `json:"pending"`
	AutoApprovalRate  float64      `json:"auto_approval_rate"`
	PerRule           []RuleStats  `json:"per_rule"`
	Daily             []DailyStats `json:"daily"`
}

type Service interface {
	Summarize(ctx context.Context, req SummarizeRequest) (*Summary, error)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	RuleRepo ruledomain.Repository
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	ruleRepo ruledomain.Repository
}

func New(p Params) Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("stats.service"),
		clock:    p.Clock,
		ruleRepo: p.RuleRepo,
	}
}

func (s *service) Summarize(ctx context.Context, req SummarizeRequest) (*Summary, error) {
	from, to := s.normalizeRange(req)

	var subs []subdomain.Subscription
	err := s.db.WithContext(ctx).
		Model(&subdomain.Subscription{}).
		Where("submitted_at >= ? AND submitted_at < ?", from, to).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}

	var entries []auditdomain.ApprovalHistoryEntry
	err = s.db.WithContext(ctx).
		Model(&auditdomain.ApprovalHistoryEntry{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	summary := &Summary{From: from, To: to, TotalApplications: int64(len(subs))}

	if summary.TotalRules, err = s.ruleRepo.Count(ctx, s.db, false); err != nil {
		return nil, err
	}
	if summary.ActiveRules, err = s.ruleRepo.Count(ctx, s.db, true); err != nil {
		return nil, err
	}

	// Aggregation runs in Go rather than SQL so the shape of the summary
	// does not depend on dialect-specific date functions.
	statusByID := make(map[snowflake.ID]subdomain.Status, len(subs))
	daily := make(map[string]*DailyStats)
	for i := range subs {
		statusByID[subs[i].ID] = subs[i].Status
		day := dayFor(daily, subs[i].SubmittedAt)
		day.Submitted++
		if subs[i].Status == subdomain.StatusPendingApproval {
			summary.Pending++
		}
	}

	perRule := make(map[snowflake.ID]*RuleStats)
	for i := range entries {
		e := &entries[i]
		day := dayFor(daily, e.CreatedAt)

		switch subdomain.Action(e.Action) {
		case subdomain.ActionAutoApprove:
			summary.AutoApproved++
			day.AutoApproved++
			if e.MatchedRuleID != nil {
				rs, ok := perRule[*e.MatchedRuleID]
				if !ok {
					rs = &RuleStats{RuleID: e.MatchedRuleID.String()}
					perRule[*e.MatchedRuleID] = rs
				}
				rs.AutoApproved++
				if statusByID[e.SubscriptionID] == subdomain.StatusTerminated {
					rs.Terminated++
				}
			}
		case subdomain.ActionApprove:
			summary.Approved++
			day.Approved++
		case subdomain.ActionReject:
			summary.Rejected++
			day.Rejected++
		}
	}

	if summary.TotalApplications > 0 {
		summary.AutoApprovalRate = float64(summary.AutoApproved) / float64(summary.TotalApplications)
	}

	summary.PerRule = s.resolveRuleNames(ctx, perRule)
	summary.Daily = fillDaily(daily, from, to)
	return summary, nil
}

func (s *service) normalizeRange(req SummarizeRequest) (time.Time, time.Time) {
	to := req.To
	if to.IsZero() {
		to = s.clock.Now()
	}
	to = to.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	from := req.From
	if from.IsZero() {
		from = to.Add(-defaultRangeDays * 24 * time.Hour)
	} else {
		from = from.UTC().Truncate(24 * time.Hour)
	}
	if !from.Before(to) {
		from = to.Add(-defaultRangeDays * 24 * time.Hour)
	}
	return from, to
}

func (s *service) resolveRuleNames(ctx context.Context, perRule map[snowflake.ID]*RuleStats) []RuleStats {
	if len(perRule) == 0 {
		return nil
	}

	ids := make([]snowflake.ID, 0, len(perRule))
	for id := range perRule {
		ids = append(ids, id)
	}
	rules, err := s.ruleRepo.ListByIDs(ctx, s.db, ids)
	if err != nil {
		// Name resolution is cosmetic; the counts still stand.
		s.log.Warn("rule name lookup failed", zap.Error(err))
	}
	names := make(map[snowflake.ID]string, len(rules))
	for i := range rules {
		names[rules[i].ID] = rules[i].Name
	}

	out := make([]RuleStats, 0, len(perRule))
	for id, rs := range perRule {
		rs.RuleName = names[id]
		if rs.RuleName == "" {
			rs.RuleName = RuleNameFallback
		}
		if rs.AutoApproved > 0 {
			rs.SuccessRate = float64(rs.AutoApproved-rs.Terminated) / float64(rs.AutoApproved)
		}
		out = append(out, *rs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AutoApproved != out[j].AutoApproved {
			return out[i].AutoApproved > out[j].AutoApproved
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

func dayFor(daily map[string]*DailyStats, ts time.Time) *DailyStats {
	key := ts.UTC().Format("2006-01-02")
	day, ok := daily[key]
	if !ok {
		day = &DailyStats{Date: key}
		daily[key] = day
	}
	return day
}

// fillDaily emits one entry per calendar day in [from, to), zeroes included,
// oldest first.
func fillDaily(daily map[string]*DailyStats, from, to time.Time) []DailyStats {
	out := make([]DailyStats, 0, int(to.Sub(from)/(24*time.Hour)))
	for cursor := from; cursor.Before(to); cursor = cursor.Add(24 * time.Hour) {
		key := cursor.Format("2006-01-02")
		if day, ok := daily[key]; ok {
			out = append(out, *day)
		} else {
			out = append(out, DailyStats{Date: key})
		}
	}
	return out
}

var Module = fx.Module("stats.service",
	fx.Provide(New),
)
