// Package engine evaluates subscription applications against the active
// auto-approval rule set. Evaluation is pure over its inputs: no clock, no
// storage, no hidden globals.
package engine

import (
	"sort"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/lovably74/SmartCON-sub001/internal/rule/domain"
)

type Outcome string

const (
	OutcomeAutoApprove   Outcome = "AUTO_APPROVE"
	OutcomeDeferToManual Outcome = "DEFER_TO_MANUAL"
)

// Reason explains a decision so operators can tell "feature off" apart from
// "no rule matched" in logs and statistics.
type Reason string

const (
	ReasonRuleMatched   Reason = "rule_matched"
	ReasonNoRuleMatched Reason = "no_rule_matched"
	ReasonDisabled      Reason = "auto_approval_disabled"
)

// Application is the decision subject.
type Application struct {
	PlanID         string
	PaymentMethod  string
	MonthlyAmount  int64
	VerifiedTenant bool
}

type Decision struct {
	Outcome       Outcome
	MatchedRuleID *snowflake.ID
	Reason        Reason
}

// Evaluate runs the first-match policy: rules are ordered by priority
// descending, ties broken by ascending rule ID, and the first rule whose
// predicates all pass wins. Inactive rules are skipped. When the global
// auto-approval flag is off, evaluation short-circuits to manual review.
//
// Rules are assumed validated at the write boundary; malformed rules are a
// store bug, not an evaluation concern.
func Evaluate(app Application, rules []ruledomain.AutoApprovalRule, enabled bool) Decision {
	if !enabled {
		return Decision{Outcome: OutcomeDeferToManual, Reason: ReasonDisabled}
	}

	ordered := make([]ruledomain.AutoApprovalRule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			ordered = append(ordered, r)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	for i := range ordered {
		if matches(app, &ordered[i]) {
			id := ordered[i].ID
			return Decision{
				Outcome:       OutcomeAutoApprove,
				MatchedRuleID: &id,
				Reason:        ReasonRuleMatched,
			}
		}
	}

	return Decision{Outcome: OutcomeDeferToManual, Reason: ReasonNoRuleMatched}
}

func matches(app Application, rule *ruledomain.AutoApprovalRule) bool {
	if !contains(rule.PlanFilter, app.PlanID) {
		return false
	}
	if !contains(rule.PaymentMethodFilter, app.PaymentMethod) {
		return false
	}
	if rule.VerifiedTenantsOnly && !app.VerifiedTenant {
		return false
	}
	if rule.MaxAmount != nil && app.MonthlyAmount > *rule.MaxAmount {
		return false
	}
	return true
}

// contains treats an empty filter as "any value".
func contains(filter []string, value string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, v := range filter {
		if v == value {
			return true
		}
	}
	return false
}
