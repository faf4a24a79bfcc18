// Package dedup decides whether a parsed trip or expense is already in the
// record store.
package dedup

// Rule names the check that produced a verdict.
type Rule string

const (
	RuleNone             Rule = ""
	RuleRouteUnresolved  Rule = "route_unresolved"
	RuleTripExact        Rule = "trip_exact"
	RuleTripContainer    Rule = "trip_container"
	RuleExpenseExact     Rule = "expense_exact"
	RuleExpenseFuzzy     Rule = "expense_fuzzy"
	RuleExpenseContainer Rule = "expense_container"
)

// Verdict is the outcome of a duplicate check. When a store query fails
// the layer is skipped, FailOpen is set and the error kept in Errors.
type Verdict struct {
	Duplicate  bool    `json:"duplicate"`
	Rule       Rule    `json:"rule,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	MatchedIDs []int64 `json:"matched_ids,omitempty"`
	FailOpen   bool    `json:"fail_open,omitempty"`
	Errors     []error `json:"-"`
}

func (v *Verdict) failOpen(err error) {
	v.FailOpen = true
	v.Errors = append(v.Errors, err)
}

func (v *Verdict) flag(rule Rule, reason string, ids ...int64) {
	v.Duplicate = true
	v.Rule = rule
	v.Reason = reason
	v.MatchedIDs = ids
}
