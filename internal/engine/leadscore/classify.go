// internal/engine/leadscore/classify.go
package leadscore

// Status is the lead classification label.
type Status string

const (
	StatusHot             Status = "HOT"
	StatusWarm            Status = "WARM"
	StatusWarmDowngraded  Status = "WARM_DOWNGRADED"
	StatusRisky           Status = "RISKY"
	StatusRiskyDowngraded Status = "RISKY_DOWNGRADED"
	StatusRiskyCold       Status = "RISKY_COLD"
)

// Tier collapses a status to HOT, WARM or RISKY.
func (s Status) Tier() Status {
	switch s {
	case StatusHot:
		return StatusHot
	case StatusWarm, StatusWarmDowngraded:
		return StatusWarm
	default:
		return StatusRisky
	}
}

const (
	hotThreshold  = 75
	warmThreshold = 45
)

type classificationInput struct {
	total     int
	hasRed    bool
	hasYellow bool
}

type classificationRule struct {
	name    string
	matches func(in classificationInput) bool
	status  Status
	action  string
}

// classificationTable is evaluated top to bottom; the first match wins.
var classificationTable = []classificationRule{
	{
		name:    "red flag",
		matches: func(in classificationInput) bool { return in.hasRed },
		status:  StatusRiskyCold,
		action:  "AUTO-REJECT: Do not pass to sales. Route to passive nurture with generic scholarship info.",
	},
	{
		name:    "hot",
		matches: func(in classificationInput) bool { return in.total >= hotThreshold && !in.hasYellow },
		status:  StatusHot,
		action:  "URGENT: Call immediately. Lock in deposit.",
	},
	{
		name:    "hot downgraded by liquidity",
		matches: func(in classificationInput) bool { return in.total >= hotThreshold && in.hasYellow },
		status:  StatusWarmDowngraded,
		action:  "Nurture: High potential but liquidity issues. Send financing options.",
	},
	{
		name:    "warm",
		matches: func(in classificationInput) bool { return in.total >= warmThreshold && !in.hasYellow },
		status:  StatusWarm,
		action:  "Nurture: Send university comparison content.",
	},
	{
		name:    "warm downgraded by liquidity",
		matches: func(in classificationInput) bool { return in.total >= warmThreshold && in.hasYellow },
		status:  StatusRiskyDowngraded,
		action:  "Too risky due to liquidity. Keep on email nurture list only.",
	},
	{
		name:    "low score",
		matches: func(classificationInput) bool { return true },
		status:  StatusRisky,
		action:  "Low score. Automate follow-up only.",
	},
}

func classify(in classificationInput) (Status, string, string) {
	for _, rule := range classificationTable {
		if rule.matches(in) {
			return rule.status, rule.action, rule.name
		}
	}
	// unreachable: the last rule always matches
	return StatusRisky, "", ""
}
