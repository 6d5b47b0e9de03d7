// internal/engine/leadscore/rules.go
package leadscore

// Question is one of the ten qualification interview keys.
type Question string

const (
	QPartTime Question = "q_part_time"
	QTravel   Question = "q_travel"
	QAccom    Question = "q_accom"
	QLiquid   Question = "q_liquid"
	QAction   Question = "q_action"
	QAnchor   Question = "q_anchor"
	QBlocker  Question = "q_blocker"
	QFamily   Question = "q_family"
	QLanguage Question = "q_language"
	QDM       Question = "q_dm"
)

// Category groups questions into the three weighted sub-scores.
type Category string

const (
	Financial  Category = "financial"
	Motivation Category = "motivation"
	Readiness  Category = "readiness"
)

// CategoryMax is the documented ceiling of each sub-score.
var CategoryMax = map[Category]int{
	Financial:  50,
	Motivation: 30,
	Readiness:  20,
}

// Flag marks a risk signal raised by a single answer.
type Flag string

const (
	RedFlagAnchor       Flag = "RED_FLAG_ANCHOR"
	RedFlagScholarship  Flag = "RED_FLAG_SCHOLARSHIP"
	YellowFlagLiquidity Flag = "YELLOW_FLAG_LIQUIDITY"
)

// IsRed reports whether the flag forces a risky classification.
func (f Flag) IsRed() bool {
	return f == RedFlagAnchor || f == RedFlagScholarship
}

// IsYellow reports whether the flag downgrades a classification by one level.
func (f Flag) IsYellow() bool {
	return f == YellowFlagLiquidity
}

type option struct {
	label  string
	points int
	flag   Flag
}

type questionRule struct {
	question Question
	category Category
	options  map[string]option
}

// ruleTable is evaluated in order; its order is the order of the breakdown.
var ruleTable = []questionRule{
	{QPartTime, Financial, map[string]option{
		"SURVIVAL_MODE": {label: "Survival Mode", points: 0},
		"POCKET_MONEY":  {label: "Pocket Money", points: 15},
	}},
	{QTravel, Financial, map[string]option{
		"NO_TRAVEL":      {label: "No Travel History", points: 5},
		"BUDGET_TRAVEL":  {label: "Budget Travel", points: 10},
		"PREMIUM_TRAVEL": {label: "Premium Travel", points: 15},
	}},
	{QAccom, Financial, map[string]option{
		"SENSITIVE": {label: "Cost-Sensitive Accommodation", points: 5},
		"COMFORT":   {label: "Comfort Accommodation", points: 10},
	}},
	{QLiquid, Financial, map[string]option{
		"NOT_LIQUID": {label: "Not Liquid", points: 0, flag: YellowFlagLiquidity},
		"LIQUID":     {label: "Liquid", points: 10},
	}},
	{QAction, Motivation, map[string]option{
		"DREAMER": {label: "Dreamer", points: 5},
		"DOER":    {label: "Doer", points: 15},
	}},
	{QAnchor, Motivation, map[string]option{
		"HIGH_ANCHOR": {label: "High Emotional Anchor", points: 0, flag: RedFlagAnchor},
		"PRACTICAL":   {label: "Practical", points: 15},
	}},
	{QBlocker, Motivation, map[string]option{
		"FUNDING_BLOCKER":  {label: "Needs Full Scholarship", points: 0, flag: RedFlagScholarship},
		"LOGISTIC_BLOCKER": {label: "Logistics Only", points: 10},
	}},
	{QFamily, Readiness, map[string]option{
		"CONFLICT": {label: "Family Conflict", points: 0},
		"SUPPORT":  {label: "Family Support", points: 10},
	}},
	{QLanguage, Readiness, map[string]option{
		"UNTESTED": {label: "Language Untested", points: 2},
		"TESTED":   {label: "Language Tested", points: 5},
	}},
	{QDM, Readiness, map[string]option{
		"HIDDEN_DM": {label: "Hidden Decision Maker", points: 0},
		"CLEAR_DM":  {label: "Clear Decision Maker", points: 5},
	}},
}

// Questions returns the interview keys in rule-table order.
func Questions() []Question {
	out := make([]Question, len(ruleTable))
	for i, r := range ruleTable {
		out[i] = r.question
	}
	return out
}

// AllowedTags returns the tags accepted for q, or nil for an unknown question.
func AllowedTags(q Question) []string {
	for _, r := range ruleTable {
		if r.question != q {
			continue
		}
		tags := make([]string, 0, len(r.options))
		for tag := range r.options {
			tags = append(tags, tag)
		}
		return tags
	}
	return nil
}
