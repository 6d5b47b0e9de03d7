// Package leadscore classifies a prospective student from the ten-question
// qualification interview. It is pure: no I/O, no shared mutable state.
package leadscore

import "fmt"

// Answers maps interview questions to response tags. Missing questions and
// unrecognised tags contribute zero, so a partially completed interview still
// produces a result.
type Answers map[Question]string

// SubScores holds the three category totals.
type SubScores struct {
	Financial  int `json:"financial"`
	Motivation int `json:"motivation"`
	Readiness  int `json:"readiness"`
}

// Result is the full outcome of one scoring call.
type Result struct {
	TotalScore int       `json:"score"`
	SubScores  SubScores `json:"scores"`
	Flags      []Flag    `json:"flags"`
	Status     Status    `json:"status"`
	Rule       string    `json:"rule"`
	Breakdown  []string  `json:"breakdown"`
	ActionPlan string    `json:"action_plan"`
}

// HasRedFlag reports whether any red flag was raised.
func (r Result) HasRedFlag() bool {
	for _, f := range r.Flags {
		if f.IsRed() {
			return true
		}
	}
	return false
}

// HasYellowFlag reports whether any yellow flag was raised.
func (r Result) HasYellowFlag() bool {
	for _, f := range r.Flags {
		if f.IsYellow() {
			return true
		}
	}
	return false
}

// Score evaluates answers against the rule table and classifies the lead.
// Each category total is capped at CategoryMax, so TotalScore is always the
// sum of the three sub-scores and never exceeds 100.
func Score(answers Answers) Result {
	raw := map[Category]int{}
	flags := []Flag{}
	breakdown := []string{}

	for _, rule := range ruleTable {
		tag, ok := answers[rule.question]
		if !ok {
			continue
		}
		opt, ok := rule.options[tag]
		if !ok {
			continue
		}

		raw[rule.category] += opt.points
		breakdown = append(breakdown, describe(rule.category, opt))
		if opt.flag != "" {
			flags = append(flags, opt.flag)
		}
	}

	sub := SubScores{
		Financial:  capAt(raw[Financial], CategoryMax[Financial]),
		Motivation: capAt(raw[Motivation], CategoryMax[Motivation]),
		Readiness:  capAt(raw[Readiness], CategoryMax[Readiness]),
	}
	total := sub.Financial + sub.Motivation + sub.Readiness

	res := Result{
		TotalScore: total,
		SubScores:  sub,
		Flags:      flags,
		Breakdown:  breakdown,
	}
	res.Status, res.ActionPlan, res.Rule = classify(classificationInput{
		total:     total,
		hasRed:    res.HasRedFlag(),
		hasYellow: res.HasYellowFlag(),
	})
	return res
}

var categoryLabel = map[Category]string{
	Financial:  "Financial",
	Motivation: "Motivation",
	Readiness:  "Readiness",
}

func describe(cat Category, opt option) string {
	name := categoryLabel[cat]
	switch {
	case opt.flag.IsRed():
		return fmt.Sprintf("%s: %s (Red Flag)", name, opt.label)
	case opt.flag.IsYellow():
		return fmt.Sprintf("%s: %s (Yellow Flag)", name, opt.label)
	case opt.points == 0:
		return fmt.Sprintf("%s: %s (0)", name, opt.label)
	default:
		return fmt.Sprintf("%s: %s (+%d)", name, opt.label, opt.points)
	}
}

func capAt(v, max int) int {
	if v > max {
		return max
	}
	return v
}
