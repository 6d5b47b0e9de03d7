// internal/reports/roadmap.go
package reports

import (
	"fmt"
	"strings"

	"counsel-workers/internal/engine/leadscore"
	"counsel-workers/internal/models"
)

const (
	ProfileVisionary  = "The Visionary Explorer (Needs Structure)"
	ProfilePragmatic  = "The Pragmatic Executor (High ROI Focused)"
	ProfileStrategist = "The Strategic-Analytical Thinker"
)

// ProfileType derives the cognitive profile label from interview answers.
func ProfileType(q map[string]string) string {
	switch {
	case q[string(leadscore.QAction)] == "DREAMER":
		return ProfileVisionary
	case q[string(leadscore.QAnchor)] == "PRACTICAL":
		return ProfilePragmatic
	default:
		return ProfileStrategist
	}
}

// Verdict maps a lead score to the counsellor's processing recommendation.
func Verdict(score int) string {
	switch {
	case score >= 75:
		return "Highly Qualified. Priority processing recommended."
	case score >= 45:
		return "Qualified but requires Nurturing (Budget/Docs)."
	default:
		return "High Risk. Requires substantial document/financial review."
	}
}

// Challenge names the main obstacle the student is expected to face.
func Challenge(q map[string]string) string {
	switch {
	case q[string(leadscore.QLanguage)] == "UNTESTED":
		return "meeting English entry requirements on time"
	case q[string(leadscore.QLiquid)] == "NOT_LIQUID":
		return "demonstrating financial liquidity for the visa"
	default:
		return "maintaining GPA during the final semester"
	}
}

// PersonalStatementTip suggests the personal statement angle.
func PersonalStatementTip(q map[string]string) string {
	if q[string(leadscore.QAction)] == "DOER" {
		return "concrete achievements and leadership roles"
	}
	return "future vision and adaptability to new environments"
}

type focus struct {
	name, location, reason, matchScore string
}

func focusUniversity(notes models.CounsellorNotes, ranked []models.MatchResult) focus {
	if notes.TargetUniversity != "" {
		return focus{
			name:       notes.TargetUniversity,
			location:   orDefault(notes.Branch, "Overseas"),
			reason:     "Specifically requested by the student during the interview.",
			matchScore: "N/A (Manual Selection)",
		}
	}
	if len(ranked) > 0 {
		return focus{
			name:       ranked[0].Institution,
			location:   ranked[0].Country,
			reason:     "Matched on budget and entry requirements.",
			matchScore: fmt.Sprintf("%.1f/10", ranked[0].Score*10),
		}
	}
	return focus{
		name:       "Generic University",
		location:   "Global",
		reason:     "General recommendation.",
		matchScore: "N/A",
	}
}

// Alternatives returns up to two ranked programs whose institution does not
// contain the counsellor's manual target (case-insensitive).
func Alternatives(target string, ranked []models.MatchResult) []models.MatchResult {
	out := make([]models.MatchResult, 0, 2)
	needle := strings.ToLower(target)
	for _, m := range ranked {
		if len(out) == 2 {
			break
		}
		if needle != "" && strings.Contains(strings.ToLower(m.Institution), needle) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Roadmap renders the student-facing strategic roadmap.
func Roadmap(in Input) string {
	p := in.Profile
	q := p.Qualification
	notes := p.Counsellor
	name := orDefault(p.StudentName, "Unknown")
	profile := ProfileType(q)
	f := focusUniversity(notes, in.Ranked)
	program := orDefault(notes.TargetProgram, "Selected Major")

	score, status := 0, "Unclassified"
	if in.Lead != nil {
		score, status = in.Lead.TotalScore, string(in.Lead.Status)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# STRATEGIC ROADMAP: %s\n", strings.ToUpper(name))
	fmt.Fprintf(&b, "**Profile Type:** %s  \n", profile)
	fmt.Fprintf(&b, "**Ref:** CW-%d  \n", score)
	fmt.Fprintf(&b, "**Intake:** %s\n\n---\n\n", orDefault(p.Intake, "To be confirmed"))

	b.WriteString("## 1. Executive Summary\n\n")
	fmt.Fprintf(&b, "**%s** has a Qualification Score of **%d/100** (%s).\n\n", name, score, status)
	fmt.Fprintf(&b, "* **Financial Health:** %s\n", orDefault(notes.BudgetDiscussion, "Not Discussed"))
	fmt.Fprintf(&b, "* **Academic Interest:** %s\n", program)
	fmt.Fprintf(&b, "* **Counsellor Verdict:** %s\n\n", Verdict(score))
	fmt.Fprintf(&b, "**Strategic Direction:** the student is targeting **%s**. The primary challenge will be %s. ", f.name, Challenge(q))
	b.WriteString("We recommend the direct entry pathway provided documents are submitted by October.\n\n---\n\n")

	b.WriteString("## 2. Target University Analysis\n\n")
	fmt.Fprintf(&b, "### Option 1: %s (%s)\n", f.name, f.location)
	fmt.Fprintf(&b, "* **Program:** %s\n", program)
	fmt.Fprintf(&b, "* **Selection Reason:** %s\n\n", f.reason)
	b.WriteString("| Metric | Analysis | Score |\n| :--- | :--- | :--- |\n")
	fmt.Fprintf(&b, "| Cognitive Fit | Curriculum suits the %s learning style. | **%s** |\n", profile, f.matchScore)
	fmt.Fprintf(&b, "| Budget Fit | %s | **High** |\n", orDefault(notes.BudgetDiscussion, "Neutral"))
	b.WriteString("| ROI Speed | Estimated break-even 3.5 years after graduation. | **High** |\n\n")
	fmt.Fprintf(&b, "> **Strategy Tip:** the student identified as a **%s**, so focus the Personal Statement on %s.\n\n---\n\n",
		orDefault(q[string(leadscore.QAction)], "Student"), PersonalStatementTip(q))

	b.WriteString("## 3. Alternative Recommendations\n\n")
	fmt.Fprintf(&b, "If **%s** is unavailable, the best data-backed alternatives are:\n\n", f.name)
	alts := Alternatives(notes.TargetUniversity, in.Ranked)
	if len(alts) == 0 {
		b.WriteString("* No alternatives in the current catalog.\n")
	}
	for _, m := range alts {
		fmt.Fprintf(&b, "* **%s (%s)** - %s ($%s/yr)\n", m.Institution, m.Country, m.ProgramName, Money(m.TuitionPerYear))
	}

	b.WriteString("\n---\n\n## 4. 5-Year Roadmap\n\n")
	b.WriteString("| Phase | Focus | Action Item |\n| :--- | :--- | :--- |\n")
	b.WriteString("| Year 1 (Prep) | Language & Portfolio | Finalise IELTS. Start a project related to the major. |\n")
	b.WriteString("| Year 2 (Uni) | Adaptation | Join one professional club. Keep GPA above 3.0. |\n")
	b.WriteString("| Year 3 (Work) | Internships | Apply for summer internships in local industry. |\n")
	b.WriteString("| Year 4 (Grad) | Post-Study Visa | Apply for the graduate visa immediately. |\n")
	b.WriteString("| Year 5 (Career) | ROI | Target junior role salary range. |\n\n---\n")
	b.WriteString("**Disclaimer:** generated from current profiling data. Visa policies may change.\n")

	return b.String()
}
