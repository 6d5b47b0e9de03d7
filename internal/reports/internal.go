// internal/reports/internal.go
package reports

import (
	"fmt"
	"sort"
	"strings"

	"counsel-workers/internal/engine/ranking"
	"counsel-workers/internal/models"
)

const (
	confidenceMax = 95
	confidenceMin = 50

	recommendationCount = 3
	matrixSize          = 5
)

// Confidence rates how complete the intake data is, in [0.50, 0.95].
// Penalties are applied in whole percentage points.
func Confidence(p models.StudentProfile) float64 {
	pts := confidenceMax
	if budget, ok := p.Finance.AnnualBudget.Get(); !ok || budget == 0 {
		pts -= 20
	}
	if len(p.Destinations) == 0 {
		pts -= 10
	}
	if len(p.MajorChoices) == 0 {
		pts -= 10
	}
	if p.English == models.EnglishNotYet {
		pts -= 5
	}
	if pts < confidenceMin {
		pts = confidenceMin
	}
	return float64(pts) / 100
}

// Quadrant is a cell of the education value matrix.
type Quadrant string

const (
	GoldenTicket        Quadrant = "Golden Ticket"
	PremiumInvestment   Quadrant = "Premium Investment"
	PassionProject      Quadrant = "Passion Project"
	QuestionableUtility Quadrant = "Questionable Utility"
)

type MatrixRow struct {
	Match    models.MatchResult
	Quadrant Quadrant
}

// ValueMatrix places the first five ranked programs on a cost/value grid.
// Medians are the element at index len/2 of the sorted values; a program is
// low cost when its yearly cost is at or below the cost median and high value
// when its score is at or above the score median.
func ValueMatrix(ranked []models.MatchResult) []MatrixRow {
	sample := ranking.Top(ranked, matrixSize)
	if len(sample) == 0 {
		return nil
	}

	costs := make([]float64, len(sample))
	scores := make([]float64, len(sample))
	for i, m := range sample {
		costs[i] = m.YearlyCost
		scores[i] = m.Score
	}
	sort.Float64s(costs)
	sort.Float64s(scores)
	costMedian := costs[len(costs)/2]
	scoreMedian := scores[len(scores)/2]

	rows := make([]MatrixRow, len(sample))
	for i, m := range sample {
		lowCost := m.YearlyCost <= costMedian
		highValue := m.Score >= scoreMedian
		var q Quadrant
		switch {
		case lowCost && highValue:
			q = GoldenTicket
		case !lowCost && highValue:
			q = PremiumInvestment
		case !lowCost && !highValue:
			q = PassionProject
		default:
			q = QuestionableUtility
		}
		rows[i] = MatrixRow{Match: m, Quadrant: q}
	}
	return rows
}

// Internal renders the finance-led staff report.
func Internal(in Input) string {
	p := in.Profile
	var b strings.Builder

	fmt.Fprintf(&b, "# Internal Student Report: %s\n\n", orDefault(p.StudentName, "Unknown"))

	b.WriteString("## Disclaimer\n\n")
	fmt.Fprintf(&b, "Based on the data provided, the confidence level of this result is **%.0f%%**.\n\n", Confidence(p)*100)
	b.WriteString("Recommendations weigh finance feasibility, preference alignment, visa and scholarship indicators, ")
	b.WriteString("and baseline entry requirements. Remaining uncertainty covers external changes such as family finances, ")
	b.WriteString("visa policy and the job market.\n\n")

	if n := in.Narrative; n != nil {
		b.WriteString("## Executive Summary\n\n")
		b.WriteString(n.ExecutiveSummary + "\n\n")
		writeBullets(&b, "Strengths", n.Strengths)
		writeBullets(&b, "Risks", n.Risks)
		writeBullets(&b, "Suggested next steps", n.NextSteps)
	}

	b.WriteString("## Student Snapshot\n\n")
	fmt.Fprintf(&b, "- **Destinations:** %s\n", joinOr(p.Destinations, "Not provided"))
	fmt.Fprintf(&b, "- **Preferred majors:** %s\n", joinOr(p.MajorChoices, "Not provided"))
	fmt.Fprintf(&b, "- **Intake:** %s\n", orDefault(p.Intake, "Not provided"))
	fmt.Fprintf(&b, "- **Annual budget (max):** %s\n", optMoney(p.Finance.AnnualBudget, "Not provided"))
	fmt.Fprintf(&b, "- **Savings / Buffer:** %s / %s\n", optMoney(p.Finance.Savings, "?"), optMoney(p.Finance.CashBuffer, "?"))
	fmt.Fprintf(&b, "- **English:** %s (%s)\n", orDefault(p.English, "Not provided"), optNumber(p.EnglishScore, ""))
	fmt.Fprintf(&b, "- **GPA/Grades:** %s\n", optNumber(p.GPA, "Not provided"))
	if in.Lead != nil {
		fmt.Fprintf(&b, "- **Lead score:** %d/100 (%s)\n", in.Lead.TotalScore, in.Lead.Status)
	}
	b.WriteString("\n")

	top := ranking.Top(in.Ranked, recommendationCount)
	if len(top) == 0 {
		b.WriteString("## Result\n\nNo matching programs found for the current filters. ")
		b.WriteString("Add more programs to the catalog or widen destination preferences.\n")
		return b.String()
	}

	b.WriteString("## Top 3 Recommendations (Finance-led)\n\n")
	for i, m := range top {
		writeOption(&b, i+1, m)
	}

	b.WriteString("## Education Value Matrix\n\n")
	b.WriteString("- **Golden Ticket:** low cost, high value\n")
	b.WriteString("- **Premium Investment:** high cost, high value\n")
	b.WriteString("- **Passion Project:** high cost, low value\n")
	b.WriteString("- **Questionable Utility:** low cost, low value\n\n")
	b.WriteString("| Program | Institution | City | Yearly Cost | Value Score | Quadrant |\n")
	b.WriteString("|---|---|---|---:|---:|---|\n")
	for _, row := range ValueMatrix(in.Ranked) {
		m := row.Match
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %.2f | %s |\n",
			m.ProgramName, m.Institution, m.City, Money(m.YearlyCost), m.Score, row.Quadrant)
	}
	b.WriteString("\n")

	b.WriteString("## Strategic Execution Plan (First Call)\n\n")
	b.WriteString("1. Confirm budget, buffer, funding source and whether part-time work is required.\n")
	b.WriteString("2. Confirm the IELTS plan and target test date.\n")
	b.WriteString("3. Shortlist 2 to 3 programs and validate entry requirements and intake dates.\n")
	b.WriteString("4. Walk through the application timeline and required documents.\n\n")

	b.WriteString("## Counsellor Notes (What to ask next)\n\n")
	b.WriteString("- Parent priorities: cost, prestige, visa safety or job outcomes?\n")
	b.WriteString("- Major intent: which role do they want after graduation?\n")
	b.WriteString("- Flexibility: would they change destination or level (Diploma to Bachelor)?\n")

	return strings.TrimSpace(b.String())
}

func writeOption(b *strings.Builder, n int, m models.MatchResult) {
	fmt.Fprintf(b, "### Option %d: %s, %s (%s, %s)\n\n", n, m.ProgramName, m.Institution, m.City, m.Country)
	b.WriteString("| Factor | Result | Notes |\n")
	b.WriteString("|---|---:|---|\n")
	fmt.Fprintf(b, "| Estimated yearly cost | %s | Tuition %s + Living %s |\n",
		Money(m.YearlyCost), Money(m.TuitionPerYear), Money(m.LivingPerYear))
	fmt.Fprintf(b, "| Visa risk tag | %s | Safety weight |\n", m.VisaRisk)
	fmt.Fprintf(b, "| Scholarship indicator | %s | Value weight, not guaranteed |\n", m.ScholarshipLevel)
	fmt.Fprintf(b, "| Intake months | %s | Check institution dates |\n", orDefault(m.IntakeMonths, "-"))
	fmt.Fprintf(b, "| Overall score | %.2f | Finance > Visa > Fit > Scholarship, with requirement penalty |\n\n", m.Score)
	b.WriteString("**Reasoning notes:**\n")
	fmt.Fprintf(b, "- Affordability: %s\n", m.Notes.Affordability)
	fmt.Fprintf(b, "- Interest fit: %s\n", m.Notes.Interest)
	fmt.Fprintf(b, "- Requirements: %s\n\n", m.Notes.Requirements)
}

func writeBullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", title)
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	b.WriteString("\n")
}
