// internal/reports/brief.go
package reports

import (
	"fmt"
	"strings"

	"counsel-workers/internal/models"
)

// CounsellorBrief is the short Markdown note attached to every new case.
func CounsellorBrief(p models.StudentProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### New Lead: %s\n", orDefault(p.StudentName, "Unknown"))
	fmt.Fprintf(&b, "* **Phone:** %s\n", orDefault(p.Phone, "No Phone"))
	fmt.Fprintf(&b, "* **Email:** %s\n", orDefault(p.Email, "-"))
	fmt.Fprintf(&b, "* **Source:** %s\n", orDefault(p.ReferralSource, "Unknown"))
	fmt.Fprintf(&b, "* **Interests:** %s\n", joinOr(p.Destinations, "Undecided"))
	fmt.Fprintf(&b, "* **Annual budget:** %s\n", optMoney(p.Finance.AnnualBudget, "Not stated"))
	b.WriteString("\n---\n")
	b.WriteString("**Action Required:** raw lead from the public intake form. ")
	b.WriteString("Run the qualification interview and record the answers to calculate the Lead Score.\n")

	return b.String()
}
