// internal/common/zoho/lead.go
package zoho

import (
	"fmt"
	"strings"

	"counsel-workers/internal/models"
)

// Lead_Status picklist values from the default Zoho Leads layout.
const (
	StatusNotContacted       = "Not Contacted"
	StatusAttemptedToContact = "Attempted to Contact"
	StatusContacted          = "Contacted"
	StatusContactInFuture    = "Contact in Future"
	StatusPreQualified       = "Pre-Qualified"
	StatusLost               = "Lost Lead"
)

// LeadStatus maps a case pipeline stage onto the CRM picklist.
func LeadStatus(c *models.Case) string {
	switch c.Status {
	case models.CaseContacted:
		return StatusContacted
	case models.CaseMeetingBooked:
		return StatusContactInFuture
	case models.CaseApplied, models.CaseWon:
		return StatusPreQualified
	case models.CaseLost:
		return StatusLost
	default:
		if c.LastContactAttemptAt != nil {
			return StatusAttemptedToContact
		}
		return StatusNotContacted
	}
}

// LeadFromCase builds the CRM record for a case. defaultSource is used when
// the student did not say how they heard about us.
func LeadFromCase(c *models.Case, defaultSource string) *Lead {
	first, last := SplitName(c.StudentName)
	source := c.Profile.ReferralSource
	if source == "" {
		source = defaultSource
	}
	lead := &Lead{
		FirstName: first,
		LastName:  last,
		Email:     c.Email,
		Phone:     c.Phone,
		Source:    source,
		Status:    LeadStatus(c),
		CaseID:    c.ID,
		LeadScore: c.LeadScore,
	}
	if c.LeadStatus != "" {
		lead.Rating = c.LeadStatus
		parts := []string{"Qualification: " + c.LeadStatus}
		if c.LeadScore != nil {
			parts = append(parts, fmt.Sprintf("score %d/100", *c.LeadScore))
		}
		if len(c.Destinations) > 0 {
			parts = append(parts, "destinations "+strings.Join(c.Destinations, ", "))
		}
		lead.Description = strings.Join(parts, "; ")
	}
	return lead
}
