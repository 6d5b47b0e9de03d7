// internal/workers/intake/create-case/models.go
package createcase

import "counsel-workers/internal/models"

type Input struct {
	Profile models.StudentProfile `json:"profile"`
}

type Output struct {
	CaseID     string `json:"caseId"`
	CaseStatus string `json:"caseStatus"`
	CreatedAt  string `json:"createdAt"` // ISO 8601
	CRMLeadID  string `json:"crmLeadId,omitempty"`
}

// intakeSchema is checked against the raw profile object.
var intakeSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"student_name", "phone"},
	"properties": map[string]interface{}{
		"student_name": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 200},
		"phone":        map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 40},
		"email":        map[string]interface{}{"type": "string", "maxLength": 200},
		"destinations": map[string]interface{}{
			"type":     []interface{}{"array", "null"},
			"maxItems": 3,
			"items":    map[string]interface{}{"type": "string"},
		},
		"major_choices": map[string]interface{}{
			"type":  []interface{}{"array", "null"},
			"items": map[string]interface{}{"type": "string"},
		},
	},
}
