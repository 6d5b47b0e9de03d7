// internal/models/student.go
package models

// FinancialProfile is the money side of an intake. Unknown amounts stay unset.
type FinancialProfile struct {
	AnnualBudget     OptFloat `json:"annual_budget"`
	Savings          OptFloat `json:"savings"`
	CashBuffer       OptFloat `json:"cash_buffer"`
	DebtAllowed      string   `json:"debt_allowed,omitempty"`
	PartTimeRequired string   `json:"part_time_required,omitempty"`
}

// StudentProfile is the intake payload stored on a case and fed to the ranker.
type StudentProfile struct {
	StudentName    string           `json:"student_name"`
	Phone          string           `json:"phone"`
	Email          string           `json:"email,omitempty"`
	ReferralSource string           `json:"referral_source,omitempty"`
	Destinations   []string         `json:"destinations"`
	MajorChoices   []string         `json:"major_choices"`
	Intake         string           `json:"intake,omitempty"`
	GPA            OptFloat         `json:"gpa"`
	English        string           `json:"english,omitempty"`
	EnglishScore   OptFloat         `json:"english_score"`
	Finance        FinancialProfile `json:"finance"`
	StudentGoal    string           `json:"student_goal,omitempty"`
	ParentCareers  []string         `json:"parent_careers,omitempty"`

	// Filled in by staff after the qualification interview.
	Qualification map[string]string `json:"qualification_data,omitempty"`
	Counsellor    CounsellorNotes   `json:"counsellor_data,omitempty"`
}

// CounsellorNotes are free-form interview notes used by the roadmap report.
type CounsellorNotes struct {
	TargetUniversity string `json:"target_uni,omitempty"`
	TargetProgram    string `json:"target_program,omitempty"`
	Branch           string `json:"branch,omitempty"`
	BudgetDiscussion string `json:"budget_discussion,omitempty"`
}

// EnglishNotYet is the intake value for students without a test result.
const EnglishNotYet = "Not yet"
