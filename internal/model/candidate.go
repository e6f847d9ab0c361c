package model

// Candidate is an applicant submitted through the public application form.
type Candidate struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Status      string `json:"status" yaml:"status"`
	StatusColor string `json:"statusColor" yaml:"statusColor"`
	Role        string `json:"role" yaml:"role"`
	Tags        string `json:"tags" yaml:"tags"`
	AppliedOn   string `json:"appliedOn" yaml:"appliedOn"`
	Email       string `json:"email" yaml:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" yaml:"phone"`
	LinkedIn    string `json:"linkedin" yaml:"linkedin"`
}

// Defaults applied to candidates created from the careers page.
const (
	StatusScreening      = "Screening"
	StatusScreeningColor = "bg-[#FEF3F2] text-[#B42318]"
	AppliedJustNow       = "Just now"
	Placeholder          = "-"
	DefaultPhoneCode     = "+94"
)
