package models

import "time"

// Member roles. Role and approval state jointly gate feature access:
// posting jobs or stories requires RoleAlumni plus StateApproved.
const (
	RoleGuest   = "guest"
	RoleStudent = "student"
	RoleAlumni  = "alumni"
	RoleAdmin   = "admin"
)

// Approval states shared by members and media submissions.
const (
	StatePending  = "pending"
	StateApproved = "approved"
	StateRejected = "rejected"
)

// Member is the canonical membership record. Exactly one record exists
// per email; a subject id issued by the identity provider, once linked,
// belongs to exactly one record.
type Member struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	SubjectID       *string    `gorm:"uniqueIndex;size:128" json:"subject_id,omitempty"`
	Email           string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	DisplayName     string     `gorm:"size:200" json:"display_name"`
	GraduationYear  int        `json:"graduation_year,omitempty"`
	Degree          string     `gorm:"size:200" json:"degree,omitempty"`
	Role            string     `gorm:"size:20;default:guest" json:"role"`
	ApprovalState   string     `gorm:"size:20;default:pending;index" json:"approval_state"`
	RejectionReason string     `gorm:"size:500" json:"rejection_reason,omitempty"`
	ApprovedBy      *uint      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Member) TableName() string { return "members" }

// IsAdmin reports whether the member can perform moderation actions.
func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// IsActive reports whether the member has cleared the approval gate.
// Identity resolution succeeding does not imply access: authentication
// is decoupled from authorization.
func (m *Member) IsActive() bool {
	return m.ApprovalState == StateApproved
}

// CanPost reports whether the member may create jobs and stories.
func (m *Member) CanPost() bool {
	return (m.Role == RoleAlumni || m.Role == RoleAdmin) && m.IsActive()
}
