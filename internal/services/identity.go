package services

import (
	"errors"
	"strings"

	"github.com/campuslink/alumninet/internal/models"
	"github.com/campuslink/alumninet/internal/utils"
	"github.com/campuslink/alumninet/pkg/logger"
	"gorm.io/gorm"
)

// IdentityService binds identity-provider assertions to member records.
type IdentityService struct {
	db *gorm.DB
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{db: db}
}

// Resolve maps an assertion to exactly one member record, creating or
// linking as needed.
//
// Fast path: the subject id is already linked. Linking path: a record
// with the asserted email exists through another route (import, manual
// creation); the subject id is attached to it once. Creation path: no
// record matches; a fresh pending member is created with both keys.
//
// Races between concurrent resolutions of the same identity are settled
// by the unique indexes on email and subject_id: the loser retries the
// lookup once and resolves through the linking path instead of
// propagating the constraint violation.
func (s *IdentityService) Resolve(assertion *utils.IdentityAssertion) (*models.Member, error) {
	member, err := s.resolveOnce(assertion)
	if err == nil || errors.Is(err, ErrIdentityConflict) {
		return member, err
	}
	if !isUniqueViolation(err) {
		return nil, err
	}

	logger.Debug().
		Str("subject", assertion.SubjectID).
		Msg("identity resolution lost a race, retrying lookup")
	return s.resolveOnce(assertion)
}

func (s *IdentityService) resolveOnce(assertion *utils.IdentityAssertion) (*models.Member, error) {
	// 1. Idempotent fast path: subject id already linked.
	var member models.Member
	err := s.db.Where("subject_id = ?", assertion.SubjectID).First(&member).Error
	if err == nil {
		return s.refreshProfile(&member, assertion)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. Linking path: a record with this email exists; attach the
	// subject id only if none is set yet. The conditional update is
	// what makes linking race-free.
	err = s.db.Where("email = ?", assertion.Email).First(&member).Error
	if err == nil {
		res := s.db.Model(&models.Member{}).
			Where("id = ? AND subject_id IS NULL", member.ID).
			Update("subject_id", assertion.SubjectID)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// Someone linked first. Re-read to tell "same subject won
			// the race" apart from "bound to a different identity".
			if err := s.db.First(&member, member.ID).Error; err != nil {
				return nil, err
			}
			if member.SubjectID == nil || *member.SubjectID != assertion.SubjectID {
				return nil, ErrIdentityConflict
			}
			return &member, nil
		}

		member.SubjectID = &assertion.SubjectID
		return &member, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. Creation path: brand-new identity, starts pending with the
	// default role. Role is applied only here, never on later resolves.
	subject := assertion.SubjectID
	member = models.Member{
		SubjectID:     &subject,
		Email:         assertion.Email,
		DisplayName:   SanitizePlain(assertion.DisplayName),
		Role:          models.RoleGuest,
		ApprovalState: models.StatePending,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// refreshProfile updates the display name from the assertion when it
// changed upstream. Unchanged assertions perform no write.
func (s *IdentityService) refreshProfile(member *models.Member, assertion *utils.IdentityAssertion) (*models.Member, error) {
	name := SanitizePlain(assertion.DisplayName)
	if name == "" || name == member.DisplayName {
		return member, nil
	}
	if err := s.db.Model(member).Update("display_name", name).Error; err != nil {
		return nil, err
	}
	member.DisplayName = name
	return member, nil
}

// UpdateProfileRequest carries the member-editable profile fields.
// Everything else on the record (role, approval state, identity keys)
// is owned by the resolver and the state machine; request bodies are
// never merged onto records wholesale.
type UpdateProfileRequest struct {
	DisplayName    *string `json:"display_name"`
	GraduationYear *int    `json:"graduation_year"`
	Degree         *string `json:"degree"`
}

// UpdateProfile applies the allow-listed profile fields to the caller's
// own record.
func (s *IdentityService) UpdateProfile(member *models.Member, req *UpdateProfileRequest) (*models.Member, error) {
	updates := make(map[string]interface{})
	if req.DisplayName != nil {
		name := SanitizePlain(*req.DisplayName)
		if name == "" {
			return nil, errors.New("display_name must not be empty")
		}
		updates["display_name"] = name
	}
	if req.GraduationYear != nil {
		updates["graduation_year"] = *req.GraduationYear
	}
	if req.Degree != nil {
		updates["degree"] = SanitizePlain(*req.Degree)
	}

	if len(updates) == 0 {
		return member, nil
	}

	if err := s.db.Model(&models.Member{}).Where("id = ?", member.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	var fresh models.Member
	if err := s.db.First(&fresh, member.ID).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// gorm only translates these for some drivers, so the message is
// checked as a fallback for sqlite and mysql.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
