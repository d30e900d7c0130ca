package services

import (
	"errors"
	"time"

	"github.com/campuslink/alumninet/internal/models"
	"github.com/campuslink/alumninet/pkg/logger"
	"gorm.io/gorm"
)

// Transition actions accepted by the member and media state machines.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ApprovalService drives the pending → approved/rejected lifecycle of
// member records. Every race-sensitive write is a store-level
// conditional update on approval_state='pending'; there are no
// in-process locks, which is what makes double-click approvals and
// concurrent duplicate batches safe.
type ApprovalService struct {
	db       *gorm.DB
	ledger   *ModerationLogService
	notifier Notifier
}

func NewApprovalService(db *gorm.DB, ledger *ModerationLogService, notifier Notifier) *ApprovalService {
	return &ApprovalService{db: db, ledger: ledger, notifier: notifier}
}

// TransitionMember applies one admin decision to a single member.
// A missing target and a non-pending target are both surfaced as
// errors so the operator sees the mistake; only batches treat
// non-pending targets as silent zero-effect.
func (s *ApprovalService) TransitionMember(actor *models.Member, memberID uint, action, reason string) (*models.Member, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	updates, actionKind, err := memberTransition(actor, action, reason)
	if err != nil {
		return nil, err
	}

	res := s.db.Model(&models.Member{}).
		Where("id = ? AND approval_state = ?", memberID, models.StatePending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := s.db.Model(&models.Member{}).Where("id = ?", memberID).Count(&exists).Error; err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrNoOpTransition
	}

	var member models.Member
	if err := s.db.First(&member, memberID).Error; err != nil {
		return nil, err
	}

	targetID := member.ID
	s.appendLedger(&models.ModerationLogEntry{
		ActorID:    actor.ID,
		ActionKind: actionKind,
		TargetKind: models.TargetMember,
		TargetID:   &targetID,
		Details: models.EncodeDetails(models.LedgerDetails{
			Count:     1,
			TargetIDs: []uint{member.ID},
			Reason:    reason,
		}),
	})
	s.notifyMembers([]models.Member{member}, action, reason)

	return &member, nil
}

// BulkTransitionMembers applies one decision to many members in a
// single conditional update. Only currently-pending targets are
// touched, so a repeated call with the same target set modifies zero
// rows. Exactly one ledger entry is written per call, pending count or
// not, as long as the batch is non-empty.
func (s *ApprovalService) BulkTransitionMembers(actor *models.Member, memberIDs []uint, action, reason string) (int64, error) {
	if !actor.IsAdmin() {
		return 0, ErrUnauthorized
	}
	if len(memberIDs) == 0 {
		return 0, nil
	}

	updates, actionKind, err := memberTransition(actor, action, reason)
	if err != nil {
		return 0, err
	}
	actionKind = bulkKind(actionKind)

	// Snapshot the eligible set first; only members pending at this
	// point can possibly be transitioned by this call.
	var eligible []models.Member
	if err := s.db.Where("id IN ? AND approval_state = ?", memberIDs, models.StatePending).Find(&eligible).Error; err != nil {
		return 0, err
	}

	var modified int64
	eligibleIDs := make([]uint, len(eligible))
	for i, m := range eligible {
		eligibleIDs[i] = m.ID
	}
	if len(eligibleIDs) > 0 {
		res := s.db.Model(&models.Member{}).
			Where("id IN ? AND approval_state = ?", eligibleIDs, models.StatePending).
			Updates(updates)
		if res.Error != nil {
			return 0, res.Error
		}
		modified = res.RowsAffected
	}

	s.appendLedger(&models.ModerationLogEntry{
		ActorID:    actor.ID,
		ActionKind: actionKind,
		TargetKind: models.TargetMember,
		Details: models.EncodeDetails(models.LedgerDetails{
			Count:     int(modified),
			TargetIDs: memberIDs,
			Reason:    reason,
		}),
	})

	// Re-derive the notified set from the rows now holding the decided
	// state. A member decided through another path between the snapshot
	// and the conditional update must not receive a notice for a
	// transition that did not apply to them.
	var transitioned []models.Member
	if modified > 0 {
		if err := s.db.Where("id IN ? AND approval_state = ?", eligibleIDs, updates["approval_state"]).Find(&transitioned).Error; err != nil {
			logger.Warnf("[Approval] transitioned-set lookup for notices failed: %v", err)
		}
	}
	s.notifyMembers(transitioned, action, reason)

	return modified, nil
}

// memberTransition maps an action to its column updates. Approval sets
// the approver pair and clears any stale rejection reason; rejection
// records who decided and why.
func memberTransition(actor *models.Member, action, reason string) (map[string]interface{}, string, error) {
	now := time.Now()
	switch action {
	case ActionApprove:
		return map[string]interface{}{
			"approval_state":   models.StateApproved,
			"approved_by":      actor.ID,
			"approved_at":      now,
			"rejection_reason": "",
		}, models.ActionMemberApprove, nil
	case ActionReject:
		return map[string]interface{}{
			"approval_state":   models.StateRejected,
			"approved_by":      actor.ID,
			"approved_at":      now,
			"rejection_reason": SanitizePlain(reason),
		}, models.ActionMemberReject, nil
	default:
		return nil, "", ErrBadAction
	}
}

func bulkKind(kind string) string {
	switch kind {
	case models.ActionMemberApprove:
		return models.ActionMemberBulkApprove
	case models.ActionMemberReject:
		return models.ActionMemberBulkReject
	case models.ActionMediaApprove:
		return models.ActionMediaBulkApprove
	case models.ActionMediaReject:
		return models.ActionMediaBulkReject
	}
	return kind
}

// appendLedger writes the audit entry. A ledger failure must never
// undo an already-applied transition; it is logged for the operational
// channel instead.
func (s *ApprovalService) appendLedger(entry *models.ModerationLogEntry) {
	if err := s.ledger.Write(entry); err != nil {
		logger.Error().
			Err(err).
			Str("action", entry.ActionKind).
			Uint("actor", entry.ActorID).
			Msg("moderation ledger write failed after applied transition")
	}
}

func (s *ApprovalService) notifyMembers(members []models.Member, action, reason string) {
	if s.notifier == nil {
		return
	}

	kind := "member_approved"
	if action == ActionReject {
		kind = "member_rejected"
	}

	for _, m := range members {
		notice := &DecisionNotice{
			MemberID:    m.ID,
			Email:       m.Email,
			DisplayName: m.DisplayName,
			Kind:        kind,
			Reason:      reason,
		}
		if err := s.notifier.Notify(notice); err != nil {
			logger.Warnf("[Approval] notification for member %d dropped: %v", m.ID, err)
		}
	}
}

// GetMember loads one member by internal id.
func (s *ApprovalService) GetMember(id uint) (*models.Member, error) {
	var member models.Member
	if err := s.db.First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

type MemberListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	State    string `form:"state"`
	Role     string `form:"role"`
	Search   string `form:"search"`
}

type MemberListResponse struct {
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Items    []models.Member `json:"items"`
}

// ListMembers is the admin view over member records, defaulting to the
// pending review queue.
func (s *ApprovalService) ListMembers(req *MemberListRequest) (*MemberListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Member{})
	if req.State != "" {
		query = query.Where("approval_state = ?", req.State)
	}
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		query = query.Where("email LIKE ? OR display_name LIKE ?", pattern, pattern)
	}

	var total int64
	query.Count(&total)

	var members []models.Member
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at ASC").Offset(offset).Limit(req.PageSize).Find(&members).Error; err != nil {
		return nil, err
	}

	return &MemberListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    members,
	}, nil
}
