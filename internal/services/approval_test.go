package services

import (
	"errors"
	"testing"

	"github.com/campuslink/alumninet/internal/models"
	"gorm.io/gorm"
)

func newApprovalFixture(t *testing.T) (*ApprovalService, *models.Member, *captureNotifier, *ModerationLogService) {
	t.Helper()

	db := newTestDB(t)
	admin := seedAdmin(t, db)
	notifier := &captureNotifier{}
	ledger := NewModerationLogService(db)
	return NewApprovalService(db, ledger, notifier), admin, notifier, ledger
}

func TestTransitionMember_Approve(t *testing.T) {
	svc, admin, notifier, _ := newApprovalFixture(t)
	pending := seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StatePending)

	member, err := svc.TransitionMember(admin, pending.ID, ActionApprove, "")
	if err != nil {
		t.Fatalf("TransitionMember: %v", err)
	}

	if member.ApprovalState != models.StateApproved {
		t.Errorf("ApprovalState = %q, expected approved", member.ApprovalState)
	}
	if member.ApprovedBy == nil || *member.ApprovedBy != admin.ID {
		t.Errorf("ApprovedBy = %v, expected admin %d", member.ApprovedBy, admin.ID)
	}
	if member.ApprovedAt == nil {
		t.Error("ApprovedAt not set on approval")
	}

	if n := countLedger(t, svc.db); n != 1 {
		t.Errorf("ledger entries = %d, expected exactly 1", n)
	}
	if notifier.count() != 1 {
		t.Fatalf("notices = %d, expected 1", notifier.count())
	}
	if notice := notifier.last(); notice.Kind != "member_approved" || notice.MemberID != pending.ID {
		t.Errorf("notice = %+v", notice)
	}
}

func TestTransitionMember_RejectRecordsReason(t *testing.T) {
	svc, admin, notifier, _ := newApprovalFixture(t)
	pending := seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StatePending)

	member, err := svc.TransitionMember(admin, pending.ID, ActionReject, "unverifiable graduation year")
	if err != nil {
		t.Fatalf("TransitionMember: %v", err)
	}

	if member.ApprovalState != models.StateRejected {
		t.Errorf("ApprovalState = %q, expected rejected", member.ApprovalState)
	}
	if member.RejectionReason != "unverifiable graduation year" {
		t.Errorf("RejectionReason = %q", member.RejectionReason)
	}
	if notice := notifier.last(); notice == nil || notice.Kind != "member_rejected" || notice.Reason == "" {
		t.Errorf("notice = %+v, expected rejection with reason", notice)
	}
}

func TestTransitionMember_NonAdminDenied(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(t)
	outsider := seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StateApproved)
	pending := seedMember(t, svc.db, "m2@alumni.test", "sub-m2", models.StatePending)

	if _, err := svc.TransitionMember(outsider, pending.ID, ActionApprove, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, expected ErrUnauthorized", err)
	}
	if n := countLedger(t, svc.db); n != 0 {
		t.Errorf("ledger entries = %d, denied actions must not be logged", n)
	}
}

func TestTransitionMember_RepeatIsNoOp(t *testing.T) {
	svc, admin, _, _ := newApprovalFixture(t)
	pending := seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StatePending)

	if _, err := svc.TransitionMember(admin, pending.ID, ActionApprove, ""); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if _, err := svc.TransitionMember(admin, pending.ID, ActionApprove, ""); !errors.Is(err, ErrNoOpTransition) {
		t.Fatalf("err = %v, expected ErrNoOpTransition", err)
	}

	// The no-op attempt leaves no ledger trace.
	if n := countLedger(t, svc.db); n != 1 {
		t.Errorf("ledger entries = %d, expected 1", n)
	}
}

func TestTransitionMember_Missing(t *testing.T) {
	svc, admin, _, _ := newApprovalFixture(t)

	if _, err := svc.TransitionMember(admin, 9999, ActionApprove, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, expected ErrNotFound", err)
	}
}

func TestTransitionMember_UnknownAction(t *testing.T) {
	svc, admin, _, _ := newApprovalFixture(t)
	pending := seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StatePending)

	if _, err := svc.TransitionMember(admin, pending.ID, "escalate", ""); !errors.Is(err, ErrBadAction) {
		t.Fatalf("err = %v, expected ErrBadAction", err)
	}
}

func TestBulkTransitionMembers_MixedStates(t *testing.T) {
	svc, admin, notifier, ledger := newApprovalFixture(t)
	m1 := seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StatePending)
	m2 := seedMember(t, svc.db, "m2@alumni.test", "sub-m2", models.StateApproved)

	modified, err := svc.BulkTransitionMembers(admin, []uint{m1.ID, m2.ID}, ActionApprove, "")
	if err != nil {
		t.Fatalf("BulkTransitionMembers: %v", err)
	}
	if modified != 1 {
		t.Errorf("modified = %d, only the pending member should change", modified)
	}

	// Exactly one ledger entry for the whole batch, recording both the
	// requested targets and the applied count.
	resp, err := ledger.List(&ModerationLogListRequest{})
	if err != nil {
		t.Fatalf("ledger List: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("ledger entries = %d, expected exactly 1", resp.Total)
	}
	entry := resp.Items[0]
	if entry.ActionKind != models.ActionMemberBulkApprove {
		t.Errorf("ActionKind = %q", entry.ActionKind)
	}
	if entry.TargetID != nil {
		t.Error("batch entries must not carry a single target id")
	}
	details, err := entry.DecodeDetails()
	if err != nil {
		t.Fatalf("DecodeDetails: %v", err)
	}
	if details.Count != 1 {
		t.Errorf("details.Count = %d, expected 1", details.Count)
	}
	if len(details.TargetIDs) != 2 {
		t.Errorf("details.TargetIDs = %v, expected both requested ids", details.TargetIDs)
	}

	// Only the member that actually transitioned is notified.
	if notifier.count() != 1 {
		t.Errorf("notices = %d, expected 1", notifier.count())
	}

	// m2 keeps its prior approval metadata.
	var fresh models.Member
	svc.db.First(&fresh, m2.ID)
	if fresh.ApprovalState != models.StateApproved {
		t.Errorf("m2 state = %q", fresh.ApprovalState)
	}
}

func TestBulkTransitionMembers_ConcurrentDecisionNotNotified(t *testing.T) {
	svc, admin, notifier, _ := newApprovalFixture(t)
	m1 := seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StatePending)
	m2 := seedMember(t, svc.db, "m2@alumni.test", "sub-m2", models.StatePending)

	// Land a competing rejection on m2 right after the eligibility
	// snapshot loads, before the conditional update runs. The query
	// callback fires once, on the first members read inside the batch.
	flipped := false
	err := svc.db.Callback().Query().After("gorm:query").Register("decide_elsewhere_once", func(tx *gorm.DB) {
		if flipped || tx.Statement.Table != "members" {
			return
		}
		flipped = true
		sqlDB, err := svc.db.DB()
		if err != nil {
			t.Errorf("raw db handle: %v", err)
			return
		}
		if _, err := sqlDB.Exec("UPDATE members SET approval_state = ? WHERE id = ?", models.StateRejected, m2.ID); err != nil {
			t.Errorf("competing decision: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	modified, err := svc.BulkTransitionMembers(admin, []uint{m1.ID, m2.ID}, ActionApprove, "")
	if err != nil {
		t.Fatalf("BulkTransitionMembers: %v", err)
	}
	if !flipped {
		t.Fatal("competing decision was never injected")
	}

	if modified != 1 {
		t.Errorf("modified = %d, only m1 was still pending at the update", modified)
	}

	// m2 keeps the competing rejection and gets no approval notice.
	var fresh models.Member
	svc.db.First(&fresh, m2.ID)
	if fresh.ApprovalState != models.StateRejected {
		t.Errorf("m2 state = %q, expected the competing rejection to stand", fresh.ApprovalState)
	}
	if notifier.count() != 1 {
		t.Fatalf("notices = %d, expected only the transitioned member", notifier.count())
	}
	if notice := notifier.last(); notice.MemberID != m1.ID || notice.Kind != "member_approved" {
		t.Errorf("notice = %+v", notice)
	}
}

func TestBulkTransitionMembers_RepeatModifiesNothing(t *testing.T) {
	svc, admin, _, _ := newApprovalFixture(t)
	m1 := seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StatePending)

	if _, err := svc.BulkTransitionMembers(admin, []uint{m1.ID}, ActionApprove, ""); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	modified, err := svc.BulkTransitionMembers(admin, []uint{m1.ID}, ActionApprove, "")
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if modified != 0 {
		t.Errorf("modified = %d, repeated batch must be a zero-effect success", modified)
	}

	// Both calls are audited, even the zero-count one.
	if n := countLedger(t, svc.db); n != 2 {
		t.Errorf("ledger entries = %d, expected one per call", n)
	}
}

func TestBulkTransitionMembers_EmptyBatch(t *testing.T) {
	svc, admin, _, _ := newApprovalFixture(t)

	modified, err := svc.BulkTransitionMembers(admin, nil, ActionApprove, "")
	if err != nil {
		t.Fatalf("BulkTransitionMembers: %v", err)
	}
	if modified != 0 {
		t.Errorf("modified = %d", modified)
	}
	if n := countLedger(t, svc.db); n != 0 {
		t.Errorf("ledger entries = %d, empty batches are not audited", n)
	}
}

func TestListMembers_PendingQueue(t *testing.T) {
	svc, _, _, _ := newApprovalFixture(t)
	seedMember(t, svc.db, "m1@alumni.test", "sub-m1", models.StatePending)
	seedMember(t, svc.db, "m2@alumni.test", "sub-m2", models.StateRejected)

	resp, err := svc.ListMembers(&MemberListRequest{State: models.StatePending})
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Total = %d, expected 1 pending", resp.Total)
	}
	if len(resp.Items) != 1 || resp.Items[0].Email != "m1@alumni.test" {
		t.Errorf("Items = %+v", resp.Items)
	}
}
