package models

import (
	"encoding/json"
	"time"
)

// Moderation action kinds recorded in the ledger.
const (
	ActionMemberApprove     = "member_approve"
	ActionMemberReject      = "member_reject"
	ActionMemberBulkApprove = "member_bulk_approve"
	ActionMemberBulkReject  = "member_bulk_reject"
	ActionMediaApprove      = "media_approve"
	ActionMediaReject       = "media_reject"
	ActionMediaBulkApprove  = "media_bulk_approve"
	ActionMediaBulkReject   = "media_bulk_reject"
)

// Ledger target kinds.
const (
	TargetMember = "member"
	TargetMedia  = "media"
)

// ModerationLogEntry is one immutable row of the administrative audit
// trail. No update or delete path exists anywhere in the codebase;
// entries carry a server-assigned id and timestamp.
type ModerationLogEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    uint      `gorm:"index;not null" json:"actor_id"`
	ActionKind string    `gorm:"size:50;index;not null" json:"action_kind"`
	TargetKind string    `gorm:"size:20;index;not null" json:"target_kind"`
	TargetID   *uint     `json:"target_id,omitempty"` // nil for batches
	Details    string    `gorm:"type:text" json:"details"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (ModerationLogEntry) TableName() string { return "moderation_log" }

// LedgerDetails is the structured payload serialized into Details.
type LedgerDetails struct {
	Count     int    `json:"count"`
	TargetIDs []uint `json:"target_ids,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// EncodeDetails serializes d for storage.
func EncodeDetails(d LedgerDetails) string {
	b, err := json.Marshal(d)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecodeDetails parses the Details column of e.
func (e *ModerationLogEntry) DecodeDetails() (LedgerDetails, error) {
	var d LedgerDetails
	err := json.Unmarshal([]byte(e.Details), &d)
	return d, err
}
