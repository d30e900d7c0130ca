package services

import (
	"strconv"

	"github.com/campuslink/alumninet/internal/models"
	"gorm.io/gorm"
)

// KeyField names which member key a content family stores for its
// author. Jobs and events reference the internal member id; stories
// carry the external subject id. The split is inherited from the
// original data model and resolved here at read time.
type KeyField string

const (
	KeyMemberID KeyField = "member_id"
	KeySubject  KeyField = "subject_id"
)

// ListingRow is one content row entering the joiner. AuthorKey holds
// the raw stored key, rendered as a string either way.
type ListingRow struct {
	Payload   interface{}
	AuthorKey string
}

// AuthorCard is the denormalized author detail attached to a row.
type AuthorCard struct {
	ID             uint   `json:"id"`
	DisplayName    string `json:"display_name"`
	Role           string `json:"role"`
	GraduationYear int    `json:"graduation_year,omitempty"`
	Degree         string `json:"degree,omitempty"`
}

// EnrichedRow is a content row with its author resolved.
type EnrichedRow struct {
	Item   interface{} `json:"item"`
	Author AuthorCard  `json:"author"`
}

// ListingJoiner enriches content rows with author details from the
// member store.
type ListingJoiner struct {
	db *gorm.DB
}

func NewListingJoiner(db *gorm.DB) *ListingJoiner {
	return &ListingJoiner{db: db}
}

// JoinListing resolves each row's author by the named key and returns
// the enriched rows. A row whose author no longer exists is excluded
// rather than failing the listing: one deleted account must not take
// the whole response down.
func (j *ListingJoiner) JoinListing(rows []ListingRow, keyField KeyField) ([]EnrichedRow, error) {
	if len(rows) == 0 {
		return []EnrichedRow{}, nil
	}

	members, err := j.loadAuthors(rows, keyField)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedRow, 0, len(rows))
	for _, row := range rows {
		member, ok := members[row.AuthorKey]
		if !ok {
			continue
		}
		enriched = append(enriched, EnrichedRow{
			Item: row.Payload,
			Author: AuthorCard{
				ID:             member.ID,
				DisplayName:    member.DisplayName,
				Role:           member.Role,
				GraduationYear: member.GraduationYear,
				Degree:         member.Degree,
			},
		})
	}
	return enriched, nil
}

// loadAuthors batch-loads the referenced members and indexes them by
// the same key representation the rows carry.
func (j *ListingJoiner) loadAuthors(rows []ListingRow, keyField KeyField) (map[string]models.Member, error) {
	byKey := make(map[string]models.Member)

	switch keyField {
	case KeyMemberID:
		ids := make([]uint, 0, len(rows))
		seen := make(map[uint]bool)
		for _, row := range rows {
			id64, err := strconv.ParseUint(row.AuthorKey, 10, 32)
			if err != nil {
				continue
			}
			id := uint(id64)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return byKey, nil
		}

		var members []models.Member
		if err := j.db.Where("id IN ?", ids).Find(&members).Error; err != nil {
			return nil, err
		}
		for _, m := range members {
			byKey[strconv.FormatUint(uint64(m.ID), 10)] = m
		}

	case KeySubject:
		subjects := make([]string, 0, len(rows))
		seen := make(map[string]bool)
		for _, row := range rows {
			if row.AuthorKey == "" || seen[row.AuthorKey] {
				continue
			}
			seen[row.AuthorKey] = true
			subjects = append(subjects, row.AuthorKey)
		}
		if len(subjects) == 0 {
			return byKey, nil
		}

		var members []models.Member
		if err := j.db.Where("subject_id IN ?", subjects).Find(&members).Error; err != nil {
			return nil, err
		}
		for _, m := range members {
			if m.SubjectID != nil {
				byKey[*m.SubjectID] = m
			}
		}
	}

	return byKey, nil
}
