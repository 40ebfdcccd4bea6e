// Append-only moderation history ("case log") for each guild.
package casestore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	ActionWarn     = "warn"
	ActionMute     = "mute"
	ActionAutoWarn = "auto-warn"
	ActionAutoMute = "auto-mute"
)

var (
	ErrNotFound    = errors.New("case not found")
	ErrInvalidPage = errors.New("invalid page")
)

// Single moderation history record. Written once; only the reason can later be edited.
type Case struct {
	ID           uint64    `gorm:"primaryKey"`
	GuildID      string    `gorm:"not null;index:idx_case_guild_created"`
	Action       string    `gorm:"not null"`
	TargetID     string    `gorm:"not null;index"`
	TargetTag    string    `gorm:"not null"`
	ModeratorID  string    `gorm:"not null"`
	ModeratorTag string    `gorm:"not null"`
	Reason       string    `gorm:"not null"`
	Duration     *string
	CreatedAt    time.Time `gorm:"not null;index:idx_case_guild_created"`
	EditedAt     *time.Time
	EditedBy     *string
}

type Store interface {
	Append(ctx context.Context, c *Case) error
	// Newest first
	List(ctx context.Context, guildID string, offset, limit int) ([]Case, error)
	Count(ctx context.Context, guildID string) (int64, error)
	// Newest first. An empty action matches all actions.
	ListByTarget(ctx context.Context, guildID, targetID, action string) ([]Case, error)
	UpdateReason(ctx context.Context, id uint64, reason, editedBy string, at time.Time) error
	Delete(ctx context.Context, id uint64) error
}

const DefaultPerPage = 10

type Page struct {
	Cases      []Case
	Number     int
	TotalPages int
	TotalCases int64
}

// Fetches one 1-based page of a guild's history. Returns ErrInvalidPage for pages past the end, and an empty page when there is no history at all.
func GetPage(ctx context.Context, s Store, guildID string, page, perPage int) (*Page, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	total, err := s.Count(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &Page{Cases: []Case{}, Number: page}, nil
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if page > totalPages {
		return nil, fmt.Errorf("%w: only %d page(s)", ErrInvalidPage, totalPages)
	}
	cases, err := s.List(ctx, guildID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}
	return &Page{
		Cases:      cases,
		Number:     page,
		TotalPages: totalPages,
		TotalCases: total,
	}, nil
}

// Returns the n'th (1-based, newest first) manual warning for a user.
func WarningByNumber(ctx context.Context, s Store, guildID, targetID string, n int) (*Case, error) {
	warnings, err := s.ListByTarget(ctx, guildID, targetID, ActionWarn)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(warnings) {
		return nil, fmt.Errorf("%w: user has %d warning(s)", ErrNotFound, len(warnings))
	}
	return &warnings[n-1], nil
}
