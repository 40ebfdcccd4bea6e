package casestore

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Case{}); err != nil {
		return nil, err
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) Append(ctx context.Context, c *Case) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return s.DB.WithContext(ctx).Create(c).Error
}

func (s *GormStore) List(ctx context.Context, guildID string, offset, limit int) ([]Case, error) {
	var out []Case
	q := s.DB.WithContext(ctx).Where("guild_id = ?", guildID).Order("created_at desc, id desc").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) Count(ctx context.Context, guildID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&Case{}).Where("guild_id = ?", guildID).Count(&n).Error
	return n, err
}

func (s *GormStore) ListByTarget(ctx context.Context, guildID, targetID, action string) ([]Case, error) {
	var out []Case
	q := s.DB.WithContext(ctx).Where("guild_id = ? AND target_id = ?", guildID, targetID)
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if err := q.Order("created_at desc, id desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) UpdateReason(ctx context.Context, id uint64, reason, editedBy string, at time.Time) error {
	res := s.DB.WithContext(ctx).Model(&Case{}).Where("id = ?", id).Updates(map[string]any{
		"reason":    reason,
		"edited_at": at,
		"edited_by": editedBy,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uint64) error {
	res := s.DB.WithContext(ctx).Delete(&Case{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
