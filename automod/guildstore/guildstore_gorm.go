package guildstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// One row per guild, holding the whole settings document as JSON.
type GuildDocRow struct {
	GuildID   string `gorm:"primaryKey"`
	Doc       string `gorm:"not null"`
	UpdatedAt time.Time
}

func (GuildDocRow) TableName() string {
	return "guild_docs"
}

type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&GuildDocRow{}); err != nil {
		return nil, err
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) GetGuild(ctx context.Context, guildID string) (*GuildDoc, error) {
	var row GuildDocRow
	err := s.DB.WithContext(ctx).Where("guild_id = ?", guildID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc GuildDoc
	if err := json.Unmarshal([]byte(row.Doc), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *GormStore) Update(ctx context.Context, guildID string, fn func(doc *GuildDoc) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc := newGuildDoc(guildID)
		var row GuildDocRow
		err := tx.Where("guild_id = ?", guildID).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// new document
		case err != nil:
			return err
		default:
			if err := json.Unmarshal([]byte(row.Doc), doc); err != nil {
				return err
			}
		}
		if err := fn(doc); err != nil {
			return err
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		row = GuildDocRow{
			GuildID:   guildID,
			Doc:       string(raw),
			UpdatedAt: time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}},
			UpdateAll: true,
		}).Create(&row).Error
	})
}
