package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByOwnerID struct {
	OwnerID string
}

func (s ByOwnerID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.OwnerID)
}

type BySourceID struct {
	SourceID uuid.UUID
}

func (s BySourceID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_id = ?", s.SourceID)
}

type ByProcessed struct {
	Processed bool
}

func (s ByProcessed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("processed = ?", s.Processed)
}
