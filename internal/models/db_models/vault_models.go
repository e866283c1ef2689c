package db_models

import "github.com/google/uuid"

// VaultDocument records one saved document of a catalog type.
type VaultDocument struct {
	BaseModel
	SubjectID      uuid.UUID `gorm:"type:uuid;index"`
	DocumentTypeID string    `gorm:"size:64;index"`
	FileName       string    `gorm:"size:256"`
	InlineContent  string    `gorm:"type:text"`
}

// VaultDocumentExclusion marks a catalog type as not applicable for a subject.
type VaultDocumentExclusion struct {
	BaseModel
	SubjectID      uuid.UUID `gorm:"type:uuid;index"`
	DocumentTypeID string    `gorm:"size:64"`
}
