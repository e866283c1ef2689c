package db_models

import "github.com/google/uuid"

// Assessment is one subject's readiness assessment run.
type Assessment struct {
	BaseModel
	SubjectID     uuid.UUID `gorm:"type:uuid;index"`
	SchemaVersion string    `gorm:"size:64"`
	Status        string    `gorm:"size:32;default:in_progress"`
	OverallScore  *int
	ReportStatus  string `gorm:"size:32;default:not_started"`
	ReportStale   bool
	ReportData    []byte `gorm:"type:jsonb"`
	LastAnswerAt  *int64
}

// AssessmentSchema stores one immutable schema version as JSON.
type AssessmentSchema struct {
	BaseModel
	Version    string `gorm:"size:64;uniqueIndex"`
	Definition []byte `gorm:"type:jsonb"`
}

// AssessmentAnswer is unique per assessment+question; edits overwrite in place.
type AssessmentAnswer struct {
	BaseModel
	AssessmentID  uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_assessment_question"`
	QuestionID    string    `gorm:"size:128;uniqueIndex:idx_assessment_question"`
	SectionID     string    `gorm:"size:128"`
	AnswerValue   string    `gorm:"size:32"`
	AnswerLabel   string    `gorm:"size:256"`
	ScoreFraction *float64
	QuestionText  string `gorm:"type:text"`
}

// ProfileIntake holds the subject's profile data used by applicability rules.
type ProfileIntake struct {
	BaseModel
	SubjectID uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Data      []byte    `gorm:"type:jsonb"`
}
