package services

import (
	"encoding/json"
	"time"

	"resteasy/internal/engine"
	"resteasy/internal/models/db_models"
)

func snapshotFromModel(assessment *db_models.Assessment) *engine.AssessmentSnapshot {
	if assessment == nil {
		return nil
	}
	snapshot := &engine.AssessmentSnapshot{
		Status:       assessment.Status,
		OverallScore: assessment.OverallScore,
		ReportStatus: engine.ReportStatus(assessment.ReportStatus),
		ReportStale:  assessment.ReportStale,
	}
	if len(assessment.ReportData) > 0 {
		var data map[string]any
		if err := json.Unmarshal(assessment.ReportData, &data); err == nil {
			snapshot.ReportData = data
		}
	}
	if assessment.LastAnswerAt != nil {
		at := time.Unix(*assessment.LastAnswerAt, 0).UTC()
		snapshot.LastAnswerAt = &at
	}
	return snapshot
}

func schemaFromModel(model *db_models.AssessmentSchema) *engine.Schema {
	if model == nil || len(model.Definition) == 0 {
		return nil
	}
	var schema engine.Schema
	if err := json.Unmarshal(model.Definition, &schema); err != nil {
		return nil
	}
	return &schema
}

func profileFromModel(model *db_models.ProfileIntake) map[string]any {
	if model == nil || len(model.Data) == 0 {
		return map[string]any{}
	}
	var profile map[string]any
	if err := json.Unmarshal(model.Data, &profile); err != nil {
		return map[string]any{}
	}
	return profile
}

func answersFromModels(models []db_models.AssessmentAnswer) []engine.AnswerRecord {
	records := make([]engine.AnswerRecord, 0, len(models))
	for _, model := range models {
		records = append(records, engine.AnswerRecord{
			QuestionID:    model.QuestionID,
			SectionID:     model.SectionID,
			AnswerValue:   engine.AnswerValue(model.AnswerValue),
			AnswerLabel:   model.AnswerLabel,
			ScoreFraction: model.ScoreFraction,
			QuestionText:  model.QuestionText,
		})
	}
	return records
}
