package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type sessionModel struct {
	ID               uuid.UUID      `gorm:"primaryKey;column:id"`
	SubjectID        uuid.UUID      `gorm:"column:subject_id;index"`
	QuestionnaireRef string         `gorm:"column:questionnaire_ref"`
	Status           string         `gorm:"column:status;index"`
	Theta            float64        `gorm:"column:theta"`
	StandardError    float64        `gorm:"column:standard_error"`
	Confidence       float64        `gorm:"column:confidence"`
	PresentedItemIDs datatypes.JSON `gorm:"column:presented_item_ids"`
	ResponseCount    int            `gorm:"column:response_count"`
	Version          int            `gorm:"column:version"`
	StartedAt        time.Time      `gorm:"column:started_at"`
	PausedAt         *time.Time     `gorm:"column:paused_at"`
	FinishedAt       *time.Time     `gorm:"column:finished_at"`
	ElapsedSeconds   float64        `gorm:"column:elapsed_seconds"`
	MeanResponseSecs float64        `gorm:"column:mean_response_seconds"`
}

func (sessionModel) TableName() string { return "assessment_sessions" }

type responseModel struct {
	ID               uuid.UUID      `gorm:"primaryKey;column:id"`
	SessionID        uuid.UUID      `gorm:"column:session_id;index"`
	ItemID           *uuid.UUID     `gorm:"column:item_id"`
	RawValue         datatypes.JSON `gorm:"column:raw_value"`
	NormalizedValue  float64        `gorm:"column:normalized_value"`
	Category         string         `gorm:"column:category"`
	DomainTag        string         `gorm:"column:domain_tag"`
	ResponseTimeSecs float64        `gorm:"column:response_time_seconds"`
	ItemOrder        int            `gorm:"column:item_order"`
	Timestamp        time.Time      `gorm:"column:timestamp"`
}

func (responseModel) TableName() string { return "assessment_responses" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&sessionModel{}, &responseModel{})
}

func (r *Repository) Create(ctx context.Context, s models.Session) (models.Session, error) {
	row, err := sessionToRow(s)
	if err != nil {
		return models.Session{}, err
	}
	row.Version = 1
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return rowToSession(row)
}

func (r *Repository) Load(ctx context.Context, id uuid.UUID) (models.Session, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Session{}, apperr.SessionNotFound(id.String())
	}
	if err != nil {
		return models.Session{}, err
	}
	return rowToSession(row)
}

// Save writes the session back conditionally on the version it was loaded
// with. A lost race surfaces as ConcurrentModification for the caller to
// retry with a fresh load; sessions are never hard-deleted.
func (r *Repository) Save(ctx context.Context, s models.Session) (models.Session, error) {
	row, err := sessionToRow(s)
	if err != nil {
		return models.Session{}, err
	}
	row.Version = s.Version + 1

	if err := conditionalUpdate(r.db.WithContext(ctx), s, row); err != nil {
		return models.Session{}, err
	}

	s.Version = row.Version
	return s, nil
}

// SaveWithResponse appends the response row and writes the session back in
// one transaction, conditional on the loaded version. A lost race rolls
// back both writes, so a retried submit cannot store the same answer twice.
func (r *Repository) SaveWithResponse(ctx context.Context, s models.Session, resp models.Response) (models.Session, error) {
	row, err := sessionToRow(s)
	if err != nil {
		return models.Session{}, err
	}
	row.Version = s.Version + 1

	respRow, err := responseToRow(resp)
	if err != nil {
		return models.Session{}, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := conditionalUpdate(tx, s, row); err != nil {
			return err
		}
		if err := tx.Create(&respRow).Error; err != nil {
			return fmt.Errorf("failed to append response: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}

	s.Version = row.Version
	return s, nil
}

func conditionalUpdate(tx *gorm.DB, s models.Session, row sessionModel) error {
	result := tx.Model(&sessionModel{}).
		Where("id = ? AND version = ?", s.ID, s.Version).
		Updates(map[string]interface{}{
			"status":                row.Status,
			"theta":                 row.Theta,
			"standard_error":        row.StandardError,
			"confidence":            row.Confidence,
			"presented_item_ids":    row.PresentedItemIDs,
			"response_count":        row.ResponseCount,
			"version":               row.Version,
			"paused_at":             row.PausedAt,
			"finished_at":           row.FinishedAt,
			"elapsed_seconds":       row.ElapsedSeconds,
			"mean_response_seconds": row.MeanResponseSecs,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		tx.Model(&sessionModel{}).Where("id = ?", s.ID).Count(&exists)
		if exists == 0 {
			return apperr.SessionNotFound(s.ID.String())
		}
		return fmt.Errorf("%w: session %s version %d", apperr.ErrConcurrentModification, s.ID, s.Version)
	}
	return nil
}

func responseToRow(resp models.Response) (responseModel, error) {
	raw, err := json.Marshal(resp.RawValue)
	if err != nil {
		return responseModel{}, fmt.Errorf("failed to marshal raw value: %w", err)
	}
	return responseModel{
		ID:               resp.ID,
		SessionID:        resp.SessionID,
		ItemID:           resp.ItemID,
		RawValue:         datatypes.JSON(raw),
		NormalizedValue:  resp.NormalizedValue,
		Category:         string(resp.Category),
		DomainTag:        resp.DomainTag,
		ResponseTimeSecs: resp.ResponseTimeSecs,
		ItemOrder:        resp.Order,
		Timestamp:        resp.Timestamp,
	}, nil
}

func (r *Repository) LoadResponses(ctx context.Context, sessionID uuid.UUID) ([]models.Response, error) {
	var rows []responseModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("item_order ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	responses := make([]models.Response, 0, len(rows))
	for _, row := range rows {
		var raw models.RawResponseValue
		if len(row.RawValue) > 0 {
			if err := json.Unmarshal(row.RawValue, &raw); err != nil {
				return nil, fmt.Errorf("failed to unmarshal raw value for response %s: %w", row.ID, err)
			}
		}
		responses = append(responses, models.Response{
			ID:               row.ID,
			SessionID:        row.SessionID,
			ItemID:           row.ItemID,
			RawValue:         raw,
			NormalizedValue:  row.NormalizedValue,
			Category:         models.Category(row.Category),
			DomainTag:        row.DomainTag,
			ResponseTimeSecs: row.ResponseTimeSecs,
			Order:            row.ItemOrder,
			Timestamp:        row.Timestamp,
		})
	}
	return responses, nil
}

func (r *Repository) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []sessionModel
	if err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		s, err := rowToSession(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func sessionToRow(s models.Session) (sessionModel, error) {
	presented, err := json.Marshal(s.PresentedItemIDs)
	if err != nil {
		return sessionModel{}, fmt.Errorf("failed to marshal presented items: %w", err)
	}
	return sessionModel{
		ID:               s.ID,
		SubjectID:        s.SubjectID,
		QuestionnaireRef: s.QuestionnaireRef,
		Status:           string(s.Status),
		Theta:            s.Theta,
		StandardError:    s.StandardError,
		Confidence:       s.Confidence,
		PresentedItemIDs: datatypes.JSON(presented),
		ResponseCount:    s.ResponseCount,
		Version:          s.Version,
		StartedAt:        s.StartedAt,
		PausedAt:         s.PausedAt,
		FinishedAt:       s.FinishedAt,
		ElapsedSeconds:   s.ElapsedSeconds,
		MeanResponseSecs: s.MeanResponseSecs,
	}, nil
}

func rowToSession(row sessionModel) (models.Session, error) {
	var presented []uuid.UUID
	if len(row.PresentedItemIDs) > 0 {
		if err := json.Unmarshal(row.PresentedItemIDs, &presented); err != nil {
			return models.Session{}, fmt.Errorf("failed to unmarshal presented items: %w", err)
		}
	}
	return models.Session{
		ID:               row.ID,
		SubjectID:        row.SubjectID,
		QuestionnaireRef: row.QuestionnaireRef,
		Status:           models.SessionStatus(row.Status),
		Theta:            row.Theta,
		StandardError:    row.StandardError,
		Confidence:       row.Confidence,
		PresentedItemIDs: presented,
		ResponseCount:    row.ResponseCount,
		Version:          row.Version,
		StartedAt:        row.StartedAt,
		PausedAt:         row.PausedAt,
		FinishedAt:       row.FinishedAt,
		ElapsedSeconds:   row.ElapsedSeconds,
		MeanResponseSecs: row.MeanResponseSecs,
	}, nil
}
