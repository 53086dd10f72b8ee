package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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

type alertModel struct {
	ID                      uuid.UUID      `gorm:"primaryKey;column:id"`
	SubjectID               uuid.UUID      `gorm:"column:subject_id;index"`
	SessionID               uuid.UUID      `gorm:"column:session_id"`
	Level                   string         `gorm:"column:level"`
	Kind                    string         `gorm:"column:kind"`
	Category                string         `gorm:"column:category"`
	Score                   float64        `gorm:"column:score"`
	Recommendations         datatypes.JSON `gorm:"column:recommendations"`
	Status                  string         `gorm:"column:status;index"`
	RequiresImmediateAction bool           `gorm:"column:requires_immediate_action"`
	CreatedAt               time.Time      `gorm:"column:created_at"`
	UpdatedAt               time.Time      `gorm:"column:updated_at"`
}

func (alertModel) TableName() string { return "risk_alerts" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&alertModel{})
}

func (r *Repository) Create(ctx context.Context, alert models.Alert) (models.Alert, error) {
	row, err := alertToRow(alert)
	if err != nil {
		return models.Alert{}, err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Alert{}, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

func (r *Repository) Update(ctx context.Context, alert models.Alert) (models.Alert, error) {
	row, err := alertToRow(alert)
	if err != nil {
		return models.Alert{}, err
	}
	if err := r.db.WithContext(ctx).Model(&alertModel{}).Where("id = ?", alert.ID).Updates(map[string]interface{}{
		"level":                     row.Level,
		"kind":                      row.Kind,
		"category":                  row.Category,
		"score":                     row.Score,
		"recommendations":           row.Recommendations,
		"status":                    row.Status,
		"requires_immediate_action": row.RequiresImmediateAction,
		"updated_at":                row.UpdatedAt,
	}).Error; err != nil {
		return models.Alert{}, fmt.Errorf("failed to update alert: %w", err)
	}
	return alert, nil
}

// FindPendingInWindow returns the subject's PENDING alert created after the
// window start, if one exists.
func (r *Repository) FindPendingInWindow(ctx context.Context, subjectID uuid.UUID, since time.Time) (models.Alert, bool, error) {
	var row alertModel
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND status = ? AND created_at >= ?", subjectID, string(models.AlertPending), since).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Alert{}, false, nil
	}
	if err != nil {
		return models.Alert{}, false, err
	}
	alert, err := rowToAlert(row)
	if err != nil {
		return models.Alert{}, false, err
	}
	return alert, true, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (models.Alert, error) {
	var row alertModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Alert{}, fmt.Errorf("alert %s not found", id)
	}
	if err != nil {
		return models.Alert{}, err
	}
	return rowToAlert(row)
}

func (r *Repository) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]models.Alert, error) {
	return r.list(ctx, r.db.Where("subject_id = ?", subjectID), limit)
}

func (r *Repository) ListByStatus(ctx context.Context, status models.AlertStatus, limit int) ([]models.Alert, error) {
	return r.list(ctx, r.db.Where("status = ?", string(status)), limit)
}

func (r *Repository) list(ctx context.Context, query *gorm.DB, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []alertModel
	if err := query.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]models.Alert, 0, len(rows))
	for _, row := range rows {
		alert, err := rowToAlert(row)
		if err != nil {
			return nil, err
		}
		result = append(result, alert)
	}
	return result, nil
}

func alertToRow(alert models.Alert) (alertModel, error) {
	recommendations, err := json.Marshal(alert.Recommendations)
	if err != nil {
		return alertModel{}, fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	return alertModel{
		ID:                      alert.ID,
		SubjectID:               alert.SubjectID,
		SessionID:               alert.SessionID,
		Level:                   string(alert.Level),
		Kind:                    string(alert.Kind),
		Category:                string(alert.Category),
		Score:                   alert.Score,
		Recommendations:         datatypes.JSON(recommendations),
		Status:                  string(alert.Status),
		RequiresImmediateAction: alert.RequiresImmediateAction,
		CreatedAt:               alert.CreatedAt,
		UpdatedAt:               alert.UpdatedAt,
	}, nil
}

func rowToAlert(row alertModel) (models.Alert, error) {
	var recommendations []string
	if len(row.Recommendations) > 0 {
		if err := json.Unmarshal(row.Recommendations, &recommendations); err != nil {
			return models.Alert{}, fmt.Errorf("failed to unmarshal recommendations: %w", err)
		}
	}
	return models.Alert{
		ID:                      row.ID,
		SubjectID:               row.SubjectID,
		SessionID:               row.SessionID,
		Level:                   models.AlertLevel(row.Level),
		Kind:                    models.AlertKind(row.Kind),
		Category:                models.Category(row.Category),
		Score:                   row.Score,
		Recommendations:         recommendations,
		Status:                  models.AlertStatus(row.Status),
		RequiresImmediateAction: row.RequiresImmediateAction,
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}, nil
}
