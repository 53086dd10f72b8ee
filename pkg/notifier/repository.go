package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type notificationModel struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id"`
	SubjectID uuid.UUID `gorm:"column:subject_id;index"`
	Channel   string    `gorm:"column:channel"`
	Title     string    `gorm:"column:title"`
	Body      string    `gorm:"column:body"`
	EventID   string    `gorm:"column:event_id;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (notificationModel) TableName() string { return "notifications" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&notificationModel{})
}

func (r *Repository) Create(ctx context.Context, n Notification) (Notification, error) {
	row := notificationModel{
		ID:        n.ID,
		SubjectID: n.SubjectID,
		Channel:   string(n.Channel),
		Title:     n.Title,
		Body:      n.Body,
		EventID:   n.EventID,
		CreatedAt: n.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

func (r *Repository) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []notificationModel
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, Notification{
			ID:        row.ID,
			SubjectID: row.SubjectID,
			Channel:   Channel(row.Channel),
			Title:     row.Title,
			Body:      row.Body,
			EventID:   row.EventID,
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}
