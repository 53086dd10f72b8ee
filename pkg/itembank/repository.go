package itembank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/models"
	"gorm.io/gorm"
)

// Repository reads items from two tables: questionnaire_items (scoped to a
// single questionnaire) and bank_items (shared across questionnaires,
// attached by ref). Both are merged into one ordered sequence before the
// selector ever sees them.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type questionnaireModel struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id"`
	Ref       string    `gorm:"column:ref;uniqueIndex"`
	Name      string    `gorm:"column:name"`
	Adaptive  bool      `gorm:"column:adaptive"`
	Active    bool      `gorm:"column:active"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (questionnaireModel) TableName() string { return "questionnaires" }

type questionnaireItemModel struct {
	ID               uuid.UUID `gorm:"primaryKey;column:id"`
	QuestionnaireRef string    `gorm:"column:questionnaire_ref;index"`
	Text             string    `gorm:"column:text"`
	Category         string    `gorm:"column:category"`
	Discrimination   float64   `gorm:"column:discrimination"`
	Difficulty       float64   `gorm:"column:difficulty"`
	ScaleMin         int       `gorm:"column:scale_min"`
	ScaleMax         int       `gorm:"column:scale_max"`
	ItemOrder        int       `gorm:"column:item_order"`
	Weight           float64   `gorm:"column:weight"`
	ScaleName        string    `gorm:"column:scale_name"`
	ScaleItemCode    string    `gorm:"column:scale_item_code"`
	Active           bool      `gorm:"column:active"`
}

func (questionnaireItemModel) TableName() string { return "questionnaire_items" }

type bankItemModel struct {
	ID             uuid.UUID `gorm:"primaryKey;column:id"`
	Text           string    `gorm:"column:text"`
	Category       string    `gorm:"column:category"`
	Discrimination float64   `gorm:"column:discrimination"`
	Difficulty     float64   `gorm:"column:difficulty"`
	ScaleMin       int       `gorm:"column:scale_min"`
	ScaleMax       int       `gorm:"column:scale_max"`
	ItemOrder      int       `gorm:"column:item_order"`
	Weight         float64   `gorm:"column:weight"`
	ScaleName      string    `gorm:"column:scale_name"`
	ScaleItemCode  string    `gorm:"column:scale_item_code"`
	Active         bool      `gorm:"column:active"`
}

func (bankItemModel) TableName() string { return "bank_items" }

type bankAttachmentModel struct {
	QuestionnaireRef string    `gorm:"column:questionnaire_ref;primaryKey"`
	BankItemID       uuid.UUID `gorm:"column:bank_item_id;primaryKey"`
}

func (bankAttachmentModel) TableName() string { return "questionnaire_bank_items" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&questionnaireModel{},
		&questionnaireItemModel{},
		&bankItemModel{},
		&bankAttachmentModel{},
	)
}

func (r *Repository) Questionnaire(ctx context.Context, ref string) (models.Questionnaire, error) {
	var row questionnaireModel
	err := r.db.WithContext(ctx).Where("ref = ? AND active = ?", ref, true).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Questionnaire{}, fmt.Errorf("%w: %s", apperr.ErrQuestionnaireNotFound, ref)
	}
	if err != nil {
		return models.Questionnaire{}, err
	}
	return models.Questionnaire{
		ID:        row.ID,
		Ref:       row.Ref,
		Name:      row.Name,
		Adaptive:  row.Adaptive,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *Repository) ActiveItems(ctx context.Context, questionnaireRef string) ([]models.Item, error) {
	var scoped []questionnaireItemModel
	if err := r.db.WithContext(ctx).
		Where("questionnaire_ref = ? AND active = ?", questionnaireRef, true).
		Find(&scoped).Error; err != nil {
		return nil, fmt.Errorf("failed to load questionnaire items: %w", err)
	}

	var attached []bankItemModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN questionnaire_bank_items ON questionnaire_bank_items.bank_item_id = bank_items.id").
		Where("questionnaire_bank_items.questionnaire_ref = ? AND bank_items.active = ?", questionnaireRef, true).
		Find(&attached).Error; err != nil {
		return nil, fmt.Errorf("failed to load bank items: %w", err)
	}

	items := make([]models.Item, 0, len(scoped)+len(attached))
	for _, row := range scoped {
		items = append(items, questionnaireItemToDomain(row))
	}
	for _, row := range attached {
		item := bankItemToDomain(row)
		item.QuestionnaireRef = questionnaireRef
		items = append(items, item)
	}

	for _, item := range items {
		if item.Discrimination <= 0 {
			return nil, fmt.Errorf("item %s has non-positive discrimination %f", item.ID, item.Discrimination)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	return items, nil
}

func (r *Repository) Item(ctx context.Context, id uuid.UUID) (models.Item, error) {
	var scoped questionnaireItemModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&scoped).Error
	if err == nil {
		return questionnaireItemToDomain(scoped), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Item{}, err
	}

	var bank bankItemModel
	err = r.db.WithContext(ctx).Where("id = ?", id).First(&bank).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Item{}, apperr.ItemNotFound(id.String())
	}
	if err != nil {
		return models.Item{}, err
	}
	return bankItemToDomain(bank), nil
}

func questionnaireItemToDomain(row questionnaireItemModel) models.Item {
	return models.Item{
		ID:               row.ID,
		QuestionnaireRef: row.QuestionnaireRef,
		Text:             row.Text,
		Category:         models.Category(row.Category),
		Discrimination:   row.Discrimination,
		Difficulty:       row.Difficulty,
		ScaleMin:         row.ScaleMin,
		ScaleMax:         row.ScaleMax,
		Order:            row.ItemOrder,
		Weight:           row.Weight,
		ScaleName:        row.ScaleName,
		ScaleItemCode:    row.ScaleItemCode,
		Active:           row.Active,
	}
}

func bankItemToDomain(row bankItemModel) models.Item {
	return models.Item{
		ID:             row.ID,
		Text:           row.Text,
		Category:       models.Category(row.Category),
		Discrimination: row.Discrimination,
		Difficulty:     row.Difficulty,
		ScaleMin:       row.ScaleMin,
		ScaleMax:       row.ScaleMax,
		Order:          row.ItemOrder,
		Weight:         row.Weight,
		ScaleName:      row.ScaleName,
		ScaleItemCode:  row.ScaleItemCode,
		Active:         row.Active,
	}
}
