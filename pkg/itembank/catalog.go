package itembank

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog is the YAML-seedable item bank definition. A default catalog with
// the standard screening questionnaires ships compiled in; deployments can
// point ITEM_BANK_CATALOG_PATH at their own file.
type Catalog struct {
	Questionnaires []CatalogQuestionnaire `yaml:"questionnaires" json:"questionnaires"`
}

type CatalogQuestionnaire struct {
	Ref      string        `yaml:"ref" json:"ref"`
	Name     string        `yaml:"name" json:"name"`
	Adaptive bool          `yaml:"adaptive" json:"adaptive"`
	Items    []CatalogItem `yaml:"items" json:"items"`
}

type CatalogItem struct {
	ID             string  `yaml:"id" json:"id"`
	Text           string  `yaml:"text" json:"text"`
	Category       string  `yaml:"category" json:"category"`
	Discrimination float64 `yaml:"discrimination" json:"discrimination"`
	Difficulty     float64 `yaml:"difficulty" json:"difficulty"`
	ScaleMin       int     `yaml:"scale_min" json:"scale_min"`
	ScaleMax       int     `yaml:"scale_max" json:"scale_max"`
	Order          int     `yaml:"order" json:"order"`
	Weight         float64 `yaml:"weight" json:"weight"`
	ScaleName      string  `yaml:"scale_name" json:"scale_name"`
	ScaleItemCode  string  `yaml:"scale_item_code" json:"scale_item_code"`
}

func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, err
	}
	if len(cat.Questionnaires) == 0 {
		return Catalog{}, fmt.Errorf("item bank catalog empty")
	}
	for _, q := range cat.Questionnaires {
		for _, item := range q.Items {
			if item.Discrimination <= 0 {
				return Catalog{}, fmt.Errorf("catalog item %s: discrimination must be positive", item.ID)
			}
		}
	}
	return cat, nil
}

// Seed upserts the catalog into the questionnaire tables. Item IDs are
// derived deterministically from the questionnaire ref and item code so
// reseeding is idempotent.
func (r *Repository) Seed(ctx context.Context, cat Catalog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, q := range cat.Questionnaires {
			row := questionnaireModel{
				ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte("questionnaire:"+q.Ref)),
				Ref:      q.Ref,
				Name:     q.Name,
				Adaptive: q.Adaptive,
				Active:   true,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ref"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "adaptive", "active"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to seed questionnaire %s: %w", q.Ref, err)
			}

			for _, item := range q.Items {
				id, err := uuid.Parse(item.ID)
				if err != nil {
					id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(q.Ref+":"+item.ScaleItemCode+":"+item.Text))
				}
				weight := item.Weight
				if weight == 0 {
					weight = 1
				}
				itemRow := questionnaireItemModel{
					ID:               id,
					QuestionnaireRef: q.Ref,
					Text:             item.Text,
					Category:         item.Category,
					Discrimination:   item.Discrimination,
					Difficulty:       item.Difficulty,
					ScaleMin:         item.ScaleMin,
					ScaleMax:         item.ScaleMax,
					ItemOrder:        item.Order,
					Weight:           weight,
					ScaleName:        item.ScaleName,
					ScaleItemCode:    item.ScaleItemCode,
					Active:           true,
				}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "id"}},
					UpdateAll: true,
				}).Create(&itemRow).Error; err != nil {
					return fmt.Errorf("failed to seed item %s: %w", item.ScaleItemCode, err)
				}
			}
		}
		return nil
	})
}

// DefaultCatalog holds the standard socioemotional screening set: PHQ-9,
// GAD-7, WHO-5 and an adaptive wellbeing check-in drawing on circumplex
// categories. Difficulty/discrimination values follow published 2PL
// calibrations rounded to one decimal.
func DefaultCatalog() Catalog {
	return Catalog{Questionnaires: []CatalogQuestionnaire{
		{
			Ref:      "phq-9",
			Name:     "Patient Health Questionnaire-9",
			Adaptive: false,
			Items: []CatalogItem{
				{Text: "Little interest or pleasure in doing things", Category: "DEPRESSION", Discrimination: 1.8, Difficulty: -0.4, ScaleMin: 0, ScaleMax: 3, Order: 1, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-1"},
				{Text: "Feeling down, depressed, or hopeless", Category: "DEPRESSION", Discrimination: 2.1, Difficulty: -0.2, ScaleMin: 0, ScaleMax: 3, Order: 2, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-2"},
				{Text: "Trouble falling or staying asleep, or sleeping too much", Category: "DEPRESSION", Discrimination: 1.3, Difficulty: -0.6, ScaleMin: 0, ScaleMax: 3, Order: 3, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-3"},
				{Text: "Feeling tired or having little energy", Category: "ENERGY", Discrimination: 1.2, Difficulty: -0.8, ScaleMin: 0, ScaleMax: 3, Order: 4, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-4"},
				{Text: "Poor appetite or overeating", Category: "DEPRESSION", Discrimination: 1.1, Difficulty: -0.1, ScaleMin: 0, ScaleMax: 3, Order: 5, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-5"},
				{Text: "Feeling bad about yourself", Category: "SELF_ESTEEM", Discrimination: 1.7, Difficulty: 0.1, ScaleMin: 0, ScaleMax: 3, Order: 6, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-6"},
				{Text: "Trouble concentrating on things", Category: "DEPRESSION", Discrimination: 1.4, Difficulty: 0.3, ScaleMin: 0, ScaleMax: 3, Order: 7, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-7"},
				{Text: "Moving or speaking noticeably slowly, or being fidgety or restless", Category: "DEPRESSION", Discrimination: 1.5, Difficulty: 0.9, ScaleMin: 0, ScaleMax: 3, Order: 8, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-8"},
				{Text: "Thoughts that you would be better off dead or of hurting yourself", Category: "DEPRESSION", Discrimination: 2.4, Difficulty: 1.6, ScaleMin: 0, ScaleMax: 3, Order: 9, ScaleName: "PHQ-9", ScaleItemCode: "PHQ9-9"},
			},
		},
		{
			Ref:      "gad-7",
			Name:     "Generalized Anxiety Disorder-7",
			Adaptive: false,
			Items: []CatalogItem{
				{Text: "Feeling nervous, anxious, or on edge", Category: "ANXIETY", Discrimination: 2.0, Difficulty: -0.5, ScaleMin: 0, ScaleMax: 3, Order: 1, ScaleName: "GAD-7", ScaleItemCode: "GAD7-1"},
				{Text: "Not being able to stop or control worrying", Category: "ANXIETY", Discrimination: 2.2, Difficulty: -0.1, ScaleMin: 0, ScaleMax: 3, Order: 2, ScaleName: "GAD-7", ScaleItemCode: "GAD7-2"},
				{Text: "Worrying too much about different things", Category: "ANXIETY", Discrimination: 1.9, Difficulty: -0.3, ScaleMin: 0, ScaleMax: 3, Order: 3, ScaleName: "GAD-7", ScaleItemCode: "GAD7-3"},
				{Text: "Trouble relaxing", Category: "STRESS", Discrimination: 1.6, Difficulty: 0.0, ScaleMin: 0, ScaleMax: 3, Order: 4, ScaleName: "GAD-7", ScaleItemCode: "GAD7-4"},
				{Text: "Being so restless that it is hard to sit still", Category: "ANXIETY", Discrimination: 1.4, Difficulty: 0.7, ScaleMin: 0, ScaleMax: 3, Order: 5, ScaleName: "GAD-7", ScaleItemCode: "GAD7-5"},
				{Text: "Becoming easily annoyed or irritable", Category: "STRESS", Discrimination: 1.3, Difficulty: 0.2, ScaleMin: 0, ScaleMax: 3, Order: 6, ScaleName: "GAD-7", ScaleItemCode: "GAD7-6"},
				{Text: "Feeling afraid, as if something awful might happen", Category: "ANXIETY", Discrimination: 1.8, Difficulty: 0.5, ScaleMin: 0, ScaleMax: 3, Order: 7, ScaleName: "GAD-7", ScaleItemCode: "GAD7-7"},
			},
		},
		{
			Ref:      "who-5",
			Name:     "WHO-5 Well-Being Index",
			Adaptive: false,
			Items: []CatalogItem{
				{Text: "I have felt cheerful and in good spirits", Category: "MOOD", Discrimination: 1.9, Difficulty: -0.2, ScaleMin: 0, ScaleMax: 5, Order: 1, ScaleName: "WHO-5", ScaleItemCode: "WHO5-1"},
				{Text: "I have felt calm and relaxed", Category: "WELLBEING", Discrimination: 1.7, Difficulty: 0.0, ScaleMin: 0, ScaleMax: 5, Order: 2, ScaleName: "WHO-5", ScaleItemCode: "WHO5-2"},
				{Text: "I have felt active and vigorous", Category: "ENERGY", Discrimination: 1.5, Difficulty: 0.3, ScaleMin: 0, ScaleMax: 5, Order: 3, ScaleName: "WHO-5", ScaleItemCode: "WHO5-3"},
				{Text: "I woke up feeling fresh and rested", Category: "ENERGY", Discrimination: 1.4, Difficulty: 0.5, ScaleMin: 0, ScaleMax: 5, Order: 4, ScaleName: "WHO-5", ScaleItemCode: "WHO5-4"},
				{Text: "My daily life has been filled with things that interest me", Category: "SATISFACTION", Discrimination: 1.6, Difficulty: 0.1, ScaleMin: 0, ScaleMax: 5, Order: 5, ScaleName: "WHO-5", ScaleItemCode: "WHO5-5"},
			},
		},
		{
			Ref:      "wellbeing-checkin",
			Name:     "Adaptive Wellbeing Check-in",
			Adaptive: true,
			Items: []CatalogItem{
				{Text: "I feel good about myself lately", Category: "SELF_ESTEEM", Discrimination: 1.5, Difficulty: -0.7, ScaleMin: 1, ScaleMax: 5, Order: 1},
				{Text: "I feel satisfied with how my week went", Category: "SATISFACTION", Discrimination: 1.3, Difficulty: -0.4, ScaleMin: 1, ScaleMax: 5, Order: 2},
				{Text: "I feel full of energy during the day", Category: "ENERGY", Discrimination: 1.2, Difficulty: -0.1, ScaleMin: 1, ScaleMax: 5, Order: 3},
				{Text: "I feel tense or wound up", Category: "STRESS", Discrimination: 1.6, Difficulty: 0.2, ScaleMin: 1, ScaleMax: 5, Order: 4},
				{Text: "I feel worried about things at school", Category: "ANXIETY", Discrimination: 1.7, Difficulty: 0.4, ScaleMin: 1, ScaleMax: 5, Order: 5},
				{Text: "I feel in a good mood most of the day", Category: "MOOD", Discrimination: 1.4, Difficulty: -0.3, ScaleMin: 1, ScaleMax: 5, Order: 6},
				{Text: "I feel excited about things I am doing", Category: "EXCITEMENT", Discrimination: 1.1, Difficulty: 0.1, ScaleMin: 1, ScaleMax: 5, Order: 7},
				{Text: "I feel comfortable around my classmates", Category: "SOCIAL", Discrimination: 1.2, Difficulty: 0.0, ScaleMin: 1, ScaleMax: 5, Order: 8},
				{Text: "I feel things are going well in my life", Category: "WELLBEING", Discrimination: 1.8, Difficulty: 0.3, ScaleMin: 1, ScaleMax: 5, Order: 9},
				{Text: "I feel stressed about homework and exams", Category: "STRESS", Discrimination: 1.5, Difficulty: 0.6, ScaleMin: 1, ScaleMax: 5, Order: 10},
			},
		},
	}}
}
