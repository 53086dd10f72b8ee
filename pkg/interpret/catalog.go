package interpret

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sentira-edu/platform/pkg/common/models"
	"gopkg.in/yaml.v3"
)

// Band is one severity segment of a scale. Bounds are inclusive and
// expressed in band units: raw score points normally, percent-of-max when
// the scale sets PercentBands.
type Band struct {
	Min             float64           `yaml:"min" json:"min"`
	Max             float64           `yaml:"max" json:"max"`
	Severity        models.Severity   `yaml:"severity" json:"severity"`
	AlertLevel      models.AlertLevel `yaml:"alert_level" json:"alert_level"`
	Description     string            `yaml:"description" json:"description"`
	Recommendations []string          `yaml:"recommendations" json:"recommendations"`
}

type ScaleSpec struct {
	Name             string  `yaml:"name" json:"name"`
	MinScore         float64 `yaml:"min_score" json:"min_score"`
	MaxScore         float64 `yaml:"max_score" json:"max_score"`
	Inverted         bool    `yaml:"inverted" json:"inverted"` // higher is better (WHO-5)
	PercentBands     bool    `yaml:"percent_bands" json:"percent_bands"`
	SelfHarmItemCode string  `yaml:"self_harm_item_code" json:"self_harm_item_code"`
	Bands            []Band  `yaml:"bands" json:"bands"`
}

type Catalog struct {
	Scales map[string]ScaleSpec `yaml:"scales" json:"scales"`
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
	if len(cat.Scales) == 0 {
		return Catalog{}, fmt.Errorf("scale catalog empty")
	}
	return cat, nil
}

// DefaultCatalog carries the published interpretation tables for PHQ-9,
// GAD-7 and WHO-5.
func DefaultCatalog() Catalog {
	return Catalog{Scales: map[string]ScaleSpec{
		"PHQ-9": {
			Name:             "PHQ-9",
			MinScore:         0,
			MaxScore:         27,
			SelfHarmItemCode: "PHQ9-9",
			Bands: []Band{
				{Min: 0, Max: 4, Severity: models.SeverityMinimal, AlertLevel: models.AlertGreen,
					Description:     "Minimal depressive symptoms",
					Recommendations: []string{"Continue regular wellbeing check-ins"}},
				{Min: 5, Max: 9, Severity: models.SeverityMild, AlertLevel: models.AlertGreen,
					Description:     "Mild depressive symptoms",
					Recommendations: []string{"Monitor over the coming weeks", "Offer self-guided wellbeing resources"}},
				{Min: 10, Max: 14, Severity: models.SeverityModerate, AlertLevel: models.AlertYellow,
					Description:     "Moderate depressive symptoms",
					Recommendations: []string{"Schedule a counselor conversation", "Re-screen within two weeks"}},
				{Min: 15, Max: 19, Severity: models.SeverityModeratelySevere, AlertLevel: models.AlertOrange,
					Description:     "Moderately severe depressive symptoms",
					Recommendations: []string{"Refer to school psychologist", "Notify guardian per protocol"}},
				{Min: 20, Max: 27, Severity: models.SeveritySevere, AlertLevel: models.AlertRed,
					Description:     "Severe depressive symptoms",
					Recommendations: []string{"Arrange clinical evaluation promptly", "Activate the care coordination protocol"}},
			},
		},
		"GAD-7": {
			Name:     "GAD-7",
			MinScore: 0,
			MaxScore: 21,
			Bands: []Band{
				{Min: 0, Max: 4, Severity: models.SeverityMinimal, AlertLevel: models.AlertGreen,
					Description:     "Minimal anxiety symptoms",
					Recommendations: []string{"Continue regular wellbeing check-ins"}},
				{Min: 5, Max: 9, Severity: models.SeverityMild, AlertLevel: models.AlertGreen,
					Description:     "Mild anxiety symptoms",
					Recommendations: []string{"Offer relaxation and study-stress resources"}},
				{Min: 10, Max: 14, Severity: models.SeverityModerate, AlertLevel: models.AlertYellow,
					Description:     "Moderate anxiety symptoms",
					Recommendations: []string{"Schedule a counselor conversation", "Re-screen within two weeks"}},
				{Min: 15, Max: 21, Severity: models.SeveritySevere, AlertLevel: models.AlertRed,
					Description:     "Severe anxiety symptoms",
					Recommendations: []string{"Refer for clinical evaluation", "Notify guardian per protocol"}},
			},
		},
		"WHO-5": {
			Name:         "WHO-5",
			MinScore:     0,
			MaxScore:     25,
			Inverted:     true,
			PercentBands: true,
			Bands: []Band{
				{Min: 0, Max: 28, Severity: models.SeveritySevere, AlertLevel: models.AlertRed,
					Description:     "Very low wellbeing",
					Recommendations: []string{"Refer for clinical evaluation", "Follow up within one week"}},
				{Min: 28, Max: 50, Severity: models.SeverityModerate, AlertLevel: models.AlertYellow,
					Description:     "Low wellbeing",
					Recommendations: []string{"Schedule a counselor conversation"}},
				{Min: 50, Max: 75, Severity: models.SeverityMild, AlertLevel: models.AlertGreen,
					Description:     "Fair wellbeing",
					Recommendations: []string{"Offer wellbeing activities"}},
				{Min: 75, Max: 100, Severity: models.SeverityMinimal, AlertLevel: models.AlertGreen,
					Description:     "Good wellbeing",
					Recommendations: []string{"Continue regular wellbeing check-ins"}},
			},
		},
	}}
}
