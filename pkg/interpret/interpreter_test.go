package interpret

import (
	"errors"
	"testing"

	"github.com/sentira-edu/platform/pkg/common/apperr"
	"github.com/sentira-edu/platform/pkg/common/models"
)

func interpreter() *Interpreter {
	return New(DefaultCatalog())
}

func TestPHQ9Bands(t *testing.T) {
	cases := []struct {
		score    float64
		severity models.Severity
		level    models.AlertLevel
		alert    bool
	}{
		{3, models.SeverityMinimal, models.AlertGreen, false},
		{7, models.SeverityMild, models.AlertGreen, false},
		{12, models.SeverityModerate, models.AlertYellow, true},
		{17, models.SeverityModeratelySevere, models.AlertOrange, true},
		{22, models.SeveritySevere, models.AlertRed, true},
	}

	for _, tc := range cases {
		got, err := interpreter().Interpret("PHQ-9", tc.score, false)
		if err != nil {
			t.Fatalf("PHQ-9 score %.0f: %v", tc.score, err)
		}
		if got.Severity != tc.severity || got.AlertLevel != tc.level {
			t.Fatalf("PHQ-9 score %.0f: expected %s/%s, got %s/%s",
				tc.score, tc.severity, tc.level, got.Severity, got.AlertLevel)
		}
		if ShouldAlert(got) != tc.alert {
			t.Fatalf("PHQ-9 score %.0f: expected alert=%v", tc.score, tc.alert)
		}
	}
}

func TestPHQ9SelfHarmOverride(t *testing.T) {
	got, err := interpreter().Interpret("PHQ-9", 2, true)
	if err != nil {
		t.Fatalf("interpret failed: %v", err)
	}
	if got.Severity != models.SeveritySevere || got.AlertLevel != models.AlertRed {
		t.Fatalf("expected forced SEVERE/RED, got %s/%s", got.Severity, got.AlertLevel)
	}
	if !got.RequiresImmediateAction {
		t.Fatal("expected immediate action flag")
	}
	if !ShouldAlert(got) {
		t.Fatal("override must always alert")
	}
}

func TestGAD7Bands(t *testing.T) {
	got, err := interpreter().Interpret("GAD-7", 16, false)
	if err != nil {
		t.Fatalf("interpret failed: %v", err)
	}
	if got.Severity != models.SeveritySevere || got.AlertLevel != models.AlertRed {
		t.Fatalf("GAD-7 score 16: expected SEVERE/RED, got %s/%s", got.Severity, got.AlertLevel)
	}

	mild, err := interpreter().Interpret("GAD-7", 6, false)
	if err != nil {
		t.Fatalf("interpret failed: %v", err)
	}
	if mild.Severity != models.SeverityMild {
		t.Fatalf("GAD-7 score 6: expected LEVE, got %s", mild.Severity)
	}
	if ShouldAlert(mild) {
		t.Fatal("GAD-7 LEVE must not mandate an alert")
	}
}

func TestWHO5PercentBands(t *testing.T) {
	// WHO-5 is inverted: lower raw scores are worse.
	cases := []struct {
		raw      float64
		severity models.Severity
	}{
		{5, models.SeveritySevere},    // 20%
		{10, models.SeverityModerate}, // 40%
		{15, models.SeverityMild},     // 60%
		{22, models.SeverityMinimal},  // 88%
	}

	for _, tc := range cases {
		got, err := interpreter().Interpret("WHO-5", tc.raw, false)
		if err != nil {
			t.Fatalf("WHO-5 raw %.0f: %v", tc.raw, err)
		}
		if got.Severity != tc.severity {
			t.Fatalf("WHO-5 raw %.0f: expected %s, got %s", tc.raw, tc.severity, got.Severity)
		}
	}
}

func TestOutOfRangeScoreRejected(t *testing.T) {
	if _, err := interpreter().Interpret("PHQ-9", 30, false); !errors.Is(err, apperr.ErrInvalidScoreRange) {
		t.Fatalf("expected InvalidScoreRange, got %v", err)
	}
	if _, err := interpreter().Interpret("GAD-7", -1, false); !errors.Is(err, apperr.ErrInvalidScoreRange) {
		t.Fatalf("expected InvalidScoreRange, got %v", err)
	}
}

func TestCombineTakesMaxSeverity(t *testing.T) {
	level, immediate := Combine([]models.Interpretation{
		{AlertLevel: models.AlertGreen},
		{AlertLevel: models.AlertOrange},
		{AlertLevel: models.AlertYellow},
	})
	if level != models.AlertOrange || immediate {
		t.Fatalf("expected ORANGE without immediate action, got %s/%v", level, immediate)
	}

	level, immediate = Combine([]models.Interpretation{
		{AlertLevel: models.AlertYellow},
		{AlertLevel: models.AlertRed, RequiresImmediateAction: true},
	})
	if level != models.AlertRed || !immediate {
		t.Fatalf("expected RED with immediate action, got %s/%v", level, immediate)
	}
}

func TestKindFor(t *testing.T) {
	if got := KindFor(models.AlertRed, true); got != models.RiskImmediateCrisis {
		t.Fatalf("expected IMMEDIATE_CRISIS, got %s", got)
	}
	if got := KindFor(models.AlertYellow, false); got != models.RiskModerate {
		t.Fatalf("expected RISK_MODERATE, got %s", got)
	}
	if got := KindFor(models.AlertGreen, false); got != models.RiskLow {
		t.Fatalf("expected RISK_LOW, got %s", got)
	}
}
