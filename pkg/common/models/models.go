package models

import (
	"time"

	"github.com/google/uuid"
)

// Item categories / domain tags
type Category string

const (
	CategoryAnxiety      Category = "ANXIETY"
	CategoryDepression   Category = "DEPRESSION"
	CategoryWellbeing    Category = "WELLBEING"
	CategoryStress       Category = "STRESS"
	CategoryMood         Category = "MOOD"
	CategorySatisfaction Category = "SATISFACTION"
	CategorySelfEsteem   Category = "SELF_ESTEEM"
	CategoryEnergy       Category = "ENERGY"
	CategoryExcitement   Category = "EXCITEMENT"
	CategorySocial       Category = "SOCIAL"
)

// Item is a single assessable question with its 2PL parameters.
// Items are immutable once published; Discrimination must be > 0.
type Item struct {
	ID               uuid.UUID `json:"id"`
	QuestionnaireRef string    `json:"questionnaire_ref,omitempty"`
	Text             string    `json:"text"`
	Category         Category  `json:"category"`
	Discrimination   float64   `json:"discrimination"`
	Difficulty       float64   `json:"difficulty"`
	ScaleMin         int       `json:"scale_min"`
	ScaleMax         int       `json:"scale_max"`
	Order            int       `json:"order"`
	Weight           float64   `json:"weight,omitempty"`
	ScaleName        string    `json:"scale_name,omitempty"`      // e.g. PHQ-9
	ScaleItemCode    string    `json:"scale_item_code,omitempty"` // e.g. PHQ9-9
	Active           bool      `json:"active"`
}

// Questionnaire groups items and fixes the selection mode.
type Questionnaire struct {
	ID        uuid.UUID `json:"id"`
	Ref       string    `json:"ref"`
	Name      string    `json:"name"`
	Adaptive  bool      `json:"adaptive"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Session lifecycle
type SessionStatus string

const (
	SessionInitial    SessionStatus = "INITIAL"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionPaused     SessionStatus = "PAUSED"
	SessionFinalized  SessionStatus = "FINALIZED"
	SessionCancelled  SessionStatus = "CANCELLED"
)

type Session struct {
	ID               uuid.UUID     `json:"id"`
	SubjectID        uuid.UUID     `json:"subject_id"`
	QuestionnaireRef string        `json:"questionnaire_ref"`
	Status           SessionStatus `json:"status"`
	Theta            float64       `json:"theta"`
	StandardError    float64       `json:"standard_error"`
	Confidence       float64       `json:"confidence"`
	PresentedItemIDs []uuid.UUID   `json:"presented_item_ids"`
	ResponseCount    int           `json:"response_count"`
	Version          int           `json:"version"`
	StartedAt        time.Time     `json:"started_at"`
	PausedAt         *time.Time    `json:"paused_at,omitempty"`
	FinishedAt       *time.Time    `json:"finished_at,omitempty"`
	ElapsedSeconds   float64       `json:"elapsed_seconds,omitempty"`
	MeanResponseSecs float64       `json:"mean_response_seconds,omitempty"`
}

// Presented reports whether the item was already shown in this session.
func (s *Session) Presented(itemID uuid.UUID) bool {
	for _, id := range s.PresentedItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// RawResponseValue is the tagged union of scale-native answer payloads.
// Exactly one variant is populated, discriminated by Kind; it is resolved
// to a normalized float at ingestion, never downstream.
type RawValueKind string

const (
	RawNumeric RawValueKind = "numeric"
	RawText    RawValueKind = "text"
	RawChoice  RawValueKind = "choice"
)

type RawResponseValue struct {
	Kind    RawValueKind `json:"kind"`
	Numeric float64      `json:"numeric,omitempty"`
	Text    string       `json:"text,omitempty"`
	Choice  int          `json:"choice,omitempty"`
}

func NumericValue(v float64) RawResponseValue {
	return RawResponseValue{Kind: RawNumeric, Numeric: v}
}

func TextValue(v string) RawResponseValue {
	return RawResponseValue{Kind: RawText, Text: v}
}

func ChoiceValue(v int) RawResponseValue {
	return RawResponseValue{Kind: RawChoice, Choice: v}
}

// Response is append-only: created once per accepted answer, never mutated.
// ItemID is nil for answers bound to a catalog entry without a bank row.
type Response struct {
	ID               uuid.UUID        `json:"id"`
	SessionID        uuid.UUID        `json:"session_id"`
	ItemID           *uuid.UUID       `json:"item_id,omitempty"`
	RawValue         RawResponseValue `json:"raw_value"`
	NormalizedValue  float64          `json:"normalized_value"`
	Category         Category         `json:"category"`
	DomainTag        string           `json:"domain_tag,omitempty"`
	ResponseTimeSecs float64          `json:"response_time_seconds"`
	Order            int              `json:"order"`
	Timestamp        time.Time        `json:"timestamp"`
}

// Derived scoring types
type TrendDirection string

const (
	TrendRising  TrendDirection = "RISING"
	TrendFalling TrendDirection = "FALLING"
	TrendStable  TrendDirection = "STABLE"
)

type CategoryScoreSummary struct {
	Category    Category       `json:"category"`
	Mean        float64        `json:"mean"`
	Min         float64        `json:"min"`
	Max         float64        `json:"max"`
	StdDev      float64        `json:"stddev"`
	Trend       TrendDirection `json:"trend"`
	SampleCount int            `json:"sample_count"`
}

// AffectCoordinate is the Circumplex position. A nil axis means no
// qualifying responses contributed to it; callers must treat that as
// insufficient data, not zero.
type AffectCoordinate struct {
	Valence *float64 `json:"valence,omitempty"`
	Arousal *float64 `json:"arousal,omitempty"`
}

// Clinical interpretation
type Severity string

const (
	SeverityMinimal          Severity = "MINIMAL"
	SeverityMild             Severity = "LEVE"
	SeverityModerate         Severity = "MODERATE"
	SeverityModeratelySevere Severity = "MODERATELY_SEVERE"
	SeveritySevere           Severity = "SEVERE"
)

type Interpretation struct {
	Scale                   string     `json:"scale"`
	RawScore                float64    `json:"raw_score"`
	Severity                Severity   `json:"severity"`
	AlertLevel              AlertLevel `json:"alert_level"`
	Description             string     `json:"description"`
	Recommendations         []string   `json:"recommendations"`
	RequiresImmediateAction bool       `json:"requires_immediate_action"`
}

// Alerts
type AlertLevel string

const (
	AlertGreen  AlertLevel = "GREEN"
	AlertYellow AlertLevel = "YELLOW"
	AlertOrange AlertLevel = "ORANGE"
	AlertRed    AlertLevel = "RED"
)

// Rank orders alert levels for cross-scale combination.
func (l AlertLevel) Rank() int {
	switch l {
	case AlertGreen:
		return 0
	case AlertYellow:
		return 1
	case AlertOrange:
		return 2
	case AlertRed:
		return 3
	}
	return -1
}

type AlertKind string

const (
	RiskLow             AlertKind = "RISK_LOW"
	RiskModerate        AlertKind = "RISK_MODERATE"
	RiskHigh            AlertKind = "RISK_HIGH"
	RiskImmediateCrisis AlertKind = "IMMEDIATE_CRISIS"
)

type AlertStatus string

const (
	AlertPending      AlertStatus = "PENDING"
	AlertAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertInFollowup   AlertStatus = "IN_FOLLOWUP"
	AlertResolved     AlertStatus = "RESOLVED"
)

type Alert struct {
	ID                      uuid.UUID   `json:"id"`
	SubjectID               uuid.UUID   `json:"subject_id"`
	SessionID               uuid.UUID   `json:"session_id"`
	Level                   AlertLevel  `json:"level"`
	Kind                    AlertKind   `json:"kind"`
	Category                Category    `json:"category,omitempty"`
	Score                   float64     `json:"score"`
	Recommendations         []string    `json:"recommendations"`
	Status                  AlertStatus `json:"status"`
	RequiresImmediateAction bool        `json:"requires_immediate_action"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

// Stopping rule
type StopReason string

const (
	StopSEMThreshold  StopReason = "SEM_THRESHOLD"
	StopPoolExhausted StopReason = "POOL_EXHAUSTED"
	StopMaxItems      StopReason = "MAX_ITEMS"
)

// API request/response shapes
type StartSessionRequest struct {
	QuestionnaireRef string    `json:"questionnaire_ref"`
	SubjectID        uuid.UUID `json:"subject_id"`
}

type StartSessionResponse struct {
	Session   Session `json:"session"`
	FirstItem *Item   `json:"first_item,omitempty"`
}

type SubmitResponseRequest struct {
	ItemID           *uuid.UUID       `json:"item_id,omitempty"`
	RawValue         RawResponseValue `json:"raw_value"`
	ResponseTimeSecs float64          `json:"response_time_seconds"`

	// Proxy-free binding: when ItemID is absent the answer targets a
	// catalog entry without an item-bank row, so the caller supplies the
	// category and scale bounds itself.
	Category Category `json:"category,omitempty"`
	ScaleMin int      `json:"scale_min,omitempty"`
	ScaleMax int      `json:"scale_max,omitempty"`
}

type SubmitResponseResult struct {
	UpdatedTheta   float64    `json:"updated_theta"`
	StandardError  float64    `json:"standard_error"`
	Confidence     float64    `json:"confidence"`
	NextItem       *Item      `json:"next_item,omitempty"`
	ShouldFinalize bool       `json:"should_finalize"`
	FinalizeReason StopReason `json:"finalize_reason,omitempty"`
}

type ChangeSessionStateRequest struct {
	Action string `json:"action"` // pause, resume, finalize, cancel
}

type SessionResult struct {
	SessionID       uuid.UUID                         `json:"session_id"`
	CategoryScores  map[Category]CategoryScoreSummary `json:"category_scores"`
	OverallScore    float64                           `json:"overall_score"`
	Affect          AffectCoordinate                  `json:"affect"`
	Interpretations []Interpretation                  `json:"interpretations"`
	Alerts          []Alert                           `json:"alerts"`
}

// Event is the Kafka envelope shared by producers and consumers.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // session.finalized, alert.raised, alert.updated, reward.credited
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
