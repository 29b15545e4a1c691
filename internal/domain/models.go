package domain

import "time"

// Category routes a question to a classification rule.
type Category string

const (
	CategoryDemographic     Category = "demographic"
	CategoryEducation       Category = "education"
	CategoryCognitiveStatus Category = "cognitive_status"
	CategoryMedical         Category = "medical"
	CategorySocialActivity  Category = "social_activity"
)

// QuestionType is the answer widget kind. Only single-select is served today.
type QuestionType string

const QuestionTypeMultipleChoice QuestionType = "multiple_choice"

// ClassificationTag is the question_tag of the classification questionnaire.
const ClassificationTag = "classification"

// Question is one questionnaire item as served by the backend.
type Question struct {
	ID             string       `json:"id" yaml:"id"`
	Text           string       `json:"question_text" yaml:"question_text"`
	Type           QuestionType `json:"question_type" yaml:"question_type"`
	Options        []string     `json:"options" yaml:"options"`
	QuestionNumber string       `json:"question_number" yaml:"question_number"` // string-encoded integer, defines display order
	Category       Category     `json:"category" yaml:"category"`
	Tag            string       `json:"question_tag,omitempty" yaml:"question_tag,omitempty"`
}

// AnswerSet maps question ID to the selected option.
type AnswerSet map[string]string

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Risk levels.
const (
	RiskLow    = "Düşük"
	RiskMedium = "Orta"
	RiskHigh   = "Yüksek"
)

// Cognitive status and education labels produced by the local classifier.
const (
	CognitiveNormal = "Normal"
	CognitiveMCI    = "Hafif Bilişsel Bozulma"

	EducationPrimary    = "İlkokul ve altı"
	EducationHighSchool = "Lise"
	EducationUniversity = "Üniversite"
)

// Classification is the four-field risk summary produced at test completion.
type Classification struct {
	AgeGroup        string `json:"age_group" yaml:"age_group"`
	CognitiveStatus string `json:"cognitive_status" yaml:"cognitive_status"`
	EducationLevel  string `json:"education_level" yaml:"education_level"`
	RiskLevel       string `json:"risk_level" yaml:"risk_level"`
}

// ClassificationSource records where a classification came from.
type ClassificationSource string

const (
	SourceRemote ClassificationSource = "remote"
	SourceLocal  ClassificationSource = "local"
)

// SessionState is the questionnaire state machine position.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateLoading    SessionState = "loading"
	StateInProgress SessionState = "in_progress"
	StateCompleting SessionState = "completing"
	StateDone       SessionState = "done"
	StateError      SessionState = "error"
)

// Snapshot is a read-only view of a session, safe to hand to transports.
type Snapshot struct {
	PatientID      string               `json:"patientId"`
	SessionID      string               `json:"sessionId,omitempty"`
	LocalSession   bool                 `json:"localSession"`
	State          SessionState         `json:"state"`
	Position       int                  `json:"position"`
	Total          int                  `json:"total"`
	Current        *Question            `json:"current,omitempty"`
	Answers        AnswerSet            `json:"answers"`
	Completed      bool                 `json:"completed"`
	Classification *Classification      `json:"classification,omitempty"`
	Source         ClassificationSource `json:"source,omitempty"`
	SyncError      string               `json:"syncError,omitempty"`
	Error          string               `json:"error,omitempty"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}
