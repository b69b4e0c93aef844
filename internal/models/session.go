package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage is a named point in a session's fixed linear progression.
type Stage string

const (
	StageCreated         Stage = "created"
	StagePurposeSet      Stage = "purpose_set"
	StageWarmupReady     Stage = "warmup_ready"
	StageWarmupConfirmed Stage = "warmup_confirmed"
	StageAssociationsSet Stage = "associations_set"
	StageIdeasGenerated  Stage = "ideas_generated"
	StageDeleted         Stage = "deleted"
)

var stageOrder = map[Stage]int{
	StageCreated:         0,
	StagePurposeSet:      1,
	StageWarmupReady:     2,
	StageWarmupConfirmed: 3,
	StageAssociationsSet: 4,
	StageIdeasGenerated:  5,
	StageDeleted:         6,
}

func (s Stage) String() string {
	return string(s)
}

// IsValid reports whether the stage is one of the defined workflow stages.
func (s Stage) IsValid() bool {
	_, ok := stageOrder[s]
	return ok
}

// AtLeast reports whether the session has reached or passed the target stage.
func (s Stage) AtLeast(target Stage) bool {
	return stageOrder[s] >= stageOrder[target]
}

// Advance returns the later of the current and target stages. Re-running an
// earlier operation never regresses a session.
func (s Stage) Advance(target Stage) Stage {
	if s.AtLeast(target) {
		return s
	}
	return target
}

// Session is one user's run through the ideation workflow.
type Session struct {
	ID              string    `json:"id"`
	Stage           Stage     `json:"stage"`
	Purpose         string    `json:"purpose"`
	WarmupQuestions []string  `json:"warmup_questions"`
	Associations    []string  `json:"associations"`
	Ideas           []Idea    `json:"ideas"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewSession creates a session in the created stage with a fresh id.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		Stage:     StageCreated,
		CreatedAt: time.Now(),
	}
}

// Idea is one generated concept: a title, a multi-section description, and an
// optional analysis. Analysis holds the raw analysis text split out of the
// generated description; Swot holds the structured record once available.
type Idea struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Analysis    string      `json:"analysis"`
	Swot        *SwotRecord `json:"swot,omitempty"`
}

// SwotRecord holds the four analysis categories. A field missing from the
// source text carries the no-data sentinel; it is never empty.
type SwotRecord struct {
	Strengths     string `json:"strengths"`
	Weaknesses    string `json:"weaknesses"`
	Opportunities string `json:"opportunities"`
	Threats       string `json:"threats"`
}
