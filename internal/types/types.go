package types

import (
	"strings"
	"time"
)

// Stage identifies one step of the proposal workflow. The wire values are
// kept stable because they are persisted and exchanged with the frontend.
type Stage string

const (
	StageTopic   Stage = "1_TOPIC"
	StageModel   Stage = "2_MODEL"
	StageOutline Stage = "3_OUTLINE"
	StageGTM     Stage = "5_GTM"
	StageSurvey  Stage = "4_SURVEY"
)

// Valid reports whether s is one of the known workflow stages.
func (s Stage) Valid() bool {
	switch s {
	case StageTopic, StageModel, StageOutline, StageGTM, StageSurvey:
		return true
	}
	return false
}

// HasDiagram reports whether writer output for this stage may carry an
// embedded diagram code block.
func (s Stage) HasDiagram() bool {
	return s == StageModel || s == StageOutline
}

// Level is the academic level of the project owner.
type Level string

const (
	LevelUndergrad Level = "UNDERGRAD"
	LevelMaster    Level = "MASTER"
	LevelPhD       Level = "PHD"
)

func (l Level) Valid() bool {
	switch l {
	case LevelUndergrad, LevelMaster, LevelPhD:
		return true
	}
	return false
}

// ProjectType selects the workflow shape: STARTUP inserts the GTM stage
// between Outline and Survey, RESEARCH omits it.
type ProjectType string

const (
	TypeResearch ProjectType = "RESEARCH"
	TypeStartup  ProjectType = "STARTUP"
)

func (t ProjectType) Valid() bool {
	return t == TypeResearch || t == TypeStartup
}

// Language of the generated documents.
type Language string

const (
	LangVietnamese Language = "vi"
	LangEnglish    Language = "en"
)

// Role of a transcript entry.
type Role string

const (
	RoleWriter Role = "writer"
	RoleCritic Role = "critic"
)

// Message is one transcript entry of the currently active stage.
// Append-only within a stage; cleared when the stage advances or resets.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Round     int       `json:"round"`
	Timestamp time.Time `json:"timestamp"`
}

// Finalized is the user-approved output of one stage. Diagram is only set
// for stages that carry one. Once a stage is finalized only this survives;
// the debate transcript is discarded on advance.
type Finalized struct {
	Text    string `json:"text"`
	Diagram string `json:"diagram,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Params are the descriptive parameters of a project, fixed at creation
// except for Topic which may be refined during the topic stage.
type Params struct {
	Topic    string      `json:"topic"`
	Goal     string      `json:"goal"`
	Audience string      `json:"audience"`
	Level    Level       `json:"level"`
	Type     ProjectType `json:"type"`
	Language Language    `json:"language"`
}

// Sanitize trims whitespace and strips control characters from
// user-submitted final text. Returns "" when nothing meaningful remains.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
