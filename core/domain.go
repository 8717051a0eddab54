package core

import (
	"strings"
	"time"
)

type QuestionType string

const (
	QuestionTypeBoolean QuestionType = "yes/no"
	QuestionTypeNumeric QuestionType = "number"
	QuestionTypeText    QuestionType = "text"
)

// NormalizeQuestionType maps stored values onto the three known kinds.
// Unknown or empty values are treated as free text.
func NormalizeQuestionType(value string) QuestionType {
	switch QuestionType(strings.TrimSpace(strings.ToLower(value))) {
	case QuestionTypeBoolean, "boolean", "yes_no", "yesno":
		return QuestionTypeBoolean
	case QuestionTypeNumeric, "numeric":
		return QuestionTypeNumeric
	default:
		return QuestionTypeText
	}
}

type Restaurant struct {
	ID        string
	Name      string
	Location  string
	CreatedBy string
	CreatedAt time.Time
}

type Section struct {
	ID           string
	RestaurantID string
	Name         string
	CreatedAt    time.Time
}

type Question struct {
	ID           string
	RestaurantID string
	SectionID    string
	Text         string
	Type         QuestionType
	CreatedAt    time.Time
}

type Answer struct {
	QuestionText string `json:"question_text"`
	Answer       any    `json:"answer"`
}

// Response is a completed inspection reconstructed from a flow reply.
// Restaurant and section references stay nil when the reply did not carry them.
type Response struct {
	ID            string
	RestaurantID  *string
	SectionID     *string
	EmployeePhone string
	EmployeeName  string
	Answers       []Answer
	FlowToken     string
	SubmittedAt   time.Time
	CreatedAt     time.Time
}

const DefaultEmployeeName = "Unknown"

type DispatchKind string

const (
	DispatchKindFlow     DispatchKind = "flow"
	DispatchKindFallback DispatchKind = "fallback"
)

type DispatchResult struct {
	PhoneNumber string       `json:"phoneNumber"`
	Success     bool         `json:"success"`
	Kind        DispatchKind `json:"kind"`
	MessageID   string       `json:"messageId,omitempty"`
	FlowToken   string       `json:"flowToken,omitempty"`
	Body        string       `json:"body,omitempty"`
	Error       string       `json:"error,omitempty"`
}

type SendInspectionRequest struct {
	RestaurantID string
	PhoneNumbers []string
}

type SendInspectionResult struct {
	Message     string           `json:"message"`
	FlowID      *string          `json:"flowId"`
	Path        DispatchKind     `json:"path"`
	State       SendState        `json:"state"`
	Transitions []SendState      `json:"transitions"`
	Results     []DispatchResult `json:"results"`
}

type ResponseFilter struct {
	RestaurantID string
}
