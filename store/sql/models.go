package sqlstore

import (
	"strings"
	"time"

	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
	"github.com/uptrace/bun"
)

type restaurantRecord struct {
	bun.BaseModel `bun:"table:inspection_restaurants,alias:ir"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Location  string    `bun:"location,notnull"`
	CreatedBy string    `bun:"created_by,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type sectionRecord struct {
	bun.BaseModel `bun:"table:inspection_sections,alias:isec"`

	ID           string    `bun:"id,pk"`
	RestaurantID string    `bun:"restaurant_id,notnull"`
	Name         string    `bun:"name,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type questionRecord struct {
	bun.BaseModel `bun:"table:inspection_questions,alias:iq"`

	ID           string    `bun:"id,pk"`
	RestaurantID string    `bun:"restaurant_id,notnull"`
	SectionID    string    `bun:"section_id,notnull"`
	Text         string    `bun:"text,notnull"`
	Type         string    `bun:"type,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type responseRecord struct {
	bun.BaseModel `bun:"table:inspection_responses,alias:iresp"`

	ID            string        `bun:"id,pk"`
	RestaurantID  *string       `bun:"restaurant_id"`
	SectionID     *string       `bun:"section_id"`
	EmployeePhone string        `bun:"employee_phone,notnull"`
	EmployeeName  string        `bun:"employee_name,notnull"`
	Answers       []core.Answer `bun:"answers,type:jsonb,notnull"`
	FlowToken     string        `bun:"flow_token,notnull"`
	SubmittedAt   time.Time     `bun:"submitted_at,notnull"`
	CreatedAt     time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *restaurantRecord) toDomain() core.Restaurant {
	if r == nil {
		return core.Restaurant{}
	}
	return core.Restaurant{
		ID:        r.ID,
		Name:      r.Name,
		Location:  r.Location,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (r *sectionRecord) toDomain() core.Section {
	if r == nil {
		return core.Section{}
	}
	return core.Section{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		Name:         r.Name,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r *questionRecord) toDomain() core.Question {
	if r == nil {
		return core.Question{}
	}
	return core.Question{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		SectionID:    r.SectionID,
		Text:         r.Text,
		Type:         core.NormalizeQuestionType(r.Type),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r *responseRecord) toDomain() core.Response {
	if r == nil {
		return core.Response{}
	}
	answers := make([]core.Answer, len(r.Answers))
	copy(answers, r.Answers)
	return core.Response{
		ID:            r.ID,
		RestaurantID:  copyStringPointer(r.RestaurantID),
		SectionID:     copyStringPointer(r.SectionID),
		EmployeePhone: r.EmployeePhone,
		EmployeeName:  r.EmployeeName,
		Answers:       answers,
		FlowToken:     r.FlowToken,
		SubmittedAt:   r.SubmittedAt.UTC(),
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func copyStringPointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
