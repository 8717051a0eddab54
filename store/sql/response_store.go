package sqlstore

import (
	"context"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
	"github.com/uptrace/bun"
)

type ResponseStore struct {
	repo repository.Repository[*responseRecord]
}

func NewResponseStore(db *bun.DB) (*ResponseStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := newUnpagedRepository(db, responseHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid response repository wiring: %w", err)
		}
	}
	return &ResponseStore{repo: repo}, nil
}

// CreateResponse inserts one document per call. Ids are always generated.
func (s *ResponseStore) CreateResponse(ctx context.Context, response core.Response) (core.Response, error) {
	if s == nil || s.repo == nil {
		return core.Response{}, fmt.Errorf("sqlstore: response store is not configured")
	}
	if strings.TrimSpace(response.EmployeePhone) == "" {
		return core.Response{}, core.ValidationError("employee_phone", "employee phone is required")
	}
	if response.SubmittedAt.IsZero() {
		return core.Response{}, core.ValidationError("submitted_at", "submitted at is required")
	}
	name := strings.TrimSpace(response.EmployeeName)
	if name == "" {
		name = core.DefaultEmployeeName
	}
	answers := make([]core.Answer, len(response.Answers))
	copy(answers, response.Answers)

	record := &responseRecord{
		ID:            uuid.NewString(),
		RestaurantID:  copyStringPointer(response.RestaurantID),
		SectionID:     copyStringPointer(response.SectionID),
		EmployeePhone: strings.TrimSpace(response.EmployeePhone),
		EmployeeName:  name,
		Answers:       answers,
		FlowToken:     strings.TrimSpace(response.FlowToken),
		SubmittedAt:   response.SubmittedAt.UTC(),
		CreatedAt:     timeOrNow(response.CreatedAt),
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Response{}, err
	}
	return created.toDomain(), nil
}

// ListResponses returns every response, or one restaurant's, newest
// submission first.
func (s *ResponseStore) ListResponses(ctx context.Context, filter core.ResponseFilter) ([]core.Response, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: response store is not configured")
	}
	selectors := []repository.SelectCriteria{
		repository.OrderBy("submitted_at DESC"),
	}
	if restaurantID := strings.TrimSpace(filter.RestaurantID); restaurantID != "" {
		selectors = append(selectors, repository.SelectBy("restaurant_id", "=", restaurantID))
	}
	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	out := make([]core.Response, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
