package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
	"github.com/uptrace/bun"
)

// CatalogStore reads restaurants with their sections and questions. Lists are
// returned in creation order, ties broken by insertion sequence.
type CatalogStore struct {
	db        *bun.DB
	sections  repository.Repository[*sectionRecord]
	questions repository.Repository[*questionRecord]
}

func NewCatalogStore(db *bun.DB) (*CatalogStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	sections := newUnpagedRepository(db, sectionHandlers())
	if validator, ok := sections.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid section repository wiring: %w", err)
		}
	}
	questions := newUnpagedRepository(db, questionHandlers())
	if validator, ok := questions.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid question repository wiring: %w", err)
		}
	}
	return &CatalogStore{db: db, sections: sections, questions: questions}, nil
}

func (s *CatalogStore) GetRestaurant(ctx context.Context, id string) (core.Restaurant, error) {
	if s == nil || s.db == nil {
		return core.Restaurant{}, fmt.Errorf("sqlstore: catalog store is not configured")
	}
	id = strings.TrimSpace(id)
	record := &restaurantRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Restaurant{}, core.NotFoundError("inspection: restaurant not found", map[string]any{
				"restaurant_id": id,
			})
		}
		return core.Restaurant{}, err
	}
	return record.toDomain(), nil
}

func (s *CatalogStore) ListSections(ctx context.Context, restaurantID string) ([]core.Section, error) {
	if s == nil || s.sections == nil {
		return nil, fmt.Errorf("sqlstore: catalog store is not configured")
	}
	records, _, err := s.sections.List(ctx,
		repository.SelectBy("restaurant_id", "=", strings.TrimSpace(restaurantID)),
		repository.OrderBy("created_at ASC", "seq ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Section, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *CatalogStore) ListQuestions(ctx context.Context, restaurantID string) ([]core.Question, error) {
	if s == nil || s.questions == nil {
		return nil, fmt.Errorf("sqlstore: catalog store is not configured")
	}
	records, _, err := s.questions.List(ctx,
		repository.SelectBy("restaurant_id", "=", strings.TrimSpace(restaurantID)),
		repository.OrderBy("created_at ASC", "seq ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Question, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

// SaveRestaurant inserts a restaurant, generating an id when none is set.
func (s *CatalogStore) SaveRestaurant(ctx context.Context, restaurant core.Restaurant) (core.Restaurant, error) {
	if s == nil || s.db == nil {
		return core.Restaurant{}, fmt.Errorf("sqlstore: catalog store is not configured")
	}
	if strings.TrimSpace(restaurant.Name) == "" {
		return core.Restaurant{}, core.ValidationError("name", "restaurant name is required")
	}
	record := &restaurantRecord{
		ID:        idOrNew(restaurant.ID),
		Name:      strings.TrimSpace(restaurant.Name),
		Location:  strings.TrimSpace(restaurant.Location),
		CreatedBy: strings.TrimSpace(restaurant.CreatedBy),
		CreatedAt: timeOrNow(restaurant.CreatedAt),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Restaurant{}, err
	}
	return record.toDomain(), nil
}

func (s *CatalogStore) SaveSection(ctx context.Context, section core.Section) (core.Section, error) {
	if s == nil || s.db == nil {
		return core.Section{}, fmt.Errorf("sqlstore: catalog store is not configured")
	}
	if strings.TrimSpace(section.RestaurantID) == "" {
		return core.Section{}, core.ValidationError("restaurant_id", "section restaurant is required")
	}
	record := &sectionRecord{
		ID:           idOrNew(section.ID),
		RestaurantID: strings.TrimSpace(section.RestaurantID),
		Name:         strings.TrimSpace(section.Name),
		CreatedAt:    timeOrNow(section.CreatedAt),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Section{}, err
	}
	return record.toDomain(), nil
}

func (s *CatalogStore) SaveQuestion(ctx context.Context, question core.Question) (core.Question, error) {
	if s == nil || s.db == nil {
		return core.Question{}, fmt.Errorf("sqlstore: catalog store is not configured")
	}
	if strings.TrimSpace(question.RestaurantID) == "" || strings.TrimSpace(question.SectionID) == "" {
		return core.Question{}, core.ValidationError("section_id", "question restaurant and section are required")
	}
	record := &questionRecord{
		ID:           idOrNew(question.ID),
		RestaurantID: strings.TrimSpace(question.RestaurantID),
		SectionID:    strings.TrimSpace(question.SectionID),
		Text:         question.Text,
		Type:         string(core.NormalizeQuestionType(string(question.Type))),
		CreatedAt:    timeOrNow(question.CreatedAt),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Question{}, err
	}
	return record.toDomain(), nil
}

// newUnpagedRepository disables the library's default list limit. Catalog and
// response lists are always returned whole.
func newUnpagedRepository[T any](db *bun.DB, handlers repository.ModelHandlers[T]) repository.Repository[T] {
	return repository.NewRepositoryWithConfig(db, handlers, nil, repository.WithDefaultListPagination(0, 0))
}

func idOrNew(id string) string {
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		return trimmed
	}
	return uuid.NewString()
}

func timeOrNow(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now().UTC()
	}
	return value.UTC()
}
