package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// idHandlers wires a record keyed by a text uuid column named id.
func idHandlers[T any](newRecord func() *T, id func(*T) *string) repository.ModelHandlers[*T] {
	return repository.ModelHandlers[*T]{
		NewRecord: newRecord,
		GetID: func(record *T) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(*id(record))
		},
		SetID: func(record *T, value uuid.UUID) {
			if record == nil {
				return
			}
			*id(record) = value.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *T) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(*id(record))
		},
	}
}

func restaurantHandlers() repository.ModelHandlers[*restaurantRecord] {
	return idHandlers(
		func() *restaurantRecord { return &restaurantRecord{} },
		func(record *restaurantRecord) *string { return &record.ID },
	)
}

func sectionHandlers() repository.ModelHandlers[*sectionRecord] {
	return idHandlers(
		func() *sectionRecord { return &sectionRecord{} },
		func(record *sectionRecord) *string { return &record.ID },
	)
}

func questionHandlers() repository.ModelHandlers[*questionRecord] {
	return idHandlers(
		func() *questionRecord { return &questionRecord{} },
		func(record *questionRecord) *string { return &record.ID },
	)
}

func responseHandlers() repository.ModelHandlers[*responseRecord] {
	return idHandlers(
		func() *responseRecord { return &responseRecord{} },
		func(record *responseRecord) *string { return &record.ID },
	)
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
