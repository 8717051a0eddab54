package transport

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

// requestFailure describes a request that never produced a usable response.
type requestFailure struct {
	cause    error
	message  string
	category goerrors.Category
	fields   map[string]any
}

func (f requestFailure) envelope(req core.TransportRequest) error {
	metadata := map[string]any{"adapter": KindREST}
	for _, key := range []string{"provider_id", "operation"} {
		if value, ok := req.Metadata[key]; ok {
			metadata[key] = value
		}
	}
	for key, value := range f.fields {
		metadata[key] = value
	}

	var err *goerrors.Error
	if f.cause != nil {
		err = goerrors.Wrap(f.cause, f.category, f.message)
	} else {
		err = goerrors.New(f.message, f.category)
	}
	code, textCode := failureStatus(f.category)
	return err.WithCode(code).WithTextCode(textCode).WithMetadata(metadata)
}

func failureStatus(category goerrors.Category) (int, string) {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest, core.ServiceErrorBadInput
	case goerrors.CategoryExternal:
		return http.StatusBadGateway, core.ServiceErrorRemoteFailure
	default:
		return http.StatusInternalServerError, core.ServiceErrorInternal
	}
}
