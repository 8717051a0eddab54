package whatsapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

type graphErrorEnvelope struct {
	Error *graphError `json:"error"`
}

type graphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
	ErrorData    struct {
		Details string `json:"details"`
	} `json:"error_data"`
}

// decodeGraphError turns a non-2xx Graph response into an error envelope
// carrying the provider's code and trace id.
func decodeGraphError(operation string, res core.TransportResponse) error {
	metadata := map[string]any{
		"provider_id": ProviderID,
		"operation":   operation,
		"status_code": res.StatusCode,
	}
	message := fmt.Sprintf("whatsapp: %s failed with status %d", operation, res.StatusCode)

	var envelope graphErrorEnvelope
	if err := json.Unmarshal(res.Body, &envelope); err == nil && envelope.Error != nil {
		graph := envelope.Error
		if text := strings.TrimSpace(graph.Message); text != "" {
			message = "whatsapp: " + operation + ": " + text
			metadata["graph_message"] = text
		}
		if graph.Code != 0 {
			metadata["graph_code"] = graph.Code
		}
		if graph.ErrorSubcode != 0 {
			metadata["graph_subcode"] = graph.ErrorSubcode
		}
		if graph.Type != "" {
			metadata["graph_type"] = graph.Type
		}
		if graph.FBTraceID != "" {
			metadata["fbtrace_id"] = graph.FBTraceID
		}
		if details := strings.TrimSpace(graph.ErrorData.Details); details != "" {
			metadata["graph_details"] = details
		}
	} else if trimmed := strings.TrimSpace(string(res.Body)); trimmed != "" {
		if len(trimmed) > 512 {
			trimmed = trimmed[:512]
		}
		metadata["response_body"] = trimmed
	}
	if retryAfter, ok := parseRetryAfter(res.Headers); ok {
		metadata["retry_after_seconds"] = int64(retryAfter.Seconds())
	}

	category, status := graphCategory(res.StatusCode)
	err := goerrors.New(message, category).
		WithCode(status).
		WithTextCode(graphTextCode(category))
	err.WithMetadata(metadata)
	return err
}

func graphCategory(statusCode int) (goerrors.Category, int) {
	switch {
	case statusCode == http.StatusUnauthorized:
		return goerrors.CategoryAuth, http.StatusBadGateway
	case statusCode == http.StatusForbidden:
		return goerrors.CategoryAuthz, http.StatusBadGateway
	case statusCode == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit, http.StatusTooManyRequests
	default:
		return goerrors.CategoryExternal, http.StatusBadGateway
	}
}

func graphTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryAuth:
		return core.ServiceErrorUnauthorized
	case goerrors.CategoryAuthz:
		return core.ServiceErrorForbidden
	case goerrors.CategoryRateLimit:
		return core.ServiceErrorRateLimited
	default:
		return core.ServiceErrorRemoteFailure
	}
}

func parseRetryAfter(headers map[string]string) (time.Duration, bool) {
	raw := strings.TrimSpace(headerValue(headers, "retry-after"))
	if raw == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func headerValue(headers map[string]string, key string) string {
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
