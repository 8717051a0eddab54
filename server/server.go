// Package server exposes the inspection operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/providers/whatsapp"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/webhooks"
)

const defaultMaxBodyBytes int64 = 1 << 20

type Service interface {
	SendInspection(ctx context.Context, req core.SendInspectionRequest) (core.SendInspectionResult, error)
	IngestWebhook(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)
	ListResponses(ctx context.Context, filter core.ResponseFilter) ([]core.Response, error)
}

type WebhookVerifier interface {
	Verify(req webhooks.VerifyRequest) webhooks.VerifyResult
}

type Options struct {
	Logger       core.Logger
	Clock        core.Clock
	MaxBodyBytes int64
}

type Server struct {
	service  Service
	verifier WebhookVerifier
	logger   core.Logger
	clock    core.Clock
	maxBody  int64
	mux      *http.ServeMux
}

func New(service Service, verifier WebhookVerifier, opts Options) *Server {
	s := &Server{
		service:  service,
		verifier: verifier,
		logger:   opts.Logger,
		clock:    opts.Clock,
		maxBody:  opts.MaxBodyBytes,
		mux:      http.NewServeMux(),
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/whatsapp/send", s.handleSend)
	s.mux.HandleFunc("GET /api/whatsapp/webhook", s.handleVerify)
	s.mux.HandleFunc("POST /api/whatsapp/webhook", s.handleWebhook)
	s.mux.HandleFunc("GET /api/responses", s.handleListResponses)
	s.mux.HandleFunc("GET /api/responses/restaurant/{restaurantId}", s.handleListResponses)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

type sendRequest struct {
	RestaurantID string   `json:"restaurantId"`
	PhoneNumbers []string `json:"phoneNumbers"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var body sendRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, s.maxBody))
	if err := decoder.Decode(&body); err != nil {
		s.writeError(w, r, core.ValidationError("body", "request body must be a JSON object"))
		return
	}
	result, err := s.service.SendInspection(r.Context(), core.SendInspectionRequest{
		RestaurantID: body.RestaurantID,
		PhoneNumbers: body.PhoneNumbers,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if result.Results == nil {
		result.Results = []core.DispatchResult{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	query := r.URL.Query()
	result := s.verifier.Verify(webhooks.VerifyRequest{
		Mode:      firstParam(query.Get("hub.mode"), query.Get("mode")),
		Token:     firstParam(query.Get("hub.verify_token"), query.Get("verify_token")),
		Challenge: firstParam(query.Get("hub.challenge"), query.Get("challenge")),
	})
	if result.StatusCode != http.StatusOK {
		w.WriteHeader(result.StatusCode)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, result.Body)
}

// handleWebhook acknowledges every delivery with 200 so the provider never
// redelivers. Outcomes are visible in logs and metrics only.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, s.maxBody+1))
	if err != nil {
		s.log(r.Context(), "warn", "webhook body read failed", "error", err.Error())
	}
	if int64(len(payload)) > s.maxBody {
		s.log(r.Context(), "warn", "webhook body dropped", "reason", "body_too_large", "limit_bytes", s.maxBody)
		w.WriteHeader(http.StatusOK)
		return
	}
	headers := make(map[string]string, len(r.Header))
	for key, values := range r.Header {
		headers[key] = strings.Join(values, ",")
	}
	result, err := s.service.IngestWebhook(r.Context(), core.InboundRequest{
		ProviderID: whatsapp.ProviderID,
		Headers:    headers,
		Body:       payload,
	})
	if err != nil {
		s.log(r.Context(), "error", "webhook ingest failed", "error", err.Error())
	} else {
		s.log(r.Context(), "debug", "webhook acknowledged", "outcome", result.Metadata["outcome"])
	}
	w.WriteHeader(http.StatusOK)
}

type responseView struct {
	ID            string        `json:"id"`
	Restaurant    *string       `json:"restaurant"`
	Section       *string       `json:"section"`
	EmployeePhone string        `json:"employeePhone"`
	EmployeeName  string        `json:"employeeName"`
	Answers       []core.Answer `json:"answers"`
	FlowToken     string        `json:"flowToken"`
	SubmittedAt   time.Time     `json:"submittedAt"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	filter := core.ResponseFilter{RestaurantID: r.PathValue("restaurantId")}
	responses, err := s.service.ListResponses(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]responseView, 0, len(responses))
	for _, response := range responses {
		answers := response.Answers
		if answers == nil {
			answers = []core.Answer{}
		}
		views = append(views, responseView{
			ID:            response.ID,
			Restaurant:    response.RestaurantID,
			Section:       response.SectionID,
			EmployeePhone: response.EmployeePhone,
			EmployeeName:  response.EmployeeName,
			Answers:       answers,
			FlowToken:     response.FlowToken,
			SubmittedAt:   response.SubmittedAt,
			CreatedAt:     response.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": s.clock().UTC().Format(time.RFC3339Nano),
	})
}

type errorBody struct {
	Message  string         `json:"message"`
	TextCode string         `json:"text_code,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var mapped *goerrors.Error
	if !goerrors.As(err, &mapped) || mapped == nil || mapped.Code == 0 {
		mapped = core.MapError(err)
	}
	status := mapped.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}
	body := errorBody{Message: mapped.Message, TextCode: mapped.TextCode}
	if validation := mapped.AllValidationErrors(); len(validation) > 0 {
		fields := make(map[string]any, len(validation))
		for _, fieldErr := range validation {
			fields[fieldErr.Field] = fieldErr.Message
		}
		body.Details = fields
	}
	level := "warn"
	if status >= http.StatusInternalServerError {
		level = "error"
	}
	s.log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"text_code", mapped.TextCode,
		"error", err.Error(),
	)
	writeJSON(w, status, body)
}

func (s *Server) log(ctx context.Context, level string, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	logger := s.logger.WithContext(ctx)
	switch level {
	case "error":
		logger.Error(msg, args...)
	case "warn":
		logger.Warn(msg, args...)
	case "debug":
		logger.Debug(msg, args...)
	default:
		logger.Info(msg, args...)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func firstParam(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
