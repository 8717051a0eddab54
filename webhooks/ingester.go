package webhooks

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/providers/whatsapp"
)

const (
	OutcomePersisted    = "persisted"
	OutcomeIgnoredText  = "ignored_text"
	OutcomeIgnoredShape = "ignored_shape"
	OutcomeNoValue      = "no_value"
	OutcomeDropped      = "dropped"
)

const (
	flowTokenKey  = "flow_token"
	restaurantKey = "restaurant"
)

var (
	ingestCounterMetric = core.OperationCounterMetric("webhook_ingest")
	verifyCounterMetric = core.OperationCounterMetric("webhook_verify")
)

type VerifyRequest struct {
	Mode      string
	Token     string
	Challenge string
}

type VerifyResult struct {
	StatusCode int
	Body       string
}

type IngesterConfig struct {
	VerifyToken string
	AppSecret   string
}

func IngesterConfigFrom(cfg core.WhatsAppConfig) IngesterConfig {
	return IngesterConfig{VerifyToken: cfg.VerifyToken, AppSecret: cfg.AppSecret}
}

type IngesterDependencies struct {
	Store   core.ResponseStore
	Logger  core.Logger
	Metrics core.MetricsRecorder
	Clock   core.Clock
}

// Ingester turns WhatsApp flow completions into stored responses.
type Ingester struct {
	verifyToken string
	template    *ProviderWebhookTemplate
	store       core.ResponseStore
	logger      core.Logger
	metrics     core.MetricsRecorder
	clock       core.Clock
}

func NewIngester(cfg IngesterConfig, deps IngesterDependencies) *Ingester {
	ingester := &Ingester{
		verifyToken: strings.TrimSpace(cfg.VerifyToken),
		store:       deps.Store,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		clock:       deps.Clock,
	}
	if ingester.metrics == nil {
		ingester.metrics = core.NopMetricsRecorder{}
	}
	if ingester.clock == nil {
		ingester.clock = time.Now
	}
	if secret := strings.TrimSpace(cfg.AppSecret); secret != "" {
		template := NewWhatsAppWebhookTemplate(whatsapp.ProviderID, secret)
		ingester.template = &template
	}
	return ingester
}

// Verify answers the subscription handshake. It never parses a payload.
func (i *Ingester) Verify(req VerifyRequest) VerifyResult {
	ok := strings.TrimSpace(req.Mode) != "" &&
		i.verifyToken != "" &&
		subtle.ConstantTimeCompare([]byte(req.Token), []byte(i.verifyToken)) == 1
	status := "rejected"
	result := VerifyResult{StatusCode: http.StatusForbidden}
	if ok {
		status = "accepted"
		result = VerifyResult{StatusCode: http.StatusOK, Body: req.Challenge}
	}
	i.metrics.IncCounter(context.Background(), verifyCounterMetric, 1, map[string]string{"status": status})
	return result
}

// Ingest always acknowledges. Failures are logged and reported through the
// outcome metadata only.
func (i *Ingester) Ingest(ctx context.Context, req core.InboundRequest) core.InboundResult {
	if ctx == nil {
		ctx = context.Background()
	}
	outcome, fields := i.ingest(ctx, req)
	fields["outcome"] = outcome
	i.metrics.IncCounter(ctx, ingestCounterMetric, 1, map[string]string{
		"provider_id": whatsapp.ProviderID,
		"outcome":     outcome,
	})
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata:   fields,
	}
}

func (i *Ingester) ingest(ctx context.Context, req core.InboundRequest) (string, map[string]any) {
	fields := map[string]any{"provider_id": whatsapp.ProviderID}

	if i.template != nil {
		if err := i.template.Verifier.Verify(ctx, req); err != nil {
			fields["reason"] = "signature"
			i.log(ctx, "warn", "webhook signature rejected", map[string]any{"error": err.Error()})
			return OutcomeDropped, fields
		}
	}

	envelope, err := whatsapp.DecodeWebhookEnvelope(req.Body)
	if err != nil {
		fields["reason"] = "payload"
		i.log(ctx, "error", "webhook payload rejected", map[string]any{
			"error": core.WebhookParseError(err, "webhooks: parse payload").Error(),
		})
		return OutcomeDropped, fields
	}
	value := envelope.FirstValue()
	if value == nil {
		return OutcomeNoValue, fields
	}
	message := value.FirstMessage()
	if message == nil {
		i.log(ctx, "debug", "webhook event without message", nil)
		return OutcomeIgnoredShape, fields
	}
	fields["message_id"] = message.ID

	if message.Type == whatsapp.MessageTypeText {
		body := ""
		if message.Text != nil {
			body = message.Text.Body
		}
		i.log(ctx, "info", "text message received", map[string]any{"from": message.From, "body": body})
		return OutcomeIgnoredText, fields
	}
	if !message.IsFlowCompletion() {
		i.log(ctx, "debug", "webhook event ignored", map[string]any{"message_type": message.Type})
		return OutcomeIgnoredShape, fields
	}

	response, reason, err := i.responseFrom(value, message)
	if err != nil {
		fields["reason"] = reason
		i.log(ctx, "error", "flow reply dropped", map[string]any{"reason": reason, "error": err.Error()})
		return OutcomeDropped, fields
	}
	if i.store == nil {
		fields["reason"] = "store"
		i.log(ctx, "error", "flow reply dropped", map[string]any{"reason": "store", "error": "response store is not configured"})
		return OutcomeDropped, fields
	}
	saved, err := i.store.CreateResponse(ctx, response)
	if err != nil {
		fields["reason"] = "store"
		i.log(ctx, "error", "flow reply dropped", map[string]any{"reason": "store", "error": err.Error()})
		return OutcomeDropped, fields
	}
	fields["response_id"] = saved.ID
	fields["flow_token"] = saved.FlowToken
	i.log(ctx, "info", "inspection response stored", map[string]any{
		"response_id":   saved.ID,
		"flow_token":    saved.FlowToken,
		"restaurant_id": derefString(saved.RestaurantID),
		"section_id":    derefString(saved.SectionID),
		"answers":       len(saved.Answers),
	})
	return OutcomePersisted, fields
}

func (i *Ingester) responseFrom(value *whatsapp.WebhookValue, message *whatsapp.WebhookMessage) (core.Response, string, error) {
	phone := strings.TrimSpace(message.From)
	if phone == "" {
		return core.Response{}, "phone", core.ValidationError("from", "sender phone is required")
	}
	submittedAt, err := message.SubmittedAt()
	if err != nil {
		return core.Response{}, "timestamp", core.WebhookParseError(err, "webhooks: invalid message timestamp")
	}
	reply := message.Interactive.NFMReply
	entries, err := whatsapp.DecodeResponseJSON(reply.ResponseJSON)
	if err != nil {
		return core.Response{}, "response_json", core.WebhookParseError(err, "webhooks: invalid response_json")
	}

	answers := make([]core.Answer, 0, len(entries))
	for _, entry := range entries {
		answers = append(answers, core.Answer{QuestionText: entry.Key, Answer: entry.Value})
	}
	flowToken := strings.TrimSpace(reply.Name)
	if token := whatsapp.LookupEntry(entries, flowTokenKey); token != nil {
		flowToken = *token
	}
	name := value.ContactName()
	if name == "" {
		name = core.DefaultEmployeeName
	}
	return core.Response{
		RestaurantID:  whatsapp.LookupEntry(entries, restaurantKey),
		SectionID:     reply.SectionRef(),
		EmployeePhone: phone,
		EmployeeName:  name,
		Answers:       answers,
		FlowToken:     flowToken,
		SubmittedAt:   submittedAt,
		CreatedAt:     i.clock().UTC(),
	}, "", nil
}

func (i *Ingester) log(ctx context.Context, level string, message string, fields map[string]any) {
	if i.logger == nil {
		return
	}
	fields = core.RedactSensitiveMap(fields)
	logger := i.logger.WithContext(ctx)
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	switch level {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
