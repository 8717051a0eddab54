package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

type InspectionSender interface {
	SendInspection(ctx context.Context, req core.SendInspectionRequest) (core.SendInspectionResult, error)
}

type WebhookIngester interface {
	Ingest(ctx context.Context, req core.InboundRequest) core.InboundResult
}

type SendInspectionCommand struct {
	service InspectionSender
}

func NewSendInspectionCommand(service InspectionSender) *SendInspectionCommand {
	return &SendInspectionCommand{service: service}
}

func (c *SendInspectionCommand) Execute(ctx context.Context, msg SendInspectionMessage) error {
	if c == nil || c.service == nil {
		return core.InternalError("command: inspection service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.SendInspection(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// IngestWebhookCommand never fails on payload problems; the result carries
// the outcome.
type IngestWebhookCommand struct {
	ingester WebhookIngester
}

func NewIngestWebhookCommand(ingester WebhookIngester) *IngestWebhookCommand {
	return &IngestWebhookCommand{ingester: ingester}
}

func (c *IngestWebhookCommand) Execute(ctx context.Context, msg IngestWebhookMessage) error {
	if c == nil || c.ingester == nil {
		return core.InternalError("command: webhook ingester is required")
	}
	storeResult(ctx, c.ingester.Ingest(ctx, msg.Request))
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
