package inspection

import (
	"context"
	"fmt"

	gocmd "github.com/goliatone/go-command"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/adapters/gocommand"
	inspectioncommand "github.com/thehariompandey/Resturant-Inspection-Automation-System/command"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
	inspectionquery "github.com/thehariompandey/Resturant-Inspection-Automation-System/query"
)

type Commands struct {
	SendInspection *inspectioncommand.SendInspectionCommand
	IngestWebhook  *inspectioncommand.IngestWebhookCommand
}

type Queries struct {
	ListResponses *inspectionquery.ListResponsesQuery
}

// Facade binds the inspection commands and queries to their collaborators.
type Facade struct {
	sender   inspectioncommand.InspectionSender
	ingester inspectioncommand.WebhookIngester
	reader   core.ResponseReader
	commands Commands
	queries  Queries
}

func NewFacade(
	sender inspectioncommand.InspectionSender,
	ingester inspectioncommand.WebhookIngester,
	reader core.ResponseReader,
) (*Facade, error) {
	if sender == nil {
		return nil, fmt.Errorf("inspection: inspection sender is required")
	}
	if ingester == nil {
		return nil, fmt.Errorf("inspection: webhook ingester is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("inspection: response reader is required")
	}
	return &Facade{
		sender:   sender,
		ingester: ingester,
		reader:   reader,
		commands: Commands{
			SendInspection: inspectioncommand.NewSendInspectionCommand(sender),
			IngestWebhook:  inspectioncommand.NewIngestWebhookCommand(ingester),
		},
		queries: Queries{
			ListResponses: inspectionquery.NewListResponsesQuery(reader),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) SendInspection(ctx context.Context, req core.SendInspectionRequest) (core.SendInspectionResult, error) {
	if f == nil {
		return core.SendInspectionResult{}, fmt.Errorf("inspection: facade is not configured")
	}
	return execute[inspectioncommand.SendInspectionMessage, core.SendInspectionResult](
		ctx, f.commands.SendInspection, inspectioncommand.SendInspectionMessage{Request: req},
	)
}

func (f *Facade) IngestWebhook(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if f == nil {
		return core.InboundResult{}, fmt.Errorf("inspection: facade is not configured")
	}
	return execute[inspectioncommand.IngestWebhookMessage, core.InboundResult](
		ctx, f.commands.IngestWebhook, inspectioncommand.IngestWebhookMessage{Request: req},
	)
}

func (f *Facade) ListResponses(ctx context.Context, filter core.ResponseFilter) ([]core.Response, error) {
	if f == nil {
		return nil, fmt.Errorf("inspection: facade is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return f.queries.ListResponses.Query(ctx, inspectionquery.ListResponsesMessage{Filter: filter})
}

// Register publishes the facade handlers on the command bus.
func (f *Facade) Register(bus *gocommand.Bus) error {
	if f == nil {
		return fmt.Errorf("inspection: facade is not configured")
	}
	if err := gocommand.RegisterCommand[inspectioncommand.SendInspectionMessage](bus, f.commands.SendInspection); err != nil {
		return err
	}
	if err := gocommand.RegisterCommand[inspectioncommand.IngestWebhookMessage](bus, f.commands.IngestWebhook); err != nil {
		return err
	}
	return gocommand.RegisterQuery[inspectionquery.ListResponsesMessage, []core.Response](bus, f.queries.ListResponses)
}

// BusClient sends facade operations through the command dispatcher. The
// handlers must already be registered with Facade.Register.
type BusClient struct {
	bus *gocommand.Bus
}

func NewBusClient(bus *gocommand.Bus) (*BusClient, error) {
	if bus == nil {
		return nil, fmt.Errorf("inspection: command bus is required")
	}
	return &BusClient{bus: bus}, nil
}

func (c *BusClient) SendInspection(ctx context.Context, req core.SendInspectionRequest) (core.SendInspectionResult, error) {
	return gocommand.Dispatch[inspectioncommand.SendInspectionMessage, core.SendInspectionResult](
		ctx, inspectioncommand.SendInspectionMessage{Request: req},
	)
}

func (c *BusClient) IngestWebhook(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	return gocommand.Dispatch[inspectioncommand.IngestWebhookMessage, core.InboundResult](
		ctx, inspectioncommand.IngestWebhookMessage{Request: req},
	)
}

func (c *BusClient) ListResponses(ctx context.Context, filter core.ResponseFilter) ([]core.Response, error) {
	return gocommand.Query[inspectionquery.ListResponsesMessage, []core.Response](
		ctx, inspectionquery.ListResponsesMessage{Filter: filter},
	)
}

func execute[T any, R any](ctx context.Context, cmd gocmd.Commander[T], msg T) (R, error) {
	var zero R
	if ctx == nil {
		ctx = context.Background()
	}
	collector := gocmd.NewResult[R]()
	if err := cmd.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, err
	}
	value, ok := collector.Load()
	if !ok {
		return zero, core.InternalError("inspection: command returned no result")
	}
	return value, nil
}
