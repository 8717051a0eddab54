package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const FlowCategorySurvey = "SURVEY"

// PublishOutcome is the result of one create/upload/publish attempt.
// FlowID is only set once the flow reached the published state.
type PublishOutcome struct {
	FlowID          string
	CreatedFlowID   string
	AbandonedFlowID string
	FailedStep      string
	Err             error
	Machine         *SendStateMachine
}

func (o PublishOutcome) Available() bool {
	return strings.TrimSpace(o.FlowID) != "" && o.Machine.State() == SendStateFlowPublished
}

func (o PublishOutcome) State() SendState {
	return o.Machine.State()
}

type FlowPublisher struct {
	client   FlowClient
	observer observer
}

func NewFlowPublisher(client FlowClient, logger Logger, metrics MetricsRecorder) *FlowPublisher {
	return &FlowPublisher{client: client, observer: newObserver(logger, metrics)}
}

// FlowName builds the provider-side flow name for a restaurant.
func FlowName(restaurantName string, at time.Time) string {
	return fmt.Sprintf("Inspection_%s_%d", restaurantName, at.UnixMilli())
}

// PublishFlow runs the three provider steps in order. It never returns an
// error: a failed step abandons the flow and the outcome carries the cause.
func (p *FlowPublisher) PublishFlow(ctx context.Context, name string, doc FlowDocument) (outcome PublishOutcome) {
	startedAt := time.Now().UTC()
	outcome.Machine = NewSendStateMachine()
	fields := map[string]any{"flow_name": name}
	defer func() {
		fields["state"] = outcome.Machine.State()
		if outcome.CreatedFlowID != "" {
			fields["flow_id"] = outcome.CreatedFlowID
		}
		if p != nil {
			p.observer.observeOperation(ctx, startedAt, "publish_flow", outcome.Err, fields)
		}
	}()

	if p == nil || p.client == nil {
		return p.abandon(ctx, outcome, "configure", fmt.Errorf("core: flow client is not configured"))
	}
	document, err := doc.Serialize()
	if err != nil {
		return p.abandon(ctx, outcome, "serialize", err)
	}

	if err := outcome.Machine.Advance(SendStateFlowCreateAttempted); err != nil {
		return p.abandon(ctx, outcome, "create", err)
	}
	flowID, err := p.client.CreateFlow(ctx, CreateFlowRequest{
		Name:       name,
		Categories: []string{FlowCategorySurvey},
	})
	if err == nil && strings.TrimSpace(flowID) == "" {
		err = fmt.Errorf("core: provider returned an empty flow id")
	}
	if err != nil {
		return p.abandon(ctx, outcome, "create", err)
	}
	outcome.CreatedFlowID = flowID

	if err := p.client.UploadFlowJSON(ctx, flowID, document); err != nil {
		return p.abandon(ctx, outcome, "upload", err)
	}
	if err := outcome.Machine.Advance(SendStateFlowJSONUploaded); err != nil {
		return p.abandon(ctx, outcome, "upload", err)
	}

	if err := p.client.PublishFlow(ctx, flowID); err != nil {
		return p.abandon(ctx, outcome, "publish", err)
	}
	if err := outcome.Machine.Advance(SendStateFlowPublished); err != nil {
		return p.abandon(ctx, outcome, "publish", err)
	}
	outcome.FlowID = flowID
	return outcome
}

// abandon records the failed step. A created flow is left on the provider
// side unpublished; its id is kept for the operator.
func (p *FlowPublisher) abandon(ctx context.Context, outcome PublishOutcome, step string, cause error) PublishOutcome {
	metadata := map[string]any{"step": step}
	if outcome.CreatedFlowID != "" {
		metadata["flow_id"] = outcome.CreatedFlowID
		outcome.AbandonedFlowID = outcome.CreatedFlowID
	}
	outcome.FailedStep = step
	outcome.Err = RemoteServiceError(cause, "inspection: flow "+step+" failed", metadata)
	if outcome.Machine.CanAdvance(SendStateFallbackDispatch) {
		_ = outcome.Machine.Abandon()
	}
	if p != nil && outcome.AbandonedFlowID != "" {
		p.observer.logError(ctx, "flow abandoned before publish", map[string]any{
			"flow_id": outcome.AbandonedFlowID,
			"step":    step,
			"error":   cause.Error(),
		})
	}
	return outcome
}
