package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	FlowActionNavigate     = "navigate"
	FlowMessageVersion     = "3"
	DefaultFlowFirstScreen = "section_0"
)

type DispatchRequest struct {
	Restaurant   Restaurant
	SectionCount int
	// FlowID selects the flow path; empty means every recipient gets text.
	FlowID      string
	FirstScreen string
	Recipients  []string
}

type DispatchTemplates struct {
	CTA    string
	Header string
	Footer string
}

func templatesFromConfig(cfg DispatchConfig) DispatchTemplates {
	defaults := DefaultConfig().Dispatch
	out := DispatchTemplates{CTA: cfg.FlowCTA, Header: cfg.HeaderText, Footer: cfg.FooterText}
	if strings.TrimSpace(out.CTA) == "" {
		out.CTA = defaults.FlowCTA
	}
	if strings.TrimSpace(out.Header) == "" {
		out.Header = defaults.HeaderText
	}
	if strings.TrimSpace(out.Footer) == "" {
		out.Footer = defaults.FooterText
	}
	return out
}

// FlowInvitationBody is the body line of a flow invitation.
func FlowInvitationBody(restaurant Restaurant) string {
	return fmt.Sprintf("Please complete the inspection for %s - %s", restaurant.Name, restaurant.Location)
}

// FallbackText is sent when no published flow is available.
func FallbackText(restaurant Restaurant, sectionCount int) string {
	return fmt.Sprintf(
		"\U0001F3EA Restaurant Inspection\n\nRestaurant: %s\nLocation: %s\nSections: %d\n\nPlease complete your inspection and submit the form.",
		restaurant.Name,
		restaurant.Location,
		sectionCount,
	)
}

type Dispatcher struct {
	client         FlowClient
	tokens         TokenGenerator
	templates      DispatchTemplates
	maxConcurrency int
	observer       observer
}

func NewDispatcher(client FlowClient, tokens TokenGenerator, cfg DispatchConfig, logger Logger, metrics MetricsRecorder) *Dispatcher {
	if tokens == nil {
		tokens = UUIDTokenGenerator{}
	}
	limit := cfg.MaxConcurrentSends
	if limit <= 0 {
		limit = DefaultMaxConcurrentSends
	}
	return &Dispatcher{
		client:         client,
		tokens:         tokens,
		templates:      templatesFromConfig(cfg),
		maxConcurrency: limit,
		observer:       newObserver(logger, metrics),
	}
}

// Dispatch sends to every recipient independently. A failure for one
// recipient is reported in its slot and never affects the others; results
// keep the order of req.Recipients.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) []DispatchResult {
	results := make([]DispatchResult, len(req.Recipients))
	if len(req.Recipients) == 0 {
		return results
	}

	var group errgroup.Group
	group.SetLimit(d.maxConcurrency)
	for idx, recipient := range req.Recipients {
		group.Go(func() error {
			results[idx] = d.sendOne(ctx, req, recipient)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (d *Dispatcher) sendOne(ctx context.Context, req DispatchRequest, recipient string) (result DispatchResult) {
	startedAt := time.Now().UTC()
	result.PhoneNumber = recipient
	msg := d.buildMessage(req, recipient)
	result.Kind = DispatchKindFallback
	if msg.Kind == OutboundMessageFlow {
		result.Kind = DispatchKindFlow
		result.FlowToken = msg.Flow.FlowToken
	} else {
		result.Body = msg.Text
	}

	var err error
	defer func() {
		d.observer.observeOperation(ctx, startedAt, "dispatch_recipient", err, map[string]any{
			"restaurant_id": req.Restaurant.ID,
			"path":          string(result.Kind),
			"recipient":     recipient,
		})
	}()

	if strings.TrimSpace(recipient) == "" {
		err = ValidationError("phoneNumbers", "recipient phone number is empty")
		result.Error = err.Error()
		return result
	}
	if d.client == nil {
		err = fmt.Errorf("core: flow client is not configured")
		result.Error = err.Error()
		return result
	}

	receipt, sendErr := d.client.SendMessage(ctx, msg)
	if sendErr != nil {
		err = sendErr
		result.Error = sendErr.Error()
		return result
	}
	result.Success = true
	result.MessageID = receipt.MessageID
	return result
}

func (d *Dispatcher) buildMessage(req DispatchRequest, recipient string) OutboundMessage {
	flowID := strings.TrimSpace(req.FlowID)
	if flowID == "" {
		return OutboundMessage{
			To:   recipient,
			Kind: OutboundMessageText,
			Text: FallbackText(req.Restaurant, req.SectionCount),
		}
	}
	firstScreen := strings.TrimSpace(req.FirstScreen)
	if firstScreen == "" {
		firstScreen = DefaultFlowFirstScreen
	}
	return OutboundMessage{
		To:   recipient,
		Kind: OutboundMessageFlow,
		Flow: &FlowInvitation{
			FlowID:      flowID,
			FlowToken:   d.tokens.NewFlowToken(),
			CTA:         d.templates.CTA,
			FirstScreen: firstScreen,
			Header:      d.templates.Header,
			Body:        FlowInvitationBody(req.Restaurant),
			Footer:      d.templates.Footer,
		},
	}
}
