package command

import (
	"strings"

	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

const (
	TypeSendInspection = "inspection.command.send"
	TypeIngestWebhook  = "inspection.command.webhook.ingest"
)

type SendInspectionMessage struct {
	Request core.SendInspectionRequest
}

func (SendInspectionMessage) Type() string { return TypeSendInspection }

func (m SendInspectionMessage) Validate() error {
	if strings.TrimSpace(m.Request.RestaurantID) == "" {
		return core.ValidationError("restaurantId", "restaurant id is required")
	}
	if !core.HasRecipient(m.Request.PhoneNumbers) {
		return core.ValidationError("phoneNumbers", "at least one phone number is required")
	}
	return nil
}

type IngestWebhookMessage struct {
	Request core.InboundRequest
}

func (IngestWebhookMessage) Type() string { return TypeIngestWebhook }

// Validate accepts any body; the ingester classifies malformed payloads itself.
func (IngestWebhookMessage) Validate() error {
	return nil
}
