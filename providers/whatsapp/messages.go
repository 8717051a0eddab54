package whatsapp

import (
	"fmt"
	"strings"

	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

const (
	messagingProduct = "whatsapp"
	flowAssetName    = "flow.json"
	flowAssetType    = "FLOW_JSON"
)

type createFlowBody struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

type uploadAssetBody struct {
	Name      string `json:"name"`
	AssetType string `json:"asset_type"`
	FlowJSON  string `json:"flow_json"`
}

type textPayload struct {
	Body string `json:"body"`
}

type flowActionPayload struct {
	Screen string `json:"screen"`
}

type flowParameters struct {
	FlowMessageVersion string            `json:"flow_message_version"`
	FlowToken          string            `json:"flow_token"`
	FlowID             string            `json:"flow_id"`
	FlowCTA            string            `json:"flow_cta"`
	FlowAction         string            `json:"flow_action"`
	FlowActionPayload  flowActionPayload `json:"flow_action_payload"`
}

type interactiveAction struct {
	Name       string         `json:"name"`
	Parameters flowParameters `json:"parameters"`
}

type interactiveHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type interactiveText struct {
	Text string `json:"text"`
}

type interactivePayload struct {
	Type   string             `json:"type"`
	Header *interactiveHeader `json:"header,omitempty"`
	Body   interactiveText    `json:"body"`
	Footer *interactiveText   `json:"footer,omitempty"`
	Action interactiveAction  `json:"action"`
}

type messageBody struct {
	MessagingProduct string              `json:"messaging_product"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *textPayload        `json:"text,omitempty"`
	Interactive      *interactivePayload `json:"interactive,omitempty"`
}

// buildMessageBody maps an outbound message to the Cloud API send payload.
func buildMessageBody(msg core.OutboundMessage) (messageBody, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return messageBody{}, fmt.Errorf("providers/whatsapp: recipient is required")
	}
	switch msg.Kind {
	case core.OutboundMessageText:
		return messageBody{
			MessagingProduct: messagingProduct,
			To:               to,
			Type:             "text",
			Text:             &textPayload{Body: msg.Text},
		}, nil
	case core.OutboundMessageFlow:
		if msg.Flow == nil || strings.TrimSpace(msg.Flow.FlowID) == "" {
			return messageBody{}, fmt.Errorf("providers/whatsapp: flow invitation requires a flow id")
		}
		invite := msg.Flow
		payload := &interactivePayload{
			Type: "flow",
			Body: interactiveText{Text: invite.Body},
			Action: interactiveAction{
				Name: "flow",
				Parameters: flowParameters{
					FlowMessageVersion: core.FlowMessageVersion,
					FlowToken:          invite.FlowToken,
					FlowID:             invite.FlowID,
					FlowCTA:            invite.CTA,
					FlowAction:         core.FlowActionNavigate,
					FlowActionPayload:  flowActionPayload{Screen: invite.FirstScreen},
				},
			},
		}
		if strings.TrimSpace(invite.Header) != "" {
			payload.Header = &interactiveHeader{Type: "text", Text: invite.Header}
		}
		if strings.TrimSpace(invite.Footer) != "" {
			payload.Footer = &interactiveText{Text: invite.Footer}
		}
		return messageBody{
			MessagingProduct: messagingProduct,
			To:               to,
			Type:             "interactive",
			Interactive:      payload,
		}, nil
	default:
		return messageBody{}, fmt.Errorf("providers/whatsapp: unsupported message kind %q", msg.Kind)
	}
}
