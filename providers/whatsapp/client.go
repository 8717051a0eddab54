package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/transport"
)

const ProviderID = "whatsapp"

type ClientConfig struct {
	BaseURL           string
	APIVersion        string
	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string
	Timeout           time.Duration
}

func ClientConfigFrom(cfg core.WhatsAppConfig) ClientConfig {
	return ClientConfig{
		BaseURL:           cfg.APIBaseURL,
		APIVersion:        cfg.APIVersion,
		AccessToken:       cfg.AccessToken,
		PhoneNumberID:     cfg.PhoneNumberID,
		BusinessAccountID: cfg.BusinessAccountID,
		Timeout:           cfg.RequestTimeout(),
	}
}

// Client talks to the Graph API flow and message endpoints.
type Client struct {
	cfg       ClientConfig
	transport core.TransportAdapter
}

// NewClient builds a client over the given adapter; nil selects the REST adapter.
func NewClient(cfg ClientConfig, adapter core.TransportAdapter) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = core.DefaultGraphAPIBaseURL
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = core.DefaultGraphAPIVersion
	}
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	return &Client{cfg: cfg, transport: adapter}
}

type createFlowResponse struct {
	ID string `json:"id"`
}

type validationIssue struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

type uploadAssetResponse struct {
	Success          *bool             `json:"success"`
	ValidationErrors []validationIssue `json:"validation_errors"`
}

type publishResponse struct {
	Success *bool `json:"success"`
}

type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (c *Client) CreateFlow(ctx context.Context, req core.CreateFlowRequest) (string, error) {
	if strings.TrimSpace(c.cfg.BusinessAccountID) == "" {
		return "", core.ValidationError("whatsapp.business_account_id", "business account id is required to create flows")
	}
	body, err := json.Marshal(createFlowBody{Name: req.Name, Categories: req.Categories})
	if err != nil {
		return "", fmt.Errorf("providers/whatsapp: encode create flow: %w", err)
	}
	var out createFlowResponse
	if err := c.post(ctx, "create_flow", c.cfg.BusinessAccountID+"/flows", body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", core.RemoteServiceError(nil, "whatsapp: create flow returned no id", map[string]any{"operation": "create_flow"})
	}
	return out.ID, nil
}

func (c *Client) UploadFlowJSON(ctx context.Context, flowID string, document []byte) error {
	flowID = strings.TrimSpace(flowID)
	if flowID == "" {
		return core.ValidationError("flow_id", "flow id is required")
	}
	body, err := json.Marshal(uploadAssetBody{
		Name:      flowAssetName,
		AssetType: flowAssetType,
		FlowJSON:  string(document),
	})
	if err != nil {
		return fmt.Errorf("providers/whatsapp: encode flow asset: %w", err)
	}
	var out uploadAssetResponse
	if err := c.post(ctx, "upload_flow_json", flowID+"/assets", body, &out); err != nil {
		return err
	}
	if len(out.ValidationErrors) > 0 {
		messages := make([]string, 0, len(out.ValidationErrors))
		for _, issue := range out.ValidationErrors {
			messages = append(messages, firstNonEmpty(issue.Message, issue.Error, issue.ErrorType))
		}
		return core.RemoteServiceError(nil, "whatsapp: flow json rejected", map[string]any{
			"operation":         "upload_flow_json",
			"flow_id":           flowID,
			"validation_errors": messages,
		})
	}
	if out.Success != nil && !*out.Success {
		return core.RemoteServiceError(nil, "whatsapp: flow json upload not acknowledged", map[string]any{
			"operation": "upload_flow_json",
			"flow_id":   flowID,
		})
	}
	return nil
}

func (c *Client) PublishFlow(ctx context.Context, flowID string) error {
	flowID = strings.TrimSpace(flowID)
	if flowID == "" {
		return core.ValidationError("flow_id", "flow id is required")
	}
	var out publishResponse
	if err := c.post(ctx, "publish_flow", flowID+"/publish", nil, &out); err != nil {
		return err
	}
	if out.Success != nil && !*out.Success {
		return core.RemoteServiceError(nil, "whatsapp: publish not acknowledged", map[string]any{
			"operation": "publish_flow",
			"flow_id":   flowID,
		})
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, msg core.OutboundMessage) (core.SendReceipt, error) {
	if strings.TrimSpace(c.cfg.PhoneNumberID) == "" {
		return core.SendReceipt{}, core.ValidationError("whatsapp.phone_number_id", "phone number id is required to send messages")
	}
	payload, err := buildMessageBody(msg)
	if err != nil {
		return core.SendReceipt{}, core.ValidationError("message", err.Error())
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return core.SendReceipt{}, fmt.Errorf("providers/whatsapp: encode message: %w", err)
	}
	var out sendMessageResponse
	if err := c.post(ctx, "send_message", c.cfg.PhoneNumberID+"/messages", body, &out); err != nil {
		return core.SendReceipt{}, err
	}
	receipt := core.SendReceipt{}
	if len(out.Messages) > 0 {
		receipt.MessageID = out.Messages[0].ID
	}
	return receipt, nil
}

func (c *Client) endpoint(path string) string {
	base := strings.TrimRight(strings.TrimSpace(c.cfg.BaseURL), "/")
	version := strings.Trim(strings.TrimSpace(c.cfg.APIVersion), "/")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for idx, segment := range segments {
		segments[idx] = url.PathEscape(segment)
	}
	return base + "/" + version + "/" + strings.Join(segments, "/")
}

func (c *Client) post(ctx context.Context, operation string, path string, body []byte, out any) error {
	if c == nil || c.transport == nil {
		return core.InternalError("whatsapp: client is not configured")
	}
	headers := map[string]string{}
	if token := strings.TrimSpace(c.cfg.AccessToken); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	res, err := c.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     c.endpoint(path),
		Headers: headers,
		Body:    body,
		Timeout: c.cfg.Timeout,
		Metadata: map[string]any{
			"provider_id": ProviderID,
			"operation":   operation,
		},
	})
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeGraphError(operation, res)
	}
	if out == nil || len(res.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return core.RemoteServiceError(err, "whatsapp: decode "+operation+" response", map[string]any{
			"operation":   operation,
			"status_code": res.StatusCode,
		})
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var _ core.FlowClient = (*Client)(nil)
