package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type CreateFlowRequest struct {
	Name       string
	Categories []string
}

type OutboundMessageKind string

const (
	OutboundMessageFlow OutboundMessageKind = "flow"
	OutboundMessageText OutboundMessageKind = "text"
)

type FlowInvitation struct {
	FlowID      string
	FlowToken   string
	CTA         string
	FirstScreen string
	Header      string
	Body        string
	Footer      string
}

type OutboundMessage struct {
	To   string
	Kind OutboundMessageKind
	Text string
	Flow *FlowInvitation
}

type SendReceipt struct {
	MessageID string
}

// FlowClient is the messaging provider surface used by the publisher and
// the dispatcher. Every call is a synchronous request/response.
type FlowClient interface {
	CreateFlow(ctx context.Context, req CreateFlowRequest) (string, error)
	UploadFlowJSON(ctx context.Context, flowID string, document []byte) error
	PublishFlow(ctx context.Context, flowID string) error
	SendMessage(ctx context.Context, msg OutboundMessage) (SendReceipt, error)
}

type RestaurantReader interface {
	GetRestaurant(ctx context.Context, id string) (Restaurant, error)
}

// CatalogReader returns sections and questions in creation order.
type CatalogReader interface {
	RestaurantReader
	ListSections(ctx context.Context, restaurantID string) ([]Section, error)
	ListQuestions(ctx context.Context, restaurantID string) ([]Question, error)
}

type ResponseStore interface {
	CreateResponse(ctx context.Context, response Response) (Response, error)
}

type ResponseReader interface {
	ListResponses(ctx context.Context, filter ResponseFilter) ([]Response, error)
}

type TokenGenerator interface {
	NewFlowToken() string
}

type Clock func() time.Time

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type InboundRequest struct {
	ProviderID string
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}
