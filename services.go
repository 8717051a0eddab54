package inspection

import "github.com/thehariompandey/Resturant-Inspection-Automation-System/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type SendInspectionRequest = core.SendInspectionRequest
type SendInspectionResult = core.SendInspectionResult
type DispatchResult = core.DispatchResult
type Response = core.Response
type ResponseFilter = core.ResponseFilter

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithFlowClient      = core.WithFlowClient
	WithCatalogReader   = core.WithCatalogReader
	WithTokenGenerator  = core.WithTokenGenerator
	WithClock           = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
