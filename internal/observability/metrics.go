package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	submissions   metric.Int64Counter
	transitions   metric.Int64Counter
	notifications metric.Int64Counter
	rateLimited   metric.Int64Counter
}

// NewMeterProvider configures and registers the meter provider.
func NewMeterProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.OtelEnabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newMetricExporter(cfg.OtelExporterProtocol, cfg.OtelExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.OtelExporterEndpoint),
		zap.String("protocol", cfg.OtelExporterProtocol),
	)
	return provider, nil
}

// NewMetrics configures the domain metric instruments.
func NewMetrics(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(cfg.ServiceName)

	submissions, err := meter.Int64Counter("subscription_submissions_total")
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("subscription_transitions_total")
	if err != nil {
		return nil, err
	}
	notifications, err := meter.Int64Counter("subscription_notifications_total")
	if err != nil {
		return nil, err
	}
	rateLimited, err := meter.Int64Counter("subscription_rate_limited_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		submissions:   submissions,
		transitions:   transitions,
		notifications: notifications,
		rateLimited:   rateLimited,
	}, nil
}

// RecordSubmission counts one application submission by resulting status.
func (m *Metrics) RecordSubmission(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.submissions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTransition counts one lifecycle transition by action.
func (m *Metrics) RecordTransition(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotification counts one emitted notification by type.
func (m *Metrics) RecordNotification(ctx context.Context, notifType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("type", strings.TrimSpace(notifType)))
	m.notifications.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimited counts one throttled submission.
func (m *Metrics) RecordRateLimited(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newMetricExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"status":      {},
	"action":      {},
	"type":        {},
	"endpoint":    {},
	"status_code": {},
	"request_id":  {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
