package metrics

import (
	"context"
	"fmt"
	"strconv"
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

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	bookingsCreated    metric.Int64Counter
	bookingTransitions metric.Int64Counter
	assignments        metric.Int64Counter
	settlements        metric.Int64Counter
	ratings            metric.Int64Counter
	notifications      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "scrapline"
	}
	meter := provider.Meter(name)

	bookingsCreated, err := meter.Int64Counter("scrapline_bookings_created_total")
	if err != nil {
		return nil, err
	}
	bookingTransitions, err := meter.Int64Counter("scrapline_booking_transitions_total")
	if err != nil {
		return nil, err
	}
	assignments, err := meter.Int64Counter("scrapline_assignments_total")
	if err != nil {
		return nil, err
	}
	settlements, err := meter.Int64Counter("scrapline_settlements_total")
	if err != nil {
		return nil, err
	}
	ratings, err := meter.Int64Counter("scrapline_ratings_total")
	if err != nil {
		return nil, err
	}
	notifications, err := meter.Int64Counter("scrapline_notifications_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		bookingsCreated:    bookingsCreated,
		bookingTransitions: bookingTransitions,
		assignments:        assignments,
		settlements:        settlements,
		ratings:            ratings,
		notifications:      notifications,
	}, nil
}

// RecordBookingCreated increments booking creation counts.
func (m *Metrics) RecordBookingCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.bookingsCreated.Add(ctx, 1)
}

// RecordTransition increments booking state transition counts.
func (m *Metrics) RecordTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(from)),
		attribute.String("to_status", strings.TrimSpace(to)),
	)
	m.bookingTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAssignment increments dispatch outcome counts.
func (m *Metrics) RecordAssignment(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.assignments.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSettlement increments settlement counts.
func (m *Metrics) RecordSettlement(ctx context.Context, method string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("method", strings.TrimSpace(method)))
	m.settlements.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRating increments rating submission counts.
func (m *Metrics) RecordRating(ctx context.Context, stars int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("stars", strconv.Itoa(stars)))
	m.ratings.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotification increments emitted notification counts.
func (m *Metrics) RecordNotification(ctx context.Context) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
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
	"from_status": {},
	"to_status":   {},
	"outcome":     {},
	"method":      {},
	"stars":       {},
	"reason":      {},
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
