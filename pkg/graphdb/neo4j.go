package graphdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cypherquest",
		Subsystem: "graph",
		Name:      "query_duration_seconds",
		Help:      "Duration of graph database statements",
	}, []string{"routing"})

	queryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cypherquest",
		Subsystem: "graph",
		Name:      "query_failures_total",
		Help:      "Number of failed graph database statements",
	}, []string{"routing", "reason"})
)

// Neo4jConfig defines how to reach the Neo4j database.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
	MaxRows  int
	Logger   zerolog.Logger
}

// Neo4jRunner implements Runner with the official Neo4j driver.
type Neo4jRunner struct {
	driver neo4j.DriverWithContext
	cfg    Neo4jConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewNeo4jRunner builds a runner using the provided configuration. It does not
// contact the server; call Ping to verify connectivity.
func NewNeo4jRunner(cfg Neo4jConfig) (*Neo4jRunner, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j uri is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("neo4j credentials are required")
	}
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Neo4jRunner{
		driver: driver,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/cypher-quest-api/pkg/graphdb"),
		logger: logger.With().Str("component", "neo4j_runner").Logger(),
	}, nil
}

// Run executes the statement and buffers its records.
func (r *Neo4jRunner) Run(parent context.Context, stmt Statement) (Result, error) {
	routing := "read"
	routingOption := neo4j.ExecuteQueryWithReadersRouting()
	if stmt.Write {
		routing = "write"
		routingOption = neo4j.ExecuteQueryWithWritersRouting()
	}

	ctx, span := r.tracer.Start(parent, "neo4j.run", trace.WithAttributes(
		attribute.String("db.system", "neo4j"),
		attribute.String("db.name", r.cfg.Database),
		attribute.String("db.routing", routing),
	))
	defer span.End()

	start := time.Now()
	eager, err := neo4j.ExecuteQuery(ctx, r.driver, stmt.Cypher, stmt.Params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.cfg.Database),
		routingOption,
	)
	queryDuration.WithLabelValues(routing).Observe(time.Since(start).Seconds())
	if err != nil {
		reason, mapped := classify(ctx, err)
		queryFailures.WithLabelValues(routing, reason).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn().Err(err).Str("reason", reason).Str("routing", routing).Msg("graph statement failed")
		return Result{}, mapped
	}

	result := Result{
		Keys: append([]string{}, eager.Keys...),
		Rows: make([][]any, 0, len(eager.Records)),
	}
	for _, record := range eager.Records {
		if len(result.Rows) >= r.cfg.MaxRows {
			result.Truncated = true
			break
		}
		result.Rows = append(result.Rows, record.Values)
	}

	span.SetAttributes(
		attribute.Int("db.rows", len(result.Rows)),
		attribute.Bool("db.truncated", result.Truncated),
	)
	return result, nil
}

// Ping verifies that the server is reachable with the configured credentials.
func (r *Neo4jRunner) Ping(ctx context.Context) error {
	if err := r.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the driver's connections.
func (r *Neo4jRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func classify(ctx context.Context, err error) (string, error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout", fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled", err
	}

	var dbErr *neo4j.Neo4jError
	if errors.As(err, &dbErr) {
		return "query", &QueryError{Code: dbErr.Code, Message: dbErr.Msg}
	}
	if neo4j.IsConnectivityError(err) {
		return "unavailable", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return "unknown", fmt.Errorf("run graph statement: %w", err)
}
