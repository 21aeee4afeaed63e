package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/cypher-quest-api/internal/config"
	"github.com/noah-isme/cypher-quest-api/pkg/graphdb"
)

// ConnectGraph builds the Neo4j runner and verifies connectivity.
func ConnectGraph(cfg config.Config, logger zerolog.Logger) (*graphdb.Neo4jRunner, error) {
	runner, err := graphdb.NewNeo4jRunner(graphdb.Neo4jConfig{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
		MaxRows:  cfg.QueryMaxRows,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := runner.Ping(ctx); err != nil {
		_ = runner.Close(context.Background())
		return nil, fmt.Errorf("unable to connect to neo4j: %w", err)
	}

	return runner, nil
}
