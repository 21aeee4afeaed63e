package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/cypher-quest-api/internal/catalog"
	"github.com/noah-isme/cypher-quest-api/pkg/graphdb"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	registry, err := catalog.Load()
	require.NoError(t, err)
	return registry
}

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// fakeRunner answers node counts from nodes and every other read with result.
type fakeRunner struct {
	mu         sync.Mutex
	nodes      int64
	seedNodes  int64
	result     graphdb.Result
	err        error
	statements []graphdb.Statement
}

func (f *fakeRunner) Run(ctx context.Context, stmt graphdb.Statement) (graphdb.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, stmt)

	if f.err != nil {
		return graphdb.Result{}, f.err
	}
	if stmt.Write {
		f.nodes += f.seedNodes
		return graphdb.Result{Keys: []string{"seeded"}, Rows: [][]any{{int64(1)}}}, nil
	}
	if stmt.Cypher == nodeCountCypher {
		return graphdb.Result{Keys: []string{"cnt"}, Rows: [][]any{{f.nodes}}}, nil
	}
	return f.result, nil
}

func (f *fakeRunner) Ping(ctx context.Context) error {
	return f.err
}

func (f *fakeRunner) count(cypher string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, stmt := range f.statements {
		if stmt.Cypher == cypher {
			total++
		}
	}
	return total
}

func (f *fakeRunner) last() graphdb.Statement {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statements) == 0 {
		return graphdb.Statement{}
	}
	return f.statements[len(f.statements)-1]
}

type staticSeed bool

func (s staticSeed) IsSeeded(ctx context.Context) (bool, error) {
	return bool(s), nil
}

func testDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))
	return db
}
