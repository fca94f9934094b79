package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Backend names accepted by Open
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Options selects and configures a backend
type Options struct {
	Backend     string
	Dir         string
	SQLitePath  string
	PostgresDSN string
	Redis       RedisOptions
	Mongo       MongoOptions
}

// Open creates a Store based on the backend name.
//
// Supported backends:
//
//	"json"     - one JSON file per collection in Dir (default)
//	"sqlite"   - SQLite database at SQLitePath (Dir/storefront.db if empty)
//	"postgres" - PostgreSQL via PostgresDSN
//	"redis"    - one key per collection
//	"mongo"    - one document per collection
//	"memory"   - in-memory (ephemeral, for testing)
func Open(ctx context.Context, opts Options, log logrus.FieldLogger) (Store, error) {
	switch opts.Backend {
	case BackendJSON, "":
		return NewJSONFileStore(opts.Dir, log)
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.Dir, "storefront.db")
		}
		return NewSQLiteStore(path, log)
	case BackendPostgres:
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN")
		}
		return NewPostgresStore(opts.PostgresDSN, log)
	case BackendRedis:
		return NewRedisStore(ctx, opts.Redis, log)
	case BackendMongo:
		if opts.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo backend requires a URI")
		}
		return NewMongoStore(ctx, opts.Mongo, log)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, postgres, redis, mongo, memory)", opts.Backend)
	}
}
