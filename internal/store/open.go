package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options selects and tunes a backend.
type Options struct {
	Driver      string
	DatabaseURL string
	MaxConns    int32
	MaxQPS      float64
}

// Open builds the backend named by opts.Driver and applies the optional
// rate limit.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(opts.Driver) {
	case "postgres", "postgresql":
		if opts.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires store.database_url")
		}
		s, err = NewPostgres(ctx, opts.DatabaseURL, &PoolConfig{MaxConns: opts.MaxConns})
	case "sqlite", "":
		dsn := opts.DatabaseURL
		if dsn == "" {
			dsn = "fleet.db"
		}
		s, err = NewSQLite(dsn)
	case "memory":
		s = NewMemory()
	default:
		return nil, eris.Errorf("store: unknown driver %q (want postgres, sqlite or memory)", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	zap.L().Debug("store: opened", zap.String("driver", opts.Driver), zap.Float64("max_qps", opts.MaxQPS))
	return Limit(s, opts.MaxQPS), nil
}
