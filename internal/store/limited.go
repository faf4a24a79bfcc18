package store

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Limited wraps a Store and throttles every call through a token bucket.
type Limited struct {
	next    Store
	limiter *rate.Limiter
}

// Limit returns s throttled to qps calls per second. qps <= 0 returns s
// unchanged.
func Limit(s Store, qps float64) Store {
	if qps <= 0 {
		return s
	}
	burst := int(qps)
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: s, limiter: rate.NewLimiter(rate.Limit(qps), burst)}
}

func (l *Limited) wait(ctx context.Context) error {
	return eris.Wrap(l.limiter.Wait(ctx), "store: rate limit")
}

func (l *Limited) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Query(ctx, q)
}

func (l *Limited) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Insert(ctx, table, rows)
}

func (l *Limited) Update(ctx context.Context, table string, filters []Filter, patch Row) (int64, error) {
	if err := l.wait(ctx); err != nil {
		return 0, err
	}
	return l.next.Update(ctx, table, filters, patch)
}

func (l *Limited) Delete(ctx context.Context, table string, filters []Filter) (int64, error) {
	if err := l.wait(ctx); err != nil {
		return 0, err
	}
	return l.next.Delete(ctx, table, filters)
}

func (l *Limited) Migrate(ctx context.Context) error { return l.next.Migrate(ctx) }

func (l *Limited) Close() error { return l.next.Close() }
