package coach

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// sample calls fn n times concurrently and returns the successful results in sample
// order. Failed samples are logged and dropped; when every sample fails the combined
// failures are returned as an aggregate error.
func sample[T any](ctx context.Context, log logger.Logger, stage string, n int, fn func(context.Context) (T, error)) ([]T, error) {
	if n < 1 {
		n = 1
	}

	var (
		mu       sync.Mutex
		slots    = make([]*T, n)
		failures error
		g        errgroup.Group
	)
	for i := range n {
		g.Go(func() error {
			v, err := fn(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = multierror.Append(failures, err)
				log.Warn("Sample failed",
					logger.StageField(stage),
					logger.IntField("sample", i),
					logger.ErrorField(err))
				return nil
			}
			slots[i] = &v
			return nil
		})
	}
	_ = g.Wait()

	results := make([]T, 0, n)
	for _, v := range slots {
		if v != nil {
			results = append(results, *v)
		}
	}
	if len(results) == 0 {
		return nil, conversation.Aggregate(stage, n, failures)
	}
	return results, nil
}

// forkJoin runs every task concurrently and waits for all of them. Tasks are not
// cancelled when a sibling fails; their errors are combined.
func forkJoin(ctx context.Context, tasks ...func(context.Context) error) error {
	var (
		mu     sync.Mutex
		result error
		g      errgroup.Group
	)
	for _, task := range tasks {
		g.Go(func() error {
			if err := task(ctx); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return result
}
