package http

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var statementBuildGroup singleflight.Group

// singleflightBuild collapses concurrent builds of the same statement so a
// burst of identical requests hits the database once.
func singleflightBuild(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	resultChan := statementBuildGroup.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}
