package backup

import (
	"context"

	"github.com/hupe1980/haystack/internal/resource"
	"golang.org/x/sync/errgroup"
)

// runTransfers runs fns in parallel, holding one transfer slot of rc each.
// The first error cancels the rest.
func runTransfers(ctx context.Context, rc *resource.Controller, fns []func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		if err := rc.AcquireTransfer(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer rc.ReleaseTransfer()
			return fn(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
