package tagcodec

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// OpenAll opens every buffer concurrently, returning sessions in input
// order. On any failure the already-opened sessions are closed and the
// first error is returned.
func OpenAll(ctx context.Context, buffers [][]byte, opts ...Option) ([]*Session, error) {
	sessions := make([]*Session, len(buffers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, buf := range buffers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := Open(buf, opts...)
			if err != nil {
				return err
			}
			sessions[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, s := range sessions {
			if s != nil {
				s.Close()
			}
		}
		return nil, err
	}
	return sessions, nil
}
