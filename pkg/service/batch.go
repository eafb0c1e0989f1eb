package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-shipyard/pkg/blueprint"
)

// AnalyzeBatch analyses blueprints concurrently. Reports come back in input
// order. The first failure cancels the remaining work and is returned with
// the index of the blueprint that caused it.
func (s *Service) AnalyzeBatch(ctx context.Context, bps []*blueprint.Blueprint, opts Options) ([]*Report, error) {
	reports := make([]*Report, len(bps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batch)
	for i, bp := range bps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.Analyze(gctx, bp, opts)
			if err != nil {
				return fmt.Errorf("blueprint %d: %w", i, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
