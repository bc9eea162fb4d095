package notion

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jasoncui/notion-blog/internal/models"
)

// ChildFetcher is the part of the client the loader depends on.
type ChildFetcher interface {
	GetBlockChildren(ctx context.Context, blockID string) ([]*models.Block, error)
}

// Loader assembles a document's block tree.
type Loader struct {
	fetcher     ChildFetcher
	concurrency int
}

// NewLoader creates a Loader around fetcher.
func NewLoader(fetcher ChildFetcher) *Loader {
	return &Loader{fetcher: fetcher, concurrency: 4}
}

// Load fetches the document's top-level blocks and resolves one extra level
// of children concurrently. Deeper nesting stays unresolved; callers that
// render recursively hydrate it on demand via Hydrate. The returned root is
// a synthetic container whose Children are the document's top-level blocks.
func (l *Loader) Load(ctx context.Context, documentID string) (*models.Block, error) {
	blocks, err := l.fetcher.GetBlockChildren(ctx, documentID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, b := range blocks {
		if !b.HasChildren || b.Children != nil {
			continue
		}
		b := b
		g.Go(func() error {
			children, err := l.fetcher.GetBlockChildren(gctx, b.ID)
			if err != nil {
				return err
			}
			b.Children = children
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.Block{
		ID:          documentID,
		HasChildren: true,
		Children:    blocks,
	}, nil
}

// Hydrate walks the tree and fetches children for every block flagged
// HasChildren whose children are still missing, recursively. A block with
// HasChildren and unresolved children must never reach the renderer as a
// leaf.
func (l *Loader) Hydrate(ctx context.Context, root *models.Block) error {
	for _, b := range root.Children {
		if b.HasChildren && b.Children == nil {
			children, err := l.fetcher.GetBlockChildren(ctx, b.ID)
			if err != nil {
				return err
			}
			b.Children = children
		}
		if len(b.Children) > 0 {
			if err := l.Hydrate(ctx, b); err != nil {
				return err
			}
		}
	}
	return nil
}
