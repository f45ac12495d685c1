// Package loader runs the startup pipeline that fills the offline catalog
// from the backend. Steps run strictly one after another, each awaited
// before the next starts, because later steps derive from earlier ones:
// products need the category tree, registers need journals, draft
// restoration needs everything.
package loader

import (
	"context"
	"fmt"

	"github.com/vileopratama/vitech/internal/localstore"
	"github.com/vileopratama/vitech/internal/order"
	"github.com/vileopratama/vitech/pkg/types"
)

// Feed supplies backend records to the loading steps. The since argument
// on incremental families carries the stale-write high-water mark, letting
// the backend skip records the catalog already holds.
type Feed interface {
	Currency(ctx context.Context) (types.Currency, error)
	Units(ctx context.Context) ([]types.Unit, error)
	Taxes(ctx context.Context) ([]types.Tax, error)
	Categories(ctx context.Context) ([]types.Category, error)
	Products(ctx context.Context) ([]types.Product, error)
	Packagings(ctx context.Context) ([]types.Packaging, error)
	Partners(ctx context.Context, since string) ([]types.Partner, error)
	FiscalPositions(ctx context.Context) ([]types.FiscalPosition, error)
	Journals(ctx context.Context) ([]types.Journal, error)
	Registers(ctx context.Context) ([]types.CashRegister, error)
	Orders(ctx context.Context, since string) ([]types.OrderSummary, error)
	OrderLines(ctx context.Context, since string) ([]types.OrderLineSummary, error)
}

// Context is the mutable state the pipeline builds up.
type Context struct {
	Catalog *order.Catalog
	Session *order.Session

	// Orders and Checkout are the draft/settled vaults; Restored
	// collects the draft orders brought back from disk.
	Orders   *localstore.OrderStore
	Checkout *localstore.OrderStore
	Restored []*order.Order
}

// Step is one named unit of the pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context, lc *Context, feed Feed) error
}

// Pipeline is an ordered list of steps.
type Pipeline struct {
	steps []Step
}

// NewPipeline builds a pipeline from the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: append([]Step(nil), steps...)}
}

func (p *Pipeline) indexOf(name string) int {
	for i, s := range p.steps {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// InsertBefore adds a step in front of the named one. Returns ErrNotFound
// when no step has that name.
func (p *Pipeline) InsertBefore(name string, step Step) error {
	at := p.indexOf(name)
	if at < 0 {
		return types.ErrNotFound
	}
	p.steps = append(p.steps[:at], append([]Step{step}, p.steps[at:]...)...)
	return nil
}

// InsertAfter adds a step right behind the named one.
func (p *Pipeline) InsertAfter(name string, step Step) error {
	at := p.indexOf(name)
	if at < 0 {
		return types.ErrNotFound
	}
	p.steps = append(p.steps[:at+1], append([]Step{step}, p.steps[at+1:]...)...)
	return nil
}

// Steps returns the step names in run order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name)
	}
	return names
}

// Run executes the steps in order, stopping at the first failure.
func (p *Pipeline) Run(ctx context.Context, lc *Context, feed Feed) error {
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Run(ctx, lc, feed); err != nil {
			return fmt.Errorf("load %s: %w", s.Name, err)
		}
	}
	return nil
}
