package merge

import (
	"context"

	"github.com/hoshipkg/hoshi/pkg/catalog"
	"github.com/hoshipkg/hoshi/pkg/progress"
)

// Confirmer asks whether the planned artifacts should be merged.
type Confirmer interface {
	Confirm(ctx context.Context, plan *Plan) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, plan *Plan) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, plan *Plan) (bool, error) { return f(ctx, plan) }

// AutoConfirm accepts every plan.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, *Plan) (bool, error) { return true, nil }

// Display renders download progress. Start is called once before the first
// download, Track once per artifact, and Stop after every download has
// finished.
type Display interface {
	Start(artifacts []catalog.Artifact)
	Track(a catalog.Artifact) progress.Observer
	Stop()
}

// NopDisplay renders nothing.
type NopDisplay struct{}

func (NopDisplay) Start([]catalog.Artifact) {}
func (NopDisplay) Track(catalog.Artifact) progress.Observer { return progress.NopObserver{} }
func (NopDisplay) Stop() {}
