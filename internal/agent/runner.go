package agent

import (
	"context"

	"github.com/dmitrijs2005/sketchsync/internal/logging"
	"github.com/dmitrijs2005/sketchsync/internal/models"
	"github.com/dmitrijs2005/sketchsync/internal/syncer"
)

type docUpdater interface {
	Update(ctx context.Context, doc *models.Document) error
}

// persistingRunner saves a document after every successful sync run, so
// record IDs and sync timestamps survive restarts. A failed save does not
// fail the run: the sync itself succeeded and the next one saves again.
type persistingRunner struct {
	next syncer.Runner
	repo docUpdater
	log  logging.Logger
}

func (r *persistingRunner) Run(ctx context.Context, doc *models.Document) error {
	if err := r.next.Run(ctx, doc); err != nil {
		return err
	}
	if err := r.repo.Update(ctx, doc); err != nil {
		r.log.Warn(ctx, "failed to persist sync result", "doc", doc.ID, "error", err.Error())
	}
	return nil
}
