package billing

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"eplayer/pkg/log"
)

const reconcileBatchSize = 50

// Reconciler replays journaled charges whose original ledger update
// failed. Scheduled on a cron so a temporarily unreachable server
// does not lose billing events.
type Reconciler struct {
	biller  *Biller
	journal Journal

	mu sync.Mutex
}

func NewReconciler(biller *Biller, journal Journal) *Reconciler {
	return &Reconciler{
		biller:  biller,
		journal: journal,
	}
}

// Schedule registers the reconciliation run on the given cron
func (r *Reconciler) Schedule(c *cron.Cron, expr string) error {
	_, err := c.AddFunc(expr, func() {
		if err := r.Flush(context.Background()); err != nil {
			log.Error("Billing reconciliation run failed: %v", err)
		}
	})
	return err
}

// Flush retries every pending charge once, deleting the ones that
// settle. Charges that fail again stay queued for the next run.
func (r *Reconciler) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.journal.Pending(ctx, reconcileBatchSize)
	if err != nil {
		return err
	}

	for _, charge := range pending {
		if err := r.biller.apply(ctx, charge); err != nil {
			log.Warn("Charge %d still failing, keeping it queued: %v", charge.ID, err)
			continue
		}
		if err := r.journal.Delete(ctx, charge.ID); err != nil {
			log.Error("Failed to delete settled charge %d: %v", charge.ID, err)
		}
	}

	return nil
}
