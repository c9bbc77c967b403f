package rolereq

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Reconciler finishes approvals whose role change was recorded on the
// request but never made it to the user document.
type Reconciler struct {
	store    Store
	interval time.Duration
	log      logrus.FieldLogger
}

func NewReconciler(store Store, interval time.Duration, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{
		store:    store,
		interval: interval,
		log:      log.WithField("component", "role-reconciler"),
	}
}

// Run sweeps once per interval until ctx is done. A non-positive interval
// disables the job.
func (rc *Reconciler) Run(ctx context.Context) {
	if rc.interval <= 0 {
		rc.log.Info("disabled")
		return
	}

	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rc.Sweep(ctx); err != nil && ctx.Err() == nil {
				rc.log.WithError(err).Warn("sweep failed")
			}
		}
	}
}

// Sweep applies every pending role change and returns how many succeeded.
// One failing request does not stop the others.
func (rc *Reconciler) Sweep(ctx context.Context) (int, error) {
	pending, err := rc.store.Unapplied(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for i := range pending {
		req := &pending[i]
		err := rc.store.ApplyRole(ctx, req)
		if errors.Is(err, ErrStaleApproval) {
			rc.log.WithField("role_request", req.ID.Hex()).Info("approval changed during sweep; retrying next time")
			continue
		}
		if err != nil {
			rc.log.WithError(err).WithField("role_request", req.ID.Hex()).Warn("apply role failed")
			continue
		}
		applied++
		rc.log.WithFields(logrus.Fields{
			"role_request": req.ID.Hex(),
			"email":        req.UserEmail,
			"role":         req.ApprovedRole,
		}).Info("role change reconciled")
	}
	return applied, nil
}
