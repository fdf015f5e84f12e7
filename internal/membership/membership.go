// Package membership maintains the two disjoint views (active members,
// pending requests) over a klick's flat member list.
package membership

import (
	"context"
	"sync"

	"klicks-agent/internal/common/logger"
	"klicks-agent/internal/models"
)

// MemberAPI is the slice of the backend client this component needs.
type MemberAPI interface {
	Members(ctx context.Context, sess *models.Session, klickID int) ([]models.Member, error)
	ApproveMember(ctx context.Context, sess *models.Session, klickID, memberID int) error
	DeactivateMember(ctx context.Context, sess *models.Session, klickID, memberID int) error
	PromoteMember(ctx context.Context, sess *models.Session, klickID, memberID int) error
	DeclineMember(ctx context.Context, sess *models.Session, klickID, memberID int) error
}

// Partition splits a member list into active (approved and not deactivated)
// and pending (everything else). The two slices are disjoint and exhaustive
// over the input by construction.
func Partition(members []models.Member) (active, pending []models.Member) {
	for _, m := range members {
		if m.IsActive() {
			active = append(active, m)
		} else {
			pending = append(pending, m)
		}
	}
	return active, pending
}

// Reconciler holds the partitioned views for one klick and keeps them
// consistent after mutating actions with a full refetch-and-repartition.
type Reconciler struct {
	api     MemberAPI
	klickID int
	logger  logger.Logger

	mu      sync.Mutex
	active  []models.Member
	pending []models.Member

	// Refresh epochs: a response from an older fetch never overwrites
	// state applied by a newer one.
	fetchEpoch   uint64
	appliedEpoch uint64
}

func New(api MemberAPI, klickID int, log logger.Logger) *Reconciler {
	return &Reconciler{
		api:     api,
		klickID: klickID,
		logger:  log.WithFields(map[string]interface{}{"component": "membership", "klickId": klickID}),
	}
}

// Refresh refetches the member list and repartitions. Stale responses
// (an older fetch resolving after a newer one has been applied) are
// discarded instead of overwriting newer state.
func (r *Reconciler) Refresh(ctx context.Context, sess *models.Session) error {
	r.mu.Lock()
	r.fetchEpoch++
	epoch := r.fetchEpoch
	r.mu.Unlock()

	members, err := r.api.Members(ctx, sess, r.klickID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch < r.appliedEpoch {
		r.logger.Debug("discarding stale member list", map[string]interface{}{
			"epoch":   epoch,
			"applied": r.appliedEpoch,
		})
		return nil
	}
	r.appliedEpoch = epoch
	r.active, r.pending = Partition(members)
	return nil
}

// Active returns a copy of the active member view.
func (r *Reconciler) Active() []models.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Member(nil), r.active...)
}

// Pending returns a copy of the pending/deactivated member view.
func (r *Reconciler) Pending() []models.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Member(nil), r.pending...)
}

// Approve moves a pending member to approved, then refreshes both views.
func (r *Reconciler) Approve(ctx context.Context, sess *models.Session, memberID int) error {
	if err := r.api.ApproveMember(ctx, sess, r.klickID, memberID); err != nil {
		return err
	}
	return r.Refresh(ctx, sess)
}

// Deactivate removes a member from the active view, then refreshes.
func (r *Reconciler) Deactivate(ctx context.Context, sess *models.Session, memberID int) error {
	if err := r.api.DeactivateMember(ctx, sess, r.klickID, memberID); err != nil {
		return err
	}
	return r.Refresh(ctx, sess)
}

// PromoteToAdmin grants admin to a member, then refreshes.
func (r *Reconciler) PromoteToAdmin(ctx context.Context, sess *models.Session, memberID int) error {
	if err := r.api.PromoteMember(ctx, sess, r.klickID, memberID); err != nil {
		return err
	}
	return r.Refresh(ctx, sess)
}

// Decline rejects a pending join request. The decline is a real backend
// transition (pending -> declined); the member leaves the pending view only
// after the backend confirms it, never by a refetch happening to exclude it.
func (r *Reconciler) Decline(ctx context.Context, sess *models.Session, memberID int) error {
	if err := r.api.DeclineMember(ctx, sess, r.klickID, memberID); err != nil {
		return err
	}
	return r.Refresh(ctx, sess)
}
