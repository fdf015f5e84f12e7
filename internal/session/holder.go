package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	apperrors "klicks-agent/internal/common/errors"
	"klicks-agent/internal/common/logger"
	"klicks-agent/internal/common/metrics"
	"klicks-agent/internal/models"
)

// ProfileAPI is the slice of the backend client the holder needs.
type ProfileAPI interface {
	CurrentUser(ctx context.Context, sess *models.Session) (*models.User, error)
}

// Holder is the process-wide session state. Every change to user or token
// is mirrored to the store.
type Holder struct {
	api    ProfileAPI
	store  Store
	logger logger.Logger

	mu   sync.RWMutex
	sess models.Session
}

func NewHolder(api ProfileAPI, store Store, log logger.Logger) *Holder {
	return &Holder{
		api:    api,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "session"}),
	}
}

// Load initializes the session from the store. A missing token key means
// logged out; a stored user that fails to decode is dropped and re-resolved
// by the next profile refresh.
func (h *Holder) Load(ctx context.Context) error {
	token, err := h.store.Get(ctx, KeyToken)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.NewSessionStoreError(err)
	}

	var user *models.User
	raw, err := h.store.Get(ctx, KeyUser)
	if err == nil {
		var u models.User
		if jsonErr := json.Unmarshal([]byte(raw), &u); jsonErr == nil {
			user = &u
		} else {
			h.logger.WithError(jsonErr).Warn("stored user profile is corrupt, dropping", nil)
		}
	} else if !errors.Is(err, ErrKeyNotFound) {
		return apperrors.NewSessionStoreError(err)
	}

	h.mu.Lock()
	h.sess = models.Session{User: user, Token: token}
	h.mu.Unlock()
	return nil
}

// Login sets the session and persists both keys.
func (h *Holder) Login(ctx context.Context, sess *models.Session) error {
	if !sess.Authenticated() {
		return apperrors.NewAuthenticationError("session has no token")
	}
	if err := h.persist(ctx, sess); err != nil {
		return err
	}
	h.mu.Lock()
	h.sess = *sess
	h.mu.Unlock()
	return nil
}

// Logout clears the session and removes the persisted entries.
func (h *Holder) Logout(ctx context.Context) error {
	h.mu.Lock()
	h.sess = models.Session{}
	h.mu.Unlock()
	if err := h.store.Del(ctx, KeyUser, KeyToken); err != nil {
		return apperrors.NewSessionStoreError(err)
	}
	return nil
}

// Current returns a copy of the session for explicit threading through
// operations that need authorization.
func (h *Holder) Current() *models.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sess := h.sess
	if h.sess.User != nil {
		user := *h.sess.User
		sess.User = &user
	}
	return &sess
}

// RefreshProfile resolves the held token against the backend and overwrites
// the user on success. A rejected token clears both the in-memory session
// and the stored entries; a transient failure leaves the session alone.
func (h *Holder) RefreshProfile(ctx context.Context) error {
	sess := h.Current()
	if !sess.Authenticated() {
		return nil
	}

	user, err := h.api.CurrentUser(ctx, sess)
	if err != nil {
		if apperrors.IsRetryable(err) {
			return err
		}
		metrics.SessionRefreshFailures.Inc()
		h.logger.WithError(err).Warn("token failed profile resolution, clearing session", nil)
		if logoutErr := h.Logout(ctx); logoutErr != nil {
			return logoutErr
		}
		return err
	}

	h.mu.Lock()
	h.sess.User = user
	updated := h.sess
	h.mu.Unlock()
	return h.persist(ctx, &updated)
}

// StartRefresher runs the background profile refresh until ctx is done.
func (h *Holder) StartRefresher(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := h.RefreshProfile(ctx); err != nil {
					h.logger.WithError(err).Debug("profile refresh failed", nil)
				}
			}
		}
	}()
}

func (h *Holder) persist(ctx context.Context, sess *models.Session) error {
	if err := h.store.Set(ctx, KeyToken, sess.Token); err != nil {
		return apperrors.NewSessionStoreError(err)
	}
	if sess.User != nil {
		raw, err := json.Marshal(sess.User)
		if err != nil {
			return apperrors.NewSessionStoreError(err)
		}
		if err := h.store.Set(ctx, KeyUser, string(raw)); err != nil {
			return apperrors.NewSessionStoreError(err)
		}
	}
	return nil
}
