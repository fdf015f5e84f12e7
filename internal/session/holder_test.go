package session

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "klicks-agent/internal/common/errors"
	"klicks-agent/internal/common/logger"
	"klicks-agent/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubProfileAPI struct {
	user  *models.User
	err   error
	calls int
}

func (s *stubProfileAPI) CurrentUser(ctx context.Context, sess *models.Session) (*models.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func createTestHolder(t *testing.T, api ProfileAPI) (*Holder, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStoreFromClient(client)
	return NewHolder(api, store, logger.NewTestLogger(t)), mr
}

func createSession(token string) *models.Session {
	return &models.Session{
		Token: token,
		User:  &models.User{ID: 1, FirstName: "Ada", Email: "ada@x.com"},
	}
}

// ==========================
// Login / Logout persistence
// ==========================

func TestLogin_PersistsBothKeys(t *testing.T) {
	h, mr := createTestHolder(t, &stubProfileAPI{})

	require.NoError(t, h.Login(context.Background(), createSession("bearer-token")))

	token, err := mr.Get(KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", token)

	rawUser, err := mr.Get(KeyUser)
	require.NoError(t, err)
	var user models.User
	require.NoError(t, json.Unmarshal([]byte(rawUser), &user))
	assert.Equal(t, "ada@x.com", user.Email)

	assert.True(t, h.Current().Authenticated())
}

func TestLogin_RejectsTokenlessSession(t *testing.T) {
	h, _ := createTestHolder(t, &stubProfileAPI{})
	err := h.Login(context.Background(), &models.Session{})
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeAuthenticationError, stdErr.Code)
}

func TestLogout_ClearsStateAndStore(t *testing.T) {
	h, mr := createTestHolder(t, &stubProfileAPI{})
	require.NoError(t, h.Login(context.Background(), createSession("bearer-token")))

	require.NoError(t, h.Logout(context.Background()))

	assert.False(t, h.Current().Authenticated())
	assert.False(t, mr.Exists(KeyToken))
	assert.False(t, mr.Exists(KeyUser))
}

// ==========================
// Load
// ==========================

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		seed          func(mr *miniredis.Miniredis)
		expectedAuth  bool
		expectedEmail string
	}{
		{
			name:         "no stored keys means logged out",
			seed:         func(mr *miniredis.Miniredis) {},
			expectedAuth: false,
		},
		{
			name: "stored token and user restore the session",
			seed: func(mr *miniredis.Miniredis) {
				require.NoError(t, mr.Set(KeyToken, "bearer-token"))
				require.NoError(t, mr.Set(KeyUser, `{"id":1,"email":"ada@x.com"}`))
			},
			expectedAuth:  true,
			expectedEmail: "ada@x.com",
		},
		{
			name: "corrupt stored user is dropped, token kept",
			seed: func(mr *miniredis.Miniredis) {
				require.NoError(t, mr.Set(KeyToken, "bearer-token"))
				require.NoError(t, mr.Set(KeyUser, "{not-json"))
			},
			expectedAuth: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mr := createTestHolder(t, &stubProfileAPI{})
			tt.seed(mr)

			require.NoError(t, h.Load(context.Background()))

			sess := h.Current()
			assert.Equal(t, tt.expectedAuth, sess.Authenticated())
			if tt.expectedEmail != "" {
				require.NotNil(t, sess.User)
				assert.Equal(t, tt.expectedEmail, sess.User.Email)
			}
		})
	}
}

func TestLoad_StoreFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet(KeyToken).SetErr(fmt.Errorf("connection reset"))

	h := NewHolder(&stubProfileAPI{}, NewRedisStoreFromClient(client), logger.NewNoOpLogger())
	err := h.Load(context.Background())
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeSessionStoreFailed, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Profile refresh
// ==========================

func TestRefreshProfile_OverwritesUserOnSuccess(t *testing.T) {
	api := &stubProfileAPI{user: &models.User{ID: 1, FirstName: "Ada", LastName: "L", Email: "ada@x.com"}}
	h, mr := createTestHolder(t, api)
	require.NoError(t, h.Login(context.Background(), &models.Session{Token: "bearer-token"}))

	require.NoError(t, h.RefreshProfile(context.Background()))

	sess := h.Current()
	require.NotNil(t, sess.User)
	assert.Equal(t, "ada@x.com", sess.User.Email)
	assert.Equal(t, 1, api.calls)

	// The refreshed profile is mirrored to the store.
	rawUser, err := mr.Get(KeyUser)
	require.NoError(t, err)
	assert.Contains(t, rawUser, "ada@x.com")
}

func TestRefreshProfile_RejectedTokenClearsSessionAndStore(t *testing.T) {
	api := &stubProfileAPI{err: apperrors.NewAuthenticationError("token expired")}
	h, mr := createTestHolder(t, api)
	require.NoError(t, h.Login(context.Background(), createSession("stale-token")))

	err := h.RefreshProfile(context.Background())
	require.Error(t, err)

	// The stored token goes too: a rejected token must not resurrect the
	// session on the next load.
	assert.False(t, h.Current().Authenticated())
	assert.False(t, mr.Exists(KeyToken))
	assert.False(t, mr.Exists(KeyUser))
}

func TestRefreshProfile_TransientFailureKeepsSession(t *testing.T) {
	api := &stubProfileAPI{err: apperrors.NewNetworkFailureError(fmt.Errorf("timeout"))}
	h, mr := createTestHolder(t, api)
	require.NoError(t, h.Login(context.Background(), createSession("bearer-token")))

	err := h.RefreshProfile(context.Background())
	require.Error(t, err)

	assert.True(t, h.Current().Authenticated())
	assert.True(t, mr.Exists(KeyToken))
}

func TestRefreshProfile_NoTokenIsNoOp(t *testing.T) {
	api := &stubProfileAPI{}
	h, _ := createTestHolder(t, api)

	require.NoError(t, h.RefreshProfile(context.Background()))
	assert.Equal(t, 0, api.calls)
}
