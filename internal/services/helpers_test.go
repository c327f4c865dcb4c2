package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopit/backend/internal/auth/password"
	"github.com/shopit/backend/internal/auth/reset"
	"github.com/shopit/backend/internal/auth/service"
	"github.com/shopit/backend/internal/directory"
	"github.com/shopit/backend/internal/mail"
	"github.com/shopit/backend/internal/models"
	"github.com/shopit/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testFrontendURL = "http://shop.test"

// fakeSender records sent messages and fails when err is set
type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// lastSecret extracts the reset secret from the last sent reset email
func (f *fakeSender) lastSecret(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	text := f.sent[len(f.sent)-1].Text
	start := strings.Index(text, ResetPathPrefix)
	require.GreaterOrEqual(t, start, 0)
	rest := text[start+len(ResetPathPrefix):]
	return strings.Fields(rest)[0]
}

type testEnv struct {
	store   *testutil.MemStore
	users   *directory.Directory
	hasher  *password.Hasher
	tokens  *service.TokenGenerator
	sender  *fakeSender
	auth    *authService
	profile *profileService
	admin   *adminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := testutil.NewMemStore()
	hasher := password.NewHasher(bcrypt.MinCost)
	users := directory.New(store, hasher, logger)
	tokens := service.NewTokenGenerator("test-secret", time.Hour)
	sender := &fakeSender{}

	return &testEnv{
		store:   store,
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		sender:  sender,
		auth:    NewAuthService(users, hasher, tokens, reset.NewCodec(30*time.Minute), sender, logger, testFrontendURL+"/"),
		profile: NewProfileService(users, hasher, tokens, logger),
		admin:   NewAdminService(users, logger),
	}
}

func (e *testEnv) register(t *testing.T, name, email, pass string) *models.User {
	t.Helper()
	user, _, err := e.auth.Register(context.Background(), &models.RegisterRequest{Name: name, Email: email, Password: pass})
	require.NoError(t, err)
	return user
}

// failingDirectory wraps a directory and fails Update calls selected by failUpdate
type failingDirectory struct {
	UserDirectory
	failUpdate func(upd models.UserUpdate) bool
}

func (f *failingDirectory) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if f.failUpdate(upd) {
		return nil, errors.New("store unavailable")
	}
	return f.UserDirectory.Update(ctx, id, upd)
}

// interleavingDirectory runs afterResetLookup between a reset lookup and the update that follows it
type interleavingDirectory struct {
	UserDirectory
	afterResetLookup func()
}

func (d *interleavingDirectory) FindByResetHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	user, err := d.UserDirectory.FindByResetHash(ctx, hash, now)
	if err == nil {
		d.afterResetLookup()
	}
	return user, err
}
