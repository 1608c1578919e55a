package service_test

import (
	"context"
	"testing"

	"github.com/linemk/damio-storefront/internal/backend"
	"github.com/linemk/damio-storefront/internal/lib/logger"
	"github.com/linemk/damio-storefront/internal/service"
	"github.com/linemk/damio-storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(f *cartFixture) *service.AuthService {
	return service.NewAuthService(logger.Discard(), f.creds, f.service(), f.backend)
}

func TestAuthService_LoginMergesGuestCart(t *testing.T) {
	f := newCartFixture()
	f.backend.token = "fresh-token"
	ctx := context.Background()

	_, err := f.service().Add(ctx, testSID, 3, nil)
	require.NoError(t, err)

	require.NoError(t, newAuthService(f).Login(ctx, testSID, "amina@example.com", "secret"))

	token, err := f.creds.Token(ctx, testSID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, []int64{3}, f.backend.added)
}

func TestAuthService_LoginRejected(t *testing.T) {
	f := newCartFixture()
	f.backend.loginErr = &backend.BackendError{Message: "wrong password"}
	ctx := context.Background()

	err := newAuthService(f).Login(ctx, testSID, "amina@example.com", "bad")
	assert.Error(t, err)

	token, err := f.creds.Token(ctx, testSID)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAuthService_MergeFailureDoesNotBlockLogin(t *testing.T) {
	f := newCartFixture()
	f.backend.token = "fresh-token"
	f.backend.addErr = &backend.StatusError{Code: 500}
	ctx := context.Background()

	_, err := f.service().Add(ctx, testSID, 3, nil)
	require.NoError(t, err)

	require.NoError(t, newAuthService(f).Login(ctx, testSID, "amina@example.com", "secret"))

	var guest map[string]any
	assert.NoError(t, f.store.Get(ctx, testSID, storage.KeyCart, &guest))
}

func TestAuthService_SignupAndLogout(t *testing.T) {
	f := newCartFixture()
	f.backend.token = "new-user-token"
	ctx := context.Background()
	auth := newAuthService(f)

	require.NoError(t, auth.Signup(ctx, testSID, "amina", "amina@example.com", "secret"))
	require.NoError(t, f.store.Set(ctx, testSID, storage.KeyServerCart, map[string]any{}))

	require.NoError(t, auth.Logout(ctx, testSID))

	token, err := f.creds.Token(ctx, testSID)
	require.NoError(t, err)
	assert.Empty(t, token)
	err = f.store.Get(ctx, testSID, storage.KeyServerCart, &map[string]any{})
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestContactService_Submit(t *testing.T) {
	fb := newFakeBackend()
	svc := service.NewContactService(logger.Discard(), fb)

	err := svc.Submit(context.Background(), service.ContactForm{
		Name:    "Amina",
		Email:   "amina@example.com",
		Message: "Avez-vous la robe en taille 6 ans ?",
	})
	require.NoError(t, err)
	require.Len(t, fb.contacts, 1)
	assert.Equal(t, "Amina", fb.contacts[0].Name)
}

func TestContactService_InvalidEmail(t *testing.T) {
	fb := newFakeBackend()
	svc := service.NewContactService(logger.Discard(), fb)

	err := svc.Submit(context.Background(), service.ContactForm{
		Name:    "Amina",
		Email:   "not-an-email",
		Message: "hello",
	})
	assert.ErrorIs(t, err, service.ErrInvalidForm)
	assert.Empty(t, fb.contacts)
}
