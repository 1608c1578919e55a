package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/linemk/damio-storefront/internal/backend"
	"github.com/linemk/damio-storefront/internal/domain/models"
	"github.com/linemk/damio-storefront/internal/lib/logger"
	"github.com/linemk/damio-storefront/internal/service"
	"github.com/linemk/damio-storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSID = "0f8fad5b-d9cb-469f-a165-70867728950e"

type cartFixture struct {
	store   *storage.MemorySessionStorage
	backend *fakeBackend
	creds   *service.Credentials
}

func newCartFixture() *cartFixture {
	store := storage.NewMemorySessionStorage()
	return &cartFixture{
		store:   store,
		backend: newFakeBackend(),
		creds:   service.NewCredentials(logger.Discard(), store),
	}
}

func (f *cartFixture) service() interface {
	service.CartService
	Wait()
} {
	return service.NewCartService(logger.Discard(), f.store, f.creds, f.backend, time.Second)
}

func (f *cartFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.creds.SetToken(context.Background(), testSID, "user-token"))
}

func TestCartService_GuestAddRemove(t *testing.T) {
	f := newCartFixture()
	svc := f.service()
	ctx := context.Background()

	_, err := svc.Add(ctx, testSID, 5, nil)
	require.NoError(t, err)
	_, err = svc.Add(ctx, testSID, 5, nil)
	require.NoError(t, err)
	cart, err := svc.Remove(ctx, testSID, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, cart.Quantity(5))
	// гость не обращается к бэкенду
	assert.Equal(t, 0, f.backend.count("addtocart"))
	assert.Equal(t, 0, f.backend.count("removefromcart"))
}

func TestCartService_GuestCartSurvivesReload(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	_, err := f.service().Add(ctx, testSID, 7, &models.Variant{Size: "M", Color: "red"})
	require.NoError(t, err)

	// новый экземпляр сервиса поверх того же хранилища
	cart, err := f.service().Load(ctx, testSID)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Quantity(7))
	require.NotNil(t, cart[7].Variant)
	assert.Equal(t, "M", cart[7].Variant.Size)
}

func TestCartService_RemoveMissingIsNoop(t *testing.T) {
	f := newCartFixture()
	f.login(t)
	svc := f.service()

	cart, err := svc.Remove(context.Background(), testSID, 42)
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, 0, cart.Quantity(42))
	assert.Equal(t, 0, f.backend.count("removefromcart"))
}

func TestCartService_CorruptGuestCartStartsEmpty(t *testing.T) {
	f := newCartFixture()
	f.store.SetRaw(testSID, storage.KeyCart, []byte("{not json"))

	cart, err := f.service().Load(context.Background(), testSID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines())
}

func TestCartService_AuthenticatedLoadCachesServerCart(t *testing.T) {
	f := newCartFixture()
	f.login(t)
	f.backend.serverCart = models.Cart{3: {ProductID: 3, Quantity: 2}}
	ctx := context.Background()

	cart, err := f.service().Load(ctx, testSID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity(3))

	var cached models.Cart
	require.NoError(t, f.store.Get(ctx, testSID, storage.KeyServerCart, &cached))
	assert.Equal(t, 2, cached.Quantity(3))
}

func TestCartService_BackendDownFallsBackToCache(t *testing.T) {
	f := newCartFixture()
	f.login(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, testSID, storage.KeyServerCart, models.Cart{9: {ProductID: 9, Quantity: 4}}))
	f.backend.getCartErr = &backend.StatusError{Code: 503}

	cart, err := f.service().Load(ctx, testSID)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Quantity(9))
}

func TestCartService_UnauthorizedWipesCredentials(t *testing.T) {
	f := newCartFixture()
	f.login(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, testSID, storage.KeyCart, models.Cart{1: {ProductID: 1, Quantity: 1}}))
	f.backend.getCartErr = backend.ErrUnauthorized

	cart, err := f.service().Load(ctx, testSID)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.Equal(t, 1, cart.Quantity(1))

	token, err := f.creds.Token(ctx, testSID)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestCartService_AuthenticatedAddIsOptimistic(t *testing.T) {
	f := newCartFixture()
	f.login(t)
	f.backend.serverCart = models.Cart{5: {ProductID: 5, Quantity: 1}}
	svc := f.service()

	cart, err := svc.Add(context.Background(), testSID, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity(5))

	svc.Wait()
	assert.Equal(t, 1, f.backend.count("addtocart"))
	assert.Equal(t, 2, f.backend.serverCart.Quantity(5))
}

func TestCartService_BackgroundFailureKeepsLocalState(t *testing.T) {
	f := newCartFixture()
	f.login(t)
	f.backend.addErr = &backend.StatusError{Code: 500}
	svc := f.service()
	ctx := context.Background()

	cart, err := svc.Add(ctx, testSID, 5, nil)
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, 1, cart.Quantity(5))

	var cached models.Cart
	require.NoError(t, f.store.Get(ctx, testSID, storage.KeyServerCart, &cached))
	assert.Equal(t, 1, cached.Quantity(5))
}

func TestCartService_BackgroundUnauthorizedWipesCredentials(t *testing.T) {
	f := newCartFixture()
	f.login(t)
	f.backend.addErr = backend.ErrUnauthorized
	svc := f.service()
	ctx := context.Background()

	_, err := svc.Add(ctx, testSID, 5, nil)
	require.NoError(t, err)
	svc.Wait()

	token, err := f.creds.Token(ctx, testSID)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestCartService_MergeReplaysGuestLines(t *testing.T) {
	f := newCartFixture()
	svc := f.service()
	ctx := context.Background()

	_, err := svc.Add(ctx, testSID, 3, nil)
	require.NoError(t, err)
	_, err = svc.Add(ctx, testSID, 3, nil)
	require.NoError(t, err)
	_, err = svc.Add(ctx, testSID, 7, &models.Variant{Age: "4y"})
	require.NoError(t, err)

	f.login(t)
	require.NoError(t, svc.Merge(ctx, testSID))

	assert.Equal(t, []int64{3, 3, 7}, f.backend.added)
	err = f.store.Get(ctx, testSID, storage.KeyCart, &models.Cart{})
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	cart, err := svc.Load(ctx, testSID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity(3))
	assert.Equal(t, "4y", cart[7].Variant.Age)
}

func TestCartService_MergeFailureKeepsGuestCart(t *testing.T) {
	f := newCartFixture()
	svc := f.service()
	ctx := context.Background()

	_, err := svc.Add(ctx, testSID, 3, nil)
	require.NoError(t, err)
	f.login(t)
	f.backend.addErr = &backend.StatusError{Code: 500}

	assert.Error(t, svc.Merge(ctx, testSID))

	var guest models.Cart
	require.NoError(t, f.store.Get(ctx, testSID, storage.KeyCart, &guest))
	assert.Equal(t, 1, guest.Quantity(3))
}

func TestCartService_MergeRetryDoesNotDuplicateUnits(t *testing.T) {
	f := newCartFixture()
	svc := f.service()
	ctx := context.Background()

	for _, id := range []int64{3, 3, 7} {
		_, err := svc.Add(ctx, testSID, id, nil)
		require.NoError(t, err)
	}
	f.login(t)
	f.backend.failAddAt = 3

	require.Error(t, svc.Merge(ctx, testSID))

	var guest models.Cart
	require.NoError(t, f.store.Get(ctx, testSID, storage.KeyCart, &guest))
	assert.Equal(t, 0, guest.Quantity(3))
	assert.Equal(t, 1, guest.Quantity(7))

	require.NoError(t, svc.Merge(ctx, testSID))

	cart, err := svc.Load(ctx, testSID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity(3))
	assert.Equal(t, 1, cart.Quantity(7))
}

func TestCartService_Clear(t *testing.T) {
	f := newCartFixture()
	svc := f.service()
	ctx := context.Background()

	_, err := svc.Add(ctx, testSID, 3, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, testSID))

	cart, err := svc.Load(ctx, testSID)
	require.NoError(t, err)
	assert.Empty(t, cart)
}
