package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	passstore "github.com/bnema/sessionkeys/internal/adapters/secrets/pass"
	"github.com/bnema/sessionkeys/internal/domain"
	portmocks "github.com/bnema/sessionkeys/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sessionKeyRef = "sessions/user-1/8453"

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, sessionKeyRef).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), sessionKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryMissesTheKey(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, sessionKeyRef).Return("", fmt.Errorf("pass: %w", domain.ErrSecretNotFound)).Once()
	fallback.EXPECT().Get(mock.Anything, sessionKeyRef).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), sessionKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetMissingEverywhereIsSecretNotFound(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, sessionKeyRef).Return("", domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, sessionKeyRef).Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), sessionKeyRef)
	assert.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, sessionKeyRef).Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, sessionKeyRef).Return("", domain.ErrSecretNotFound).Once()

	_, err := store.Get(context.Background(), sessionKeyRef)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "pass failed")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, sessionKeyRef, "secret").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, sessionKeyRef, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), sessionKeyRef, "secret"))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, sessionKeyRef, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), sessionKeyRef, "secret"))
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, sessionKeyRef).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, sessionKeyRef).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), sessionKeyRef))
}

func TestStoreDeleteReportsFallbackFailure(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, sessionKeyRef).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, sessionKeyRef).Return(errors.New("disk full")).Once()

	err := store.Delete(context.Background(), sessionKeyRef)
	assert.ErrorContains(t, err, "fallback backend delete failed")
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, sessionKeyRef).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), sessionKeyRef)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockSecretStore(t))
	assert.ErrorIs(t, err, errNilPrimaryStore)
	_, err = NewStoreChecked(portmocks.NewMockSecretStore(t), nil)
	assert.ErrorIs(t, err, errNilFallbackStore)
}

func TestStoreTreatsMissingPassAsAbsent(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, sessionKeyRef).Return("", passstore.ErrUnavailable).Once()
	fallback.EXPECT().Get(mock.Anything, sessionKeyRef).Return("", fmt.Errorf("file: %w", domain.ErrSecretNotFound)).Once()
	primary.EXPECT().Delete(mock.Anything, sessionKeyRef).Return(passstore.ErrUnavailable).Once()
	fallback.EXPECT().Delete(mock.Anything, sessionKeyRef).Return(nil).Once()

	_, err := store.Get(context.Background(), sessionKeyRef)
	assert.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.NoError(t, store.Delete(context.Background(), sessionKeyRef))
}
