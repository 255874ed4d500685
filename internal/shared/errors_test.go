package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassErrorUnwrapsToClass(t *testing.T) {
	errMissing := NewError(ErrNotFound, "inventory: product not found")
	wrapped := fmt.Errorf("load: %w", errMissing)
	require.ErrorIs(t, wrapped, ErrNotFound)
	require.ErrorIs(t, wrapped, errMissing)
	require.NotErrorIs(t, wrapped, ErrConflict)
	require.Equal(t, "inventory: product not found", errMissing.Error())
}

func TestUserSafeMessage(t *testing.T) {
	require.Equal(t, "", UserSafeMessage(nil))
	require.Equal(t, "bad qty", UserSafeMessage(NewError(ErrValidation, "bad qty")))
	require.Equal(t, "internal error", UserSafeMessage(errors.New("dial tcp: refused")))
}
