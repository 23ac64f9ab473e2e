package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/literag/internal/pkg/password"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := password.Hash("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)
	require.NoError(t, password.Compare(hash, "s3cret"))
	require.Error(t, password.Compare(hash, "wrong"))
}

func TestHashRejectsBadLength(t *testing.T) {
	_, err := password.Hash("")
	require.Error(t, err)
	_, err = password.Hash(strings.Repeat("x", 73))
	require.Error(t, err)
}
