package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("10000000000000")
	require.NoError(t, err)
	require.Equal(t, "10000000000000", v.String())

	v, err = ParseAmount("-500")
	require.NoError(t, err)
	require.Equal(t, int64(-500), v.Int64())

	v, err = ParseAmount("")
	require.NoError(t, err)
	require.Zero(t, v.Sign())

	_, err = ParseAmount("12.5")
	require.Error(t, err)
	_, err = ParseAmount("abc")
	require.Error(t, err)
}

func TestExceedsSafeInteger(t *testing.T) {
	require.False(t, ExceedsSafeInteger(big.NewInt(1<<53-1)))
	require.True(t, ExceedsSafeInteger(new(big.Int).Lsh(big.NewInt(1), 53)))

	neg := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 60))
	require.True(t, ExceedsSafeInteger(neg))
}
