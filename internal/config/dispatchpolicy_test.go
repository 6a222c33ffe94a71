package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatchPolicyValidation(t *testing.T) {
	require.NoError(t, validateDispatchPolicy(DispatchPolicy{MaxOpenPickups: 0}))
	require.NoError(t, validateDispatchPolicy(DefaultDispatchPolicy()))
	require.Error(t, validateDispatchPolicy(DispatchPolicy{MaxOpenPickups: -1}))
}

func TestStaticDispatchPolicy(t *testing.T) {
	holder := StaticDispatchPolicy(DispatchPolicy{MaxOpenPickups: 3})
	require.Equal(t, int64(3), holder.Get().MaxOpenPickups)
}
