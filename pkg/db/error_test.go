package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	require.False(t, IsDuplicateKeyErr(nil))
	require.False(t, IsDuplicateKeyErr(errors.New("connection refused")))

	require.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	require.True(t, IsDuplicateKeyErr(fmt.Errorf("insert payment: %w", gorm.ErrDuplicatedKey)))
	require.True(t, IsDuplicateKeyErr(errors.New(`ERROR: duplicate key value violates unique constraint "payments_booking_idx" (SQLSTATE 23505)`)))
	require.True(t, IsDuplicateKeyErr(errors.New("Error 1062 (23000): Duplicate entry '42' for key 'payments.booking_id'")))
	require.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: payments.booking_id")))
}
