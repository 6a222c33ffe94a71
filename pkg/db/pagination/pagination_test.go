package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimitBounds(t *testing.T) {
	require.Equal(t, 20, Pagination{}.Limit())
	require.Equal(t, 20, Pagination{PageSize: -5}.Limit())
	require.Equal(t, 1, Pagination{PageSize: 1}.Limit())
	require.Equal(t, 100, Pagination{PageSize: 100}.Limit())
	require.Equal(t, 100, Pagination{PageSize: 5000}.Limit())
}

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "1992345678901248"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	require.Equal(t, "1992345678901248", cursor.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%not-base64%%%")
	require.Error(t, err)

	// Valid base64 but not a cursor payload.
	_, err = DecodeCursor("bm90LWpzb24=")
	require.Error(t, err)
}
