package dto

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationRequest_PageSize(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: DefaultLimit},
		{limit: -5, want: DefaultLimit},
		{limit: 1, want: 1},
		{limit: MaxLimit, want: MaxLimit},
		{limit: MaxLimit + 1, want: MaxLimit},
	}

	for _, tt := range tests {
		p := PaginationRequest{Limit: tt.limit}
		assert.Equal(t, tt.want, p.PageSize(), "limit %d", tt.limit)
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2024, 1, 1, 12, 30, 0, 500, time.UTC), ID: "q-1"}

	token := in.Encode()
	require.NotEmpty(t, token)
	assert.NotContains(t, token, "=")

	out, err := ParseCursor(token)
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursor(t *testing.T) {
	c, err := ParseCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)

	for _, token := range []string{
		"!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"id":"q-1"}`)),
	} {
		_, err := ParseCursor(token)
		require.ErrorIs(t, err, ErrInvalidCursor, token)
	}
}
