package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name                  string
		total, page, pageSize int
		want                  Pagination
	}{
		{"first page", 25, 1, 10, Pagination{Total: 25, Page: 1, PerPageSize: 10, PageCount: 3}},
		{"defaults", 5, 0, 0, Pagination{Total: 5, Page: 1, PerPageSize: DefaultPageSize, PageCount: 1}},
		{"page size capped", 250, 2, 500, Pagination{Total: 250, Page: 2, PerPageSize: 100, PageCount: 3}},
		{"empty", 0, 1, 10, Pagination{Total: 0, Page: 1, PerPageSize: 10, PageCount: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPagination(tt.total, tt.page, tt.pageSize))
		})
	}
}

func TestBracketFileName(t *testing.T) {
	id := uuid.MustParse("6f1c2b9e-3a44-4c1e-9f55-0b7d2a1c8e10")
	assert.Equal(t, "spring-cup-2024-bracket.json", BracketFileName("Spring Cup 2024", id))
	assert.Equal(t, id.String()+"-bracket.json", BracketFileName("  ", id))
}
