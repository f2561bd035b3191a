package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	page, limit := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageLimit, limit)

	page, limit = NormalizePage(3, 25)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)
}

func TestNewPageMeta(t *testing.T) {
	meta := NewPageMeta(25, 2, 10)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNextPage)
	assert.True(t, meta.HasPreviousPage)

	meta = NewPageMeta(5, 1, 10)
	assert.Equal(t, 1, meta.TotalPages)
	assert.False(t, meta.HasNextPage)
	assert.False(t, meta.HasPreviousPage)

	meta = NewPageMeta(0, 1, 10)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNextPage)
}
