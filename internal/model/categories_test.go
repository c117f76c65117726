package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorySet(t *testing.T) {
	set := NewCategorySet([]string{" Transport", "Groceries", "", "Transport", "Uncategorized"})

	assert.Equal(t, []string{Uncategorized, "Groceries", "Transport"}, set.Names())
	assert.True(t, set.Contains("Groceries"))
	assert.True(t, set.Contains(Uncategorized))
	assert.False(t, set.Contains("Food"))

	assert.Equal(t, "Transport", set.Coerce(" Transport "))
	assert.Equal(t, Uncategorized, set.Coerce("Food"))
	assert.Equal(t, Uncategorized, set.Coerce(""))
}

func TestCategorySet_Empty(t *testing.T) {
	set := NewCategorySet(nil)
	assert.Equal(t, []string{Uncategorized}, set.Names())
}
