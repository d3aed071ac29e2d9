package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	values := map[string]string{"tenant_name": "Ali", "rent": "1200"}

	assert.Equal(t, "Tenant Ali pays 1200.", Substitute("Tenant {{tenant_name}} pays {{rent}}.", values))
	assert.Equal(t, "Deposit: .", Substitute("Deposit: {{deposit}}.", values))
	assert.Equal(t, "{{not a key}}", Substitute("{{not a key}}", values))
	assert.Equal(t, "", Substitute("", values))

	t.Run("Spaced token stays literal", func(t *testing.T) {
		got := Substitute("Tenant: {{ tenant }} / {{tenant}}", map[string]string{"tenant": "Ali"})
		assert.Equal(t, "Tenant: {{ tenant }} / Ali", got)
	})
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b_2"}, Placeholders("{{b_2}} {{a}} {{ c }}"))
	assert.Empty(t, Placeholders("no fields"))
}

func TestHashRendered(t *testing.T) {
	h := HashRendered("line one\nline two")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashRendered("line one\r\nline two  \n\n"))
	assert.NotEqual(t, h, HashRendered("line one\nline 2"))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]string{"c": "", "a": "", "b": ""}))
}
