package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Len(t, c.Templates, 21)
	assert.Equal(t, "Thank you for your business!", c.Default.CelebrationHeadline)
	assert.Equal(t, "fitness-coach", c.Templates[0].Slug)
	assert.Equal(t, 0, c.Templates[0].SortOrder)

	for _, tpl := range c.Templates {
		assert.NotEmpty(t, tpl.ReviewAsk, tpl.Slug)
		assert.NotEmpty(t, tpl.ReferralBody, tpl.Slug)
		assert.True(t, tpl.IsActive, tpl.Slug)
	}
	assert.Equal(t, "Health & Wellness", c.Categories()[0])
}

func TestParseRejectsDuplicateSlug(t *testing.T) {
	_, err := Parse([]byte(`
templates:
  - {slug: a, name: A, category: X}
  - {slug: a, name: B, category: X}
`))
	assert.ErrorContains(t, err, "duplicate slug")
}

func TestParseInactiveExcludedFromCategories(t *testing.T) {
	c, err := Parse([]byte(`
templates:
  - {slug: a, name: A, category: X, active: false}
  - {slug: b, name: B, category: Y}
`))
	require.NoError(t, err)
	assert.False(t, c.Templates[0].IsActive)
	assert.Equal(t, []string{"Y"}, c.Categories())
}
