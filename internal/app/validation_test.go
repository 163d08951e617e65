package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_hero/internal/domain"
)

func TestValidateInput_CollectsAllFields(t *testing.T) {
	err := validateInput(UpdateAccountInput{
		BusinessName:     ptr(""),
		PrimaryColor:     ptr("#12345"),
		ThankYouVideoURL: ptr("not a url"),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Path] = f.Message
	}
	assert.Equal(t, map[string]string{
		"primaryColor":     "must be a #RRGGBB color",
		"thankYouVideoUrl": "must be a valid URL",
	}, got, "empty strings are treated as cleared, not too short")
}

func TestValidateInput_Messages(t *testing.T) {
	err := validateInput(SubmitReviewInput{ClientID: "abc", Rating: 0})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []domain.FieldError{
		{Path: "clientId", Message: "must be a valid UUID"},
		{Path: "rating", Message: "is required"},
	}, verr.Fields)

	assert.NoError(t, validateInput(ResolveInterceptInput{Resolved: true}))
}

func TestPhoneAndColorPatterns(t *testing.T) {
	for _, ok := range []string{"+1 (555) 123-4567", "555.123.4567", "07700900123"} {
		assert.True(t, phoneRe.MatchString(ok), ok)
	}
	for _, bad := range []string{"call me", "12ab"} {
		assert.False(t, phoneRe.MatchString(bad), bad)
	}
	assert.True(t, hexColorRe.MatchString("#6366F1"))
	assert.False(t, hexColorRe.MatchString("6366F1"))
}

func TestRenderReviewRequest(t *testing.T) {
	msg, err := renderReviewRequest(domain.EmailNudge, "c@x.test", "o@x.test", "Sarah Connor", "Joe's Fitness Studio", "https://a.test/r/t", 2)
	require.NoError(t, err)
	assert.Equal(t, "Re: Quick feedback for Joe's?", msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Sarah,")
	assert.Contains(t, msg.HTML, "reminder")
	assert.Contains(t, msg.Text, "https://a.test/r/t")
	assert.Equal(t, "https://a.test/r/t", reviewLink("https://a.test/", "t"))
}
