package slug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{name: "Simple", title: "Hello World", expected: "hello-world"},
		{name: "Uppercase", title: "GOLANG IS FUN", expected: "golang-is-fun"},
		{name: "Punctuation Collapses", title: "Hello, World!!", expected: "hello-world"},
		{name: "Interior Symbol Run", title: "a -- b", expected: "a-b"},
		{name: "Leading And Trailing Symbols", title: "  !!Go 1.22!!  ", expected: "go-1-22"},
		{name: "Diacritics Stripped", title: "Crème Brûlée", expected: "creme-brulee"},
		{name: "Numbers Kept", title: "Top 10 Tips", expected: "top-10-tips"},
		{name: "Symbols Only", title: "!!!", expected: ""},
		{name: "Empty", title: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.title))
		})
	}
}

func TestMake_Shape(t *testing.T) {
	// Whatever goes in, the output alphabet is lowercase ASCII alphanumerics
	// and single interior hyphens.
	titles := []string{
		"Hello World", "foo---bar", "Überraschung", "日本語 and English", "a b c",
	}
	for _, title := range titles {
		s := Make(title)
		for i, r := range s {
			ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
			assert.True(t, ok, "unexpected rune %q in slug %q", r, s)
			if r == '-' {
				assert.NotZero(t, i, "leading hyphen in %q", s)
				assert.NotEqual(t, len(s)-1, i, "trailing hyphen in %q", s)
			}
		}
		assert.NotContains(t, s, "--")
	}
}

func TestUnique_NoCollision(t *testing.T) {
	exists := func(_ context.Context, slug string) (bool, error) {
		return false, nil
	}

	got, err := Unique(context.Background(), "Hello World", exists)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", got)
}

func TestUnique_Disambiguates(t *testing.T) {
	taken := map[string]bool{"hello-world": true}
	exists := func(_ context.Context, slug string) (bool, error) {
		return taken[slug], nil
	}

	// "Hello World!!" normalizes to the same base as an existing post.
	got, err := Unique(context.Background(), "Hello World!!", exists)
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", got)

	taken["hello-world-1"] = true
	got, err = Unique(context.Background(), "Hello World", exists)
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", got)
}

func TestUnique_EmptyBaseFallsBack(t *testing.T) {
	exists := func(_ context.Context, slug string) (bool, error) {
		return false, nil
	}

	got, err := Unique(context.Background(), "!!!", exists)
	require.NoError(t, err)
	assert.Equal(t, "post", got)
}

func TestUnique_PropagatesLookupError(t *testing.T) {
	exists := func(_ context.Context, slug string) (bool, error) {
		return false, assert.AnError
	}

	_, err := Unique(context.Background(), "Hello World", exists)
	assert.Error(t, err)
}
