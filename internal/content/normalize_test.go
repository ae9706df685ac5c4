package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"intro.md", "intro.md"},
		{"  intro.md  ", "intro.md"},
		{"guide\\install.md", "guide/install.md"},
		{"./guide/./install.md", "guide/install.md"},
		{"guide//install.md", "guide/install.md"},
		{"a/b/../c.md", "a/c.md"},
		{".", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestFallbackMD(t *testing.T) {
	got, rewrote := FallbackMD("reference/api/md")
	assert.True(t, rewrote)
	assert.Equal(t, "reference/api.md", got)

	got, rewrote = FallbackMD("reference/api.md")
	assert.False(t, rewrote)
	assert.Equal(t, "reference/api.md", got)

	// A bare "md" is a filename, not a trailing segment.
	got, rewrote = FallbackMD("md")
	assert.False(t, rewrote)
	assert.Equal(t, "md", got)
}

func TestEffectiveRef(t *testing.T) {
	assert.Equal(t, "api.md", EffectiveRef("./api/md", true))
	assert.Equal(t, "api/md", EffectiveRef("./api/md", false))
	assert.Equal(t, "guide/install.md", EffectiveRef("guide\\install.md", true))
}

func TestEscapesRoot(t *testing.T) {
	assert.True(t, EscapesRoot(".."))
	assert.True(t, EscapesRoot("../x.md"))
	assert.False(t, EscapesRoot("a/b.md"))
	// Callers normalize first; cleaned paths keep .. only at the front.
	assert.True(t, EscapesRoot(Normalize("a/../../x.md")))
}
