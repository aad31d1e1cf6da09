package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "AC-DC - Live", SanitizeFileName("  AC/DC - Live? "))
	assert.Equal(t, "", SanitizeFileName("   "))
}

func TestASCIIToken(t *testing.T) {
	assert.Equal(t, "Pr_vodce_kapitola_1", ASCIIToken("Průvodce kapitola 1"))
	assert.Equal(t, "input", ASCIIToken("日本語"))
	assert.Equal(t, "track-01", ASCIIToken("track-01"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 20))
	assert.Equal(t, "exactly twenty chars", Truncate("exactly twenty chars", 20))
	assert.Equal(t, "a very long file nam...", Truncate("a very long file name indeed", 20))
	assert.Equal(t, "žluťoučký...", Truncate("žluťoučký kůň", 9))
}
