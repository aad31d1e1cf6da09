package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestinationNames(t *testing.T) {
	dest := DestinationPath("/out", "Book 1")
	assert.Equal(t, "/out/Book 1(Converted).mp3", dest)
	assert.Equal(t, "/out/Book 1(Merged)(Converted).mp3", MergedPath("/out", "Book 1"))
	assert.Equal(t, "/out/Book 1(Converted)002.mp3", SegmentPath(dest, "002"))
	assert.Equal(t, "/out/Book 1(Converted)003(Merged).mp3", SegmentMergedPath(dest, "003"))
}

func TestCounterText(t *testing.T) {
	assert.Equal(t, "short (0/3)", CounterText("/in/short.mp3", 0, 3))
	assert.Equal(t, "abcdefghijklmnopqrst... (4/9)", CounterText("/in/abcdefghijklmnopqrstuvwxyz.flac", 4, 9))
}

func TestInputExtension(t *testing.T) {
	assert.Equal(t, ".mp3", inputExtension("/in/a.mp3"))
	assert.Equal(t, ".FLAC", inputExtension("/in/a.FLAC"))
	assert.Equal(t, "", inputExtension("/in/noext"))
}
