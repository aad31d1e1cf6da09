package conversion

import (
	"path/filepath"
	"strings"
)

// OutputExtension is the container every conversion produces.
const OutputExtension = ".mp3"

const (
	convertedSuffix = "(Converted)"
	mergedSuffix    = "(Merged)"
)

// DestinationPath is where a converted input named base is delivered:
// "<dir>/<base>(Converted).mp3".
func DestinationPath(dir, base string) string {
	return filepath.Join(dir, base+convertedSuffix+OutputExtension)
}

// MergedPath is where a buffer started by input base is delivered:
// "<dir>/<base>(Merged)(Converted).mp3".
func MergedPath(dir, base string) string {
	return filepath.Join(dir, base+mergedSuffix+convertedSuffix+OutputExtension)
}

// SegmentPath numbers a destination for one split segment:
// "<base>(Converted)002.mp3".
func SegmentPath(destination, number string) string {
	ext := filepath.Ext(destination)
	return strings.TrimSuffix(destination, ext) + number + ext
}

// SegmentMergedPath is where a buffer started by a split remainder is
// delivered: "<base>(Converted)003(Merged).mp3".
func SegmentMergedPath(destination, number string) string {
	ext := filepath.Ext(destination)
	return strings.TrimSuffix(destination, ext) + number + mergedSuffix + ext
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
