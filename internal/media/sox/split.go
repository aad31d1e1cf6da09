package sox

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Segment is one output written by a `newfile : restart` effect chain.
type Segment struct {
	Path string
	// Number is the three digit suffix SoX appended, e.g. "002".
	Number string
}

// SplitOutputs lists the numbered segments SoX wrote for requested, in
// order. For "/tmp/x/out.mp3" these are "/tmp/x/out001.mp3", "out002.mp3", ...
func SplitOutputs(requested string) ([]Segment, error) {
	dir := filepath.Dir(requested)
	ext := filepath.Ext(requested)
	stem := strings.TrimSuffix(filepath.Base(requested), ext)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var segments []Segment
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, stem) || !strings.HasSuffix(name, ext) {
			continue
		}
		number := strings.TrimSuffix(strings.TrimPrefix(name, stem), ext)
		if len(number) < 3 || !allDigits(number) {
			continue
		}
		segments = append(segments, Segment{Path: filepath.Join(dir, name), Number: number})
	}
	sort.Slice(segments, func(i, j int) bool {
		if len(segments[i].Number) != len(segments[j].Number) {
			return len(segments[i].Number) < len(segments[j].Number)
		}
		return segments[i].Number < segments[j].Number
	})
	return segments, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
