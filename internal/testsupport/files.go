package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// audioMarker opens every fake audio file. Attributes follow as key=value
// lines so they survive a tag header being prepended to the file.
const audioMarker = "#fake-audio\n"

// WriteAudio writes a fake audio file that FakeSox understands. seconds is
// what a probe reports. Extra attributes (such as "mean") can be passed as
// alternating key, value pairs.
func WriteAudio(t testing.TB, path string, seconds float64, kv ...string) {
	t.Helper()

	attrs := map[string]string{"duration": strconv.FormatFloat(seconds, 'f', -1, 64)}
	for i := 0; i+1 < len(kv); i += 2 {
		attrs[kv[i]] = kv[i+1]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(encodeAttrs(attrs)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// AudioDuration reads back the duration attribute of a fake audio file.
func AudioDuration(t testing.TB, path string) float64 {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	value, ok := attr(string(data), "duration")
	if !ok {
		t.Fatalf("%s carries no duration", path)
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		t.Fatalf("parse duration of %s: %v", path, err)
	}
	return seconds
}

// ListFiles returns the sorted base names of the regular files in dir.
func ListFiles(t testing.TB, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

func encodeAttrs(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(audioMarker)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, attrs[k])
	}
	return b.String()
}

func readAttrs(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func attr(content, key string) (string, bool) {
	needle := "\n" + key + "="
	i := strings.Index(content, needle)
	if i < 0 {
		return "", false
	}
	rest := content[i+len(needle):]
	if j := strings.IndexByte(rest, '\n'); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}
