package sox

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Stat holds the fields read from a statistics pass.
type Stat struct {
	Mean   float64
	Volume float64
}

// DefaultStat is used when the statistics pass yields nothing usable.
var DefaultStat = Stat{Mean: 0, Volume: 1}

// ParseStat extracts the mean amplitude and suggested volume adjustment from
// `sox -n stat` output. Fields that are missing or unparsable keep their
// defaults; the returned error lists what could not be parsed.
func ParseStat(lines []string) (Stat, error) {
	stat := DefaultStat
	var errs []error
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Mean") && strings.Contains(line, "amplitude"):
			v, err := lastField(line)
			if err != nil {
				errs = append(errs, fmt.Errorf("mean amplitude: %w", err))
				continue
			}
			stat.Mean = v
		case strings.HasPrefix(line, "Volume") && strings.Contains(line, "adjustment"):
			v, err := lastField(line)
			if err != nil {
				errs = append(errs, fmt.Errorf("volume adjustment: %w", err))
				continue
			}
			stat.Volume = v
		}
	}
	return stat, errors.Join(errs...)
}

// NeedsDCShift reports whether the mean is large enough to correct: it must
// be non-zero at two decimal places.
func (s Stat) NeedsDCShift() bool {
	return math.Round(s.Mean*100) != 0
}

func lastField(line string) (float64, error) {
	idx := strings.LastIndex(line, ":")
	return strconv.ParseFloat(strings.TrimSpace(line[idx+1:]), 64)
}

// ParseProgress reads the percentage from a `sox -S` status line such as
// "In:42.35% 00:01:02.10 [...]". The value is scaled by 0.9 and truncated,
// since SoX reports 100% well before it finishes writing.
func ParseProgress(line string) (int, bool) {
	if !strings.HasPrefix(line, "In:") || len(line) <= 7 {
		return 0, false
	}
	raw := strings.ReplaceAll(line[3:7], "%", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return int(v * 0.9), true
}

// ParseDuration reads the single number printed by `sox --i -D`.
func ParseDuration(lines []string) (float64, error) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return 0, fmt.Errorf("invalid duration %q", line)
		}
		return v, nil
	}
	return 0, errors.New("no duration in output")
}
