package sox

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStat(t *testing.T) {
	stat, err := ParseStat([]string{
		"Samples read:           2646000",
		"Mean    amplitude:     -0.031250",
		"Volume adjustment:     2.718",
	})
	require.NoError(t, err)
	assert.InDelta(t, -0.03125, stat.Mean, 1e-9)
	assert.InDelta(t, 2.718, stat.Volume, 1e-9)
	assert.True(t, stat.NeedsDCShift())
}

func TestParseStatKeepsDefaultsOnGarbage(t *testing.T) {
	stat, err := ParseStat([]string{
		"Mean    amplitude:     nan-ish",
		"Volume adjustment:     ",
	})
	require.Error(t, err)
	assert.Equal(t, DefaultStat, stat)
	assert.False(t, stat.NeedsDCShift())
}

func TestNeedsDCShiftRoundsToTwoPlaces(t *testing.T) {
	assert.False(t, Stat{Mean: 0.004}.NeedsDCShift())
	assert.False(t, Stat{Mean: -0.0049}.NeedsDCShift())
	assert.True(t, Stat{Mean: 0.006}.NeedsDCShift())
}

func TestParseProgress(t *testing.T) {
	cases := []struct {
		line string
		want int
		ok   bool
	}{
		{"In:0.00% 00:00:00.00 [00:10:00.00] Out:0", 0, true},
		{"In:42.3% 00:01:02.10 [00:01:24.00] Out:2.7M", 38, true},
		{"In:100.% 00:10:00.00 [00:00:00.00] Out:26M", 90, true},
		{"In:5%", 0, false},
		{"Out:12", 0, false},
		{"In:ab.c% 00:00", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseProgress(tc.line)
		assert.Equal(t, tc.ok, ok, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration([]string{"", "  7700.500000  "})
	require.NoError(t, err)
	assert.InDelta(t, 7700.5, d, 1e-9)

	for _, lines := range [][]string{nil, {"0"}, {"-3"}, {"NaN"}, {"soxi FAIL"}} {
		_, err := ParseDuration(lines)
		assert.Error(t, err, "%v", lines)
	}
}

func TestScanLinesSplitsCarriageReturns(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("In:1.00%\rIn:2.00%\r\nDone.\nlast"))
	scanner.Split(ScanLines)
	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"In:1.00%", "In:2.00%", "", "Done.", "last"}, got)
}
