package sox

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielemils/new-alice/internal/effects"
)

func TestEffectArgsPlain(t *testing.T) {
	args := EffectArgs{
		Input:    "in.mp3",
		Output:   "out.mp3",
		Volume:   1,
		Settings: effects.NewSettings(false, false, 40, false),
	}.Args()

	assert.Equal(t, []string{
		"-S", "-v", "1", "in.mp3", "-c", "2", "out.mp3",
		"rate", "-v", "44100",
		"gain", "-1",
		"tremolo", "40", "100",
	}, args)
}

func TestEffectArgsNoiseCompressorSplit(t *testing.T) {
	args := EffectArgs{
		Input:    "in.mp3",
		Output:   "out.mp3",
		Noise:    "noise.mp3",
		Volume:   1.25,
		Settings: effects.NewSettings(true, true, 33.5, true),
		SplitAt:  3600,
	}.Args()

	want := []string{"-S", "-m", "noise.mp3", "-v", "1.25", "in.mp3", "-c", "2", "out.mp3",
		"trim", "0", "3600", "rate", "-v", "44100", "compand"}
	want = append(want, CompandWithNoise...)
	want = append(want, "gain", "-1", "tremolo", "33.5", "100", ":", "newfile", ":", "restart")
	assert.Equal(t, want, args)
}

func TestEffectArgsCompressorWithoutNoise(t *testing.T) {
	args := EffectArgs{
		Input:    "in.wav",
		Output:   "out.mp3",
		Volume:   1,
		Settings: effects.NewSettings(false, true, 40, false),
	}.Args()

	assert.Subset(t, args, CompandWithoutNoise)
	assert.NotContains(t, args, "-m")
	assert.NotContains(t, args, "newfile")
}

func TestStageArgs(t *testing.T) {
	assert.Equal(t, []string{"--i", "-D", "a.mp3"}, ProbeArgs("a.mp3"))
	assert.Equal(t, []string{"a.mp3", "-n", "stat"}, StatArgs("a.mp3"))
	assert.Equal(t, []string{"a.mp3", "b.mp3", "dcshift", "-0.02"}, DCShiftArgs("a.mp3", "b.mp3", 0.02))
	assert.Equal(t, []string{"a.mp3", "n.mp3", "synth", "brownnoise", "vol", "0.05"}, NoiseArgs("a.mp3", "n.mp3"))
	assert.Equal(t, []string{"a.mp3", "b.mp3", "c.mp3", "m.mp3"}, MergeArgs([]string{"a.mp3", "b.mp3", "c.mp3"}, "m.mp3"))
}
