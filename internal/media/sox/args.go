package sox

import (
	"strconv"

	"github.com/danielemils/new-alice/internal/effects"
)

const (
	sampleRate   = "44100"
	noiseVolume  = "0.05"
	outputGain   = "-1"
	tremoloDepth = "100"
)

// Compander presets. Mixed-in noise raises the noise floor, so it gets a
// gentler curve.
var (
	CompandWithNoise    = []string{"0.01,1", "-30,-10,0,-1", "-1", "0", "0.02"}
	CompandWithoutNoise = []string{"0.05,1", "-40,-50,-20,-10,0,-10", "0", "-60", "0.5"}
)

// ProbeArgs reads the duration of path in seconds.
func ProbeArgs(path string) []string {
	return []string{"--i", "-D", path}
}

// StatArgs runs the statistics pass used for DC offset detection.
func StatArgs(in string) []string {
	return []string{in, "-n", "stat"}
}

// DCShiftArgs writes in to out with the measured mean removed.
func DCShiftArgs(in, out string, mean float64) []string {
	return []string{in, out, "dcshift", formatFloat(-mean)}
}

// NoiseArgs synthesizes a brown noise track the length of in.
func NoiseArgs(in, out string) []string {
	return []string{in, out, "synth", "brownnoise", "vol", noiseVolume}
}

// EffectArgs describes one effect application.
type EffectArgs struct {
	Input  string
	Output string
	// Noise is the noise track to mix in. Empty disables mixing.
	Noise    string
	Volume   float64
	Settings effects.Settings
	// SplitAt, when positive, trims output into segments of this many seconds.
	SplitAt float64
}

// Args renders the effect chain. Effect order matters to SoX and must not change.
func (e EffectArgs) Args() []string {
	args := []string{"-S"}
	if e.Noise != "" {
		args = append(args, "-m", e.Noise)
	}
	args = append(args, "-v", formatFloat(e.Volume), e.Input, "-c", "2", e.Output)
	if e.SplitAt > 0 {
		args = append(args, "trim", "0", formatFloat(e.SplitAt))
	}
	args = append(args, "rate", "-v", sampleRate)
	if e.Settings.Compressor {
		args = append(args, "compand")
		if e.Noise != "" {
			args = append(args, CompandWithNoise...)
		} else {
			args = append(args, CompandWithoutNoise...)
		}
	}
	args = append(args, "gain", outputGain)
	args = append(args, "tremolo", e.Settings.FrequencyArg(), tremoloDepth)
	if e.SplitAt > 0 {
		args = append(args, ":", "newfile", ":", "restart")
	}
	return args
}

// MergeArgs concatenates inputs, in order, into out.
func MergeArgs(inputs []string, out string) []string {
	args := make([]string, 0, len(inputs)+1)
	args = append(args, inputs...)
	return append(args, out)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
