package fingerprint

import "math"

// rhythmAnchors are the tempo ratios rhythm scoring tolerates: same tempo,
// half tempo, double tempo (§4.D).
var rhythmAnchors = []float64{0.5, 1.0, 2.0}

// neutralRhythmScore is returned when either tempo estimate failed (0 BPM);
// missing detection is explicitly not evidence of mismatch (§4.D).
const neutralRhythmScore = 50.0

// rhythmDeviationScale controls how sharply similarity falls off from the
// nearest tempo-ratio anchor.
const rhythmDeviationScale = 10.0

// RhythmSimilarity scores two scalar tempo estimates (BPM) in [0, 100],
// per spec.md §4.D.
func RhythmSimilarity(tempoA, tempoB float64) float64 {
	if tempoA <= 0 || tempoB <= 0 {
		return neutralRhythmScore
	}

	ratio := tempoA / tempoB
	bestDev := math.Abs(ratio - rhythmAnchors[0])
	for _, anchor := range rhythmAnchors[1:] {
		dev := math.Abs(ratio - anchor)
		if dev < bestDev {
			bestDev = dev
		}
	}

	return 100 * math.Exp(-bestDev*rhythmDeviationScale)
}
