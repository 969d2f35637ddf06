// Package sentiment scores market headlines with a small fixed lexicon.
// The score feeds the Kelly confidence input as a cheap directional
// signal; it is deliberately simple and deterministic.
package sentiment

import (
	"strings"
)

// lexicon maps lowercased tokens to sentiment weights.
var lexicon = map[string]float64{
	"surge":     0.8,
	"rally":     0.7,
	"soar":      0.8,
	"gain":      0.5,
	"gains":     0.5,
	"win":       0.6,
	"wins":      0.6,
	"approve":   0.5,
	"approved":  0.5,
	"up":        0.3,
	"bullish":   0.7,
	"record":    0.4,
	"breakout":  0.6,
	"crash":     -0.9,
	"plunge":    -0.8,
	"collapse":  -0.9,
	"drop":      -0.5,
	"drops":     -0.5,
	"fall":      -0.5,
	"falls":     -0.5,
	"lose":      -0.6,
	"loses":     -0.6,
	"reject":    -0.5,
	"rejected":  -0.5,
	"down":      -0.3,
	"bearish":   -0.7,
	"ban":       -0.6,
	"banned":    -0.6,
	"fraud":     -0.9,
	"hack":      -0.8,
	"lawsuit":   -0.6,
	"default":   -0.7,
	"shutdown":  -0.6,
	"uncertain": -0.3,
}

// negators flip the sign of the token that follows them.
var negators = map[string]bool{
	"not":   true,
	"no":    true,
	"never": true,
	"won't": true,
	"wont":  true,
}

// Score rates a headline in [-1, 1]. Zero means neutral or no
// recognized tokens. The score is the weight sum normalized by the
// number of scoring tokens, so headline length does not inflate it.
func Score(headline string) float64 {
	tokens := tokenize(headline)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	var hits int
	negate := false
	for _, tok := range tokens {
		if negators[tok] {
			negate = true
			continue
		}
		w, ok := lexicon[tok]
		if !ok {
			negate = false
			continue
		}
		if negate {
			w = -w
			negate = false
		}
		sum += w
		hits++
	}
	if hits == 0 {
		return 0
	}

	score := sum / float64(hits)
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

// ScoreBatch averages the scores of several headlines, skipping those
// with no recognized tokens.
func ScoreBatch(headlines []string) float64 {
	var sum float64
	var scored int
	for _, h := range headlines {
		s := Score(h)
		if s == 0 {
			continue
		}
		sum += s
		scored++
	}
	if scored == 0 {
		return 0
	}
	return sum / float64(scored)
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,!?;:"'()[]`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
