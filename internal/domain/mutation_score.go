package domain

import (
	m "gooze.dev/pkg/unitmut/internal/model"
	"gooze.dev/pkg/unitmut/pkg"
)

// ScoreCounts tallies verdicts by status.
type ScoreCounts struct {
	Killed   int
	Survived int
	Timeout  int
	Skipped  int
	Errors   int
}

// Add counts one verdict.
func (c *ScoreCounts) Add(status m.TestStatus) {
	switch status {
	case m.Killed:
		c.Killed++
	case m.Survived:
		c.Survived++
	case m.Timeout:
		c.Timeout++
	case m.Skipped:
		c.Skipped++
	case m.Error:
		c.Errors++
	}
}

// Score is the fraction of detected mutants. Timeouts count as detected;
// skipped and errored mutants are excluded from the denominator. A run with
// nothing to score is 1.
func (c ScoreCounts) Score() float64 {
	detected := c.Killed + c.Timeout

	total := detected + c.Survived
	if total == 0 {
		return 1
	}

	return float64(detected) / float64(total)
}

func mutationScore(verdicts []m.Verdict) float64 {
	var counts ScoreCounts

	for _, verdict := range verdicts {
		counts.Add(verdict.Status)
	}

	return counts.Score()
}

func mutationScoreFromSpill(verdicts pkg.FileSpill[m.Verdict]) (ScoreCounts, error) {
	var counts ScoreCounts

	err := verdicts.Range(func(_ uint64, verdict m.Verdict) error {
		counts.Add(verdict.Status)
		return nil
	})
	if err != nil {
		return ScoreCounts{}, err
	}

	return counts, nil
}
