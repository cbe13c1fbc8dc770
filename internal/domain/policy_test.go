package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateFile(t *testing.T) {
	min := MustThreshold(75)

	t.Run("above minimum passes", func(t *testing.T) {
		eval := EvaluateFile(FileCoverage{Path: "/repo/a.ts", Lines: Counter{Found: 100, Hit: 80}}, min)
		assert.Equal(t, 80.0, eval.Coverage)
		assert.True(t, eval.Passed)
		assert.Equal(t, StatusPass, eval.Status())
	})

	t.Run("nothing found is zero coverage and fails", func(t *testing.T) {
		eval := EvaluateFile(FileCoverage{Path: "/repo/b.ts"}, min)
		assert.Equal(t, 0.0, eval.Coverage)
		assert.False(t, eval.Passed)
		assert.Equal(t, 75.0, eval.Shortfall())
	})

	t.Run("exactly at minimum passes", func(t *testing.T) {
		eval := EvaluateFile(FileCoverage{Path: "/repo/c.ts", Lines: Counter{Found: 100, Hit: 75}}, min)
		assert.True(t, eval.Passed)
	})

	t.Run("just below minimum does not round up", func(t *testing.T) {
		eval := EvaluateFile(FileCoverage{Path: "/repo/d.ts", Lines: Counter{Found: 10000, Hit: 7496}}, min)
		assert.False(t, eval.Passed)
	})

	t.Run("no minimum always passes", func(t *testing.T) {
		eval := EvaluateFile(FileCoverage{Path: "/repo/e.ts"}, NoThreshold())
		assert.True(t, eval.Passed)
	})
}

func TestEvaluateSummary(t *testing.T) {
	min := MustThreshold(75)

	eval := EvaluateSummary("All Files", &Summary{Lines: Counter{Found: 100, Hit: 75}}, min)
	assert.True(t, eval.Passed)
	assert.False(t, eval.NoData)

	eval = EvaluateSummary("All Files", &Summary{Lines: Counter{Found: 100, Hit: 70}}, min)
	assert.False(t, eval.Passed)

	eval = EvaluateSummary("Changed Files", nil, min)
	assert.True(t, eval.NoData)
	assert.Equal(t, 0.0, eval.Coverage)
	assert.False(t, eval.Passed)

	eval = EvaluateSummary("Changed Files", nil, NoThreshold())
	assert.False(t, eval.Passed, "no data never passes on its own")

	eval = EvaluateSummary("All Files", &Summary{}, NoThreshold())
	assert.True(t, eval.Passed)
}

func TestAllFilesPass(t *testing.T) {
	records := []FileCoverage{
		{Path: "/a", Lines: Counter{Found: 10, Hit: 9}},
		{Path: "/b", Lines: Counter{Found: 10, Hit: 5}},
	}

	assert.False(t, AllFilesPass(records, MustThreshold(75)))
	assert.True(t, AllFilesPass(records[:1], MustThreshold(75)))
	assert.True(t, AllFilesPass(nil, MustThreshold(75)), "empty set is vacuously true")
	assert.True(t, AllFilesPass(records, NoThreshold()), "disabled minimum is vacuously true")
	assert.True(t, AllFilesPass([]FileCoverage{{Path: "/z"}}, MustThreshold(0)))
	assert.False(t, AllFilesPass([]FileCoverage{{Path: "/z"}}, MustThreshold(1)))
}

func TestDecide(t *testing.T) {
	all := &Summary{Lines: Counter{Found: 200, Hit: 160}}
	policy := Policy{AllFilesMin: MustThreshold(75), ChangedFilesMin: MustThreshold(75)}

	t.Run("no changed files does not block", func(t *testing.T) {
		v := Decide(policy, all, nil, nil)
		assert.True(t, v.Passed)
		assert.True(t, v.ChangedFilesPass)
		assert.True(t, v.ChangedFiles.NoData)
		assert.False(t, v.ChangedFiles.Passed)
	})

	t.Run("failing individual file blocks", func(t *testing.T) {
		changed := []FileCoverage{
			{Path: "/a", Lines: Counter{Found: 100, Hit: 100}},
			{Path: "/b", Lines: Counter{Found: 100, Hit: 60}},
		}
		sum := Aggregate(changed, AnyPath())
		v := Decide(policy, all, sum, changed)
		assert.True(t, v.ChangedFiles.Passed, "aggregate is 80 percent")
		assert.False(t, v.ChangedFilesPass)
		assert.False(t, v.Passed)
		assert.Len(t, v.FailingFiles(), 1)
		assert.Equal(t, "Coverage thresholds not met", v.Summary())
	})

	t.Run("failing individual file is fine without a changed minimum", func(t *testing.T) {
		changed := []FileCoverage{
			{Path: "/a", Lines: Counter{Found: 100, Hit: 100}},
			{Path: "/b", Lines: Counter{Found: 100, Hit: 10}},
		}
		p := Policy{AllFilesMin: MustThreshold(75)}
		v := Decide(p, all, Aggregate(changed, AnyPath()), changed)
		assert.True(t, v.Passed)
		assert.Equal(t, "All coverage thresholds met", v.Summary())
	})

	t.Run("all files failing blocks", func(t *testing.T) {
		low := &Summary{Lines: Counter{Found: 100, Hit: 10}}
		v := Decide(policy, low, nil, nil)
		assert.False(t, v.Passed)
	})

	t.Run("missing all-files data blocks", func(t *testing.T) {
		v := Decide(Policy{}, nil, nil, nil)
		assert.False(t, v.Passed)
	})
}
