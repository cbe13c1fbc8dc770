package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []FileCoverage {
	return []FileCoverage{
		{Path: "/repo/src/a.ts", Lines: Counter{Found: 100, Hit: 80}, Functions: Counter{Found: 10, Hit: 9}, Branches: Counter{Found: 20, Hit: 10}},
		{Path: "/repo/src/b.ts", Lines: Counter{Found: 50, Hit: 25}, Functions: Counter{Found: 4, Hit: 2}},
		{Path: "/repo/lib/c.ts", Lines: Counter{Found: 10, Hit: 10}, Branches: Counter{Found: 2, Hit: 1}},
	}
}

func TestAggregate(t *testing.T) {
	t.Run("sums every record without a filter", func(t *testing.T) {
		sum := Aggregate(sampleRecords(), AnyPath())
		require.NotNil(t, sum)
		assert.Equal(t, Counter{Found: 160, Hit: 115}, sum.Lines)
		assert.Equal(t, Counter{Found: 14, Hit: 11}, sum.Functions)
		assert.Equal(t, Counter{Found: 22, Hit: 11}, sum.Branches)
	})

	t.Run("sums only filtered paths", func(t *testing.T) {
		sum := Aggregate(sampleRecords(), NewPathSet("/repo/src/b.ts", "/repo/lib/c.ts"))
		require.NotNil(t, sum)
		assert.Equal(t, Counter{Found: 60, Hit: 35}, sum.Lines)
	})

	t.Run("filter matching nothing is no data", func(t *testing.T) {
		assert.Nil(t, Aggregate(sampleRecords(), NewPathSet("/repo/other.ts")))
		assert.Nil(t, Aggregate(sampleRecords(), NewPathSet()))
	})

	t.Run("empty input is no data", func(t *testing.T) {
		assert.Nil(t, Aggregate(nil, AnyPath()))
	})

	t.Run("zero counts are data", func(t *testing.T) {
		sum := Aggregate([]FileCoverage{{Path: "/repo/empty.ts"}}, AnyPath())
		require.NotNil(t, sum)
		assert.Equal(t, Summary{}, *sum)
	})

	t.Run("partial path does not match", func(t *testing.T) {
		assert.Nil(t, Aggregate(sampleRecords(), NewPathSet("src/a.ts", "/repo/src/a")))
	})

	t.Run("order of records does not matter", func(t *testing.T) {
		records := sampleRecords()
		want := Aggregate(records, AnyPath())
		permutations := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {0, 2, 1}}
		for _, perm := range permutations {
			shuffled := make([]FileCoverage, 0, len(perm))
			for _, i := range perm {
				shuffled = append(shuffled, records[i])
			}
			assert.Equal(t, want, Aggregate(shuffled, AnyPath()), "permutation %v", perm)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		records := sampleRecords()
		_ = Aggregate(records, NewPathSet("/repo/src/a.ts"))
		assert.Equal(t, sampleRecords(), records)
	})
}

func TestPathSet(t *testing.T) {
	set := NewPathSet("/b", "/a")
	assert.True(t, set.Contains("/a"))
	assert.False(t, set.Contains("/c"))
	assert.Equal(t, 2, set.Len())

	var zero PathSet
	assert.False(t, zero.Contains("/a"))
	assert.True(t, AnyPath().Contains("/anything"))

	filtered := NewPathSet("/repo/lib/c.ts", "/repo/src/a.ts").Filter(sampleRecords())
	require.Len(t, filtered, 2)
	assert.Equal(t, "/repo/src/a.ts", filtered[0].Path)
	assert.Equal(t, "/repo/lib/c.ts", filtered[1].Path)
}

func TestCounter(t *testing.T) {
	assert.Equal(t, 0.0, Counter{}.Percent())
	assert.InDelta(t, 33.33, Counter{Found: 3, Hit: 1}.Percent(), 0.01)

	assert.NoError(t, Counter{Found: 2, Hit: 2}.Validate())
	assert.Error(t, Counter{Found: 1, Hit: 2}.Validate())
	assert.Error(t, Counter{Found: -1}.Validate())
}

func TestValidateAll(t *testing.T) {
	assert.NoError(t, ValidateAll(sampleRecords()))
	assert.NoError(t, ValidateAll(nil))

	err := ValidateAll([]FileCoverage{
		{Path: "/repo/ok.ts", Lines: Counter{Found: 1, Hit: 1}},
		{Path: "/repo/bad.ts", Lines: Counter{Found: 1, Hit: 5}},
		{Lines: Counter{Found: 1}},
		{Path: "/repo/neg.ts", Branches: Counter{Found: -2}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/repo/bad.ts: lines: hit 5 exceeds found 1")
	assert.Contains(t, err.Error(), "record 2: file path cannot be empty")
	assert.Contains(t, err.Error(), "/repo/neg.ts: branches")
	assert.Contains(t, err.Error(), "3 errors occurred")
}

func TestFileCoverageBase(t *testing.T) {
	assert.Equal(t, "a.ts", FileCoverage{Path: "/repo/src/a.ts"}.Base())
	assert.Equal(t, "", FileCoverage{}.Base())
}

func TestFileCoverageMerge(t *testing.T) {
	a := FileCoverage{Path: "/repo/a.ts", Lines: Counter{Found: 10, Hit: 4}, Branches: Counter{Found: 2, Hit: 2}}
	b := FileCoverage{Path: "/other/a.ts", Lines: Counter{Found: 10, Hit: 7}, Functions: Counter{Found: 3, Hit: 1}}

	merged := a.Merge(b)

	assert.Equal(t, "/repo/a.ts", merged.Path)
	assert.Equal(t, Counter{Found: 10, Hit: 7}, merged.Lines)
	assert.Equal(t, Counter{Found: 3, Hit: 1}, merged.Functions)
	assert.Equal(t, Counter{Found: 2, Hit: 2}, merged.Branches)
	assert.Equal(t, merged, b.Merge(a).withPath("/repo/a.ts"), "merge is symmetric apart from the path")
}

func (f FileCoverage) withPath(path string) FileCoverage {
	f.Path = path
	return f
}
