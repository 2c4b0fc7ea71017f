package report

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/test262-automator/automator/model"
)

func rec(relative string, pass bool) *model.TestResult {
	return &model.TestResult{
		Relative: relative,
		Result:   json.RawMessage(fmt.Sprintf(`{"pass":%t}`, pass)),
		Pass:     pass,
	}
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestFold_FoldersAndSort(t *testing.T) {
	tree, err := Fold([]*model.TestResult{
		rec("b/z.js", true),
		rec("a/y.js", false),
		rec("a/x.js", true),
	})
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b"}, names(tree))
	require.Equal(t, &Summary{Total: 2, Passing: 1, Failing: 1}, tree[0].Summary)
	require.Equal(t, &Summary{Total: 1, Passing: 1, Failing: 0}, tree[1].Summary)
	require.Equal(t, []string{"x.js", "y.js"}, names(tree[0].Children))
	require.False(t, tree[0].Children[0].IsFolder())
}

func TestFold_MultiScenario(t *testing.T) {
	strict := rec("c/w.js", true)
	strict.Scenario = "strict mode"
	sloppy := rec("c/w.js", false)
	sloppy.Scenario = "default"

	tree, err := Fold([]*model.TestResult{strict, sloppy})
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)

	file := tree[0].Children[0]
	require.Equal(t, "w.js", file.Name)
	require.Len(t, file.Results, 2)
	require.Equal(t, "strict mode", file.Results[0].Scenario)
	require.Equal(t, "default", file.Results[1].Scenario)
	require.Equal(t, &Summary{Total: 2, Passing: 1, Failing: 1}, tree[0].Summary)
}

func TestFold_CaseInsensitiveStableSort(t *testing.T) {
	tree, err := Fold([]*model.TestResult{
		rec("d/B.js", true),
		rec("d/a.js", true),
		rec("d/b.js", true),
		rec("D/c.js", true),
	})
	require.NoError(t, err)

	// "d" and "D" compare equal and keep their arrival order
	require.Equal(t, []string{"d", "D"}, names(tree))
	require.Equal(t, []string{"a.js", "B.js", "b.js"}, names(tree[0].Children))
}

func TestFold_NestedSummaries(t *testing.T) {
	tree, err := Fold([]*model.TestResult{
		rec("test/built-ins/Array/length.js", true),
		rec("test/built-ins/Array/from.js", false),
		rec("test/built-ins/Map/size.js", true),
		rec("test/language/let.js", true),
	})
	require.NoError(t, err)
	require.Len(t, tree, 1)

	root := tree[0]
	require.Equal(t, "test", root.Name)
	require.Equal(t, Summary{Total: 4, Passing: 3, Failing: 1}, *root.Summary)

	builtins, ok := Lookup(tree, "test/built-ins")
	require.True(t, ok)
	require.Equal(t, Summary{Total: 3, Passing: 2, Failing: 1}, *builtins.Summary)
	require.Equal(t, []string{"Array", "Map"}, names(builtins.Children))

	array, ok := Lookup(tree, "test/built-ins/Array")
	require.True(t, ok)
	require.Equal(t, []string{"from.js", "length.js"}, names(array.Children))

	_, ok = Lookup(tree, "test/built-ins/Set")
	require.False(t, ok)
}

func TestFold_FileAttrsFirstSeen(t *testing.T) {
	first := rec("a/x.js", true)
	first.Attrs = model.Attrs{Description: "first", Features: []string{"Symbol"}}
	second := rec("a/x.js", true)
	second.Attrs = model.Attrs{
		Description: "second",
		Features:    []string{"Proxy"},
		Negative:    json.RawMessage(`{"phase":"parse","type":"SyntaxError"}`),
	}

	tree, err := Fold([]*model.TestResult{first, second})
	require.NoError(t, err)

	file := tree[0].Children[0]
	require.Equal(t, "first", file.Description)
	require.Equal(t, []string{"Symbol"}, file.Features)
	require.JSONEq(t, `{"phase":"parse","type":"SyntaxError"}`, string(file.Negative))
}

func TestFold_JSSuffixOnlyOnLastSegment(t *testing.T) {
	tree, err := Fold([]*model.TestResult{rec("a.js/b.js", true)})
	require.NoError(t, err)

	require.True(t, tree[0].IsFolder())
	require.Equal(t, "b.js", tree[0].Children[0].Name)
	require.False(t, tree[0].Children[0].IsFolder())
}

func TestFold_Conflict(t *testing.T) {
	_, err := Fold([]*model.TestResult{
		rec("a/x.js", true),
		rec("a/x.js/y.js", true),
	})

	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	require.Equal(t, "x.js", cErr.Segment)
}

// deepSum recomputes the summary of a folder from its file results.
func deepSum(n *Node) Summary {
	var s Summary
	for _, c := range n.Children {
		if c.IsFolder() {
			cs := deepSum(c)
			s.Total += cs.Total
			s.Passing += cs.Passing
			s.Failing += cs.Failing
			continue
		}
		for _, r := range c.Results {
			s.add(r.Pass)
		}
	}
	return s
}

func checkSummaries(t *testing.T, nodes []*Node) {
	t.Helper()
	for _, n := range nodes {
		if !n.IsFolder() {
			continue
		}
		require.Equal(t, deepSum(n), *n.Summary, "folder %s", n.Name)
		checkSummaries(t, n.Children)
	}
}

func TestFold_SummaryEqualsDeepSum(t *testing.T) {
	segments := []string{"a", "B", "c", "Dir", "e"}
	files := []string{"x.js", "Y.js", "z.js"}

	for seed := int64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(seed))
			var records []*model.TestResult
			for i := 0; i < 200; i++ {
				depth := 1 + rnd.Intn(4)
				p := ""
				for d := 0; d < depth; d++ {
					p += segments[rnd.Intn(len(segments))] + "/"
				}
				p += files[rnd.Intn(len(files))]
				records = append(records, rec(p, rnd.Intn(3) > 0))
			}

			tree, err := Fold(records)
			require.NoError(t, err)
			checkSummaries(t, tree)

			var total Summary
			for _, n := range tree {
				total.Total += n.Summary.Total
			}
			require.Equal(t, len(records), total.Total)
		})
	}
}

func TestStats(t *testing.T) {
	var stats Stats
	for _, r := range []*model.TestResult{
		rec("a/x.js", true),
		rec("a/x.js", false),
		rec("a/y.js", true),
	} {
		stats.Observe(r)
	}

	require.Equal(t, 3, stats.Lines)
	require.Equal(t, 2, stats.UniqueFiles())
	require.Equal(t, 2, stats.Passing)
	require.Equal(t, 1, stats.Failing)
}
