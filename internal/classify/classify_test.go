package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ishaan812/fastfixup/internal/diff"
)

func modified(before, after string) Input {
	return Input{
		Line:        diff.ChangedLine{Path: "main.go", Line: 5, Op: diff.OpModified, Content: after, Previous: before},
		Attributed:  true,
		HunkAdded:   1,
		HunkRemoved: 1,
	}
}

func added(content string, hunkAdded int) Input {
	return Input{
		Line:       diff.ChangedLine{Path: "main.go", Line: 11, Op: diff.OpAdded, Content: content},
		Attributed: true,
		HunkAdded:  hunkAdded,
	}
}

func TestRulesClassify(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name string
		in   Input
		want Classification
	}{
		{"small value edit", modified("\tx := 4", "\tx := 5"), LikelyFixup},
		{"appended statement", added("\treturn x", 1), PossibleFixup},
		{"unattributed", Input{Line: diff.ChangedLine{Op: diff.OpAdded, Content: "x"}}, NewFile},
		{"whitespace only", Input{Line: diff.ChangedLine{Op: diff.OpModified, Content: "a  b", Whitespace: true}, Attributed: true}, NewFile},
		{"comment", added("\t// handle the empty case", 1), LikelyFixup},
		{"hash comment", added("# note", 1), LikelyFixup},
		{"string literal", added(`	"retry",`, 1), LikelyFixup},
		{"number", added("\t42,", 1), LikelyFixup},
		{"closing brace", added("}", 1), LikelyFixup},
		{"keyword literal", added("\tnil,", 1), LikelyFixup},
		{"func definition", added("func helper() error {", 1), UnlikelyFixup},
		{"python def", added("def helper():", 1), UnlikelyFixup},
		{"js export", added("export function helper() {", 1), UnlikelyFixup},
		{"import", added(`import "strings"`, 1), UnlikelyFixup},
		{"decorator", added("    @property", 1), UnlikelyFixup},
		{"large insertion", added("\tcall(a, b)", 5), UnlikelyFixup},
		{"long line", added("\tx := "+longText(120), 1), UnlikelyFixup},
		{"rewritten line", modified("\tresult := compute(a, b, c)", "\tif err := validate(input); err != nil {"), PossibleFixup},
		{"deleted line", Input{Line: diff.ChangedLine{Op: diff.OpDeleted, Content: "\tcleanup(ctx)"}, Attributed: true, HunkRemoved: 1}, PossibleFixup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Classify(tt.in))
		})
	}
}

func TestRulesDeterministic(t *testing.T) {
	rules := DefaultRules()
	in := modified("\tname := \"alpha\"", "\tname := \"alpah\"")
	first := rules.Classify(in)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, rules.Classify(in))
	}
}

func TestRulesRatioThreshold(t *testing.T) {
	rules := Rules{MaxDelta: 0, MaxDeltaRatio: 0.5}
	assert.Equal(t, LikelyFixup, rules.Classify(modified("abcd", "abce")))

	strict := Rules{MaxDelta: 0, MaxDeltaRatio: 0}
	assert.Equal(t, PossibleFixup, strict.Classify(modified("value(a)", "value(b)")))
}

func TestClassificationLabels(t *testing.T) {
	assert.Equal(t, "likely_fixup", LikelyFixup.String())
	assert.Equal(t, "new", NewFile.Label())
	assert.True(t, PossibleFixup.Recommended())
	assert.False(t, UnlikelyFixup.Recommended())
	assert.Len(t, All, 4)
}

func longText(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a' + byte(i%26)
	}
	return string(b)
}
