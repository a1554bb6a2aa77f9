package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -5 +5 @@ func main() {
-	x := 4
+	x := 5
@@ -10,0 +11 @@ func main() {
+	return
diff --git a/logo.png b/logo.png
index 3333333..4444444 100644
Binary files a/logo.png and b/logo.png differ
diff --git a/new.txt b/new.txt
new file mode 100644
index 0000000..5555555
--- /dev/null
+++ b/new.txt
@@ -0,0 +1,2 @@
+hello
+
`

func TestParse(t *testing.T) {
	d, err := Parse(sampleDiff)
	require.NoError(t, err)
	require.Len(t, d.Files, 3)

	main := d.File("main.go")
	require.NotNil(t, main)
	assert.Equal(t, "100644", main.OldMode)
	require.Len(t, main.Hunks, 2)
	assert.Equal(t, Hunk{OldStart: 5, OldCount: 1, NewStart: 5, NewCount: 1,
		Removed: []string{"\tx := 4"}, Added: []string{"\tx := 5"}}, main.Hunks[0])
	assert.Equal(t, 10, main.Hunks[1].OldStart)
	assert.Equal(t, 0, main.Hunks[1].OldCount)
	assert.Equal(t, 11, main.Hunks[1].NewStart)

	assert.True(t, d.File("logo.png").Binary)

	added := d.File("new.txt")
	require.NotNil(t, added)
	assert.True(t, added.New)
	assert.Equal(t, "100644", added.NewMode)
	assert.Equal(t, []string{"hello", ""}, added.Hunks[0].Added)
	assert.False(t, d.Empty())
}

func TestParseRename(t *testing.T) {
	raw := `diff --git a/old/name.go b/new/name.go
similarity index 90%
rename from old/name.go
rename to new/name.go
index 1111111..2222222 100644
--- a/old/name.go
+++ b/new/name.go
@@ -3 +3 @@
-const a = 1
+const a = 2
`
	d, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, d.Files, 1)
	f := d.Files[0]
	assert.True(t, f.Renamed)
	assert.Equal(t, "old/name.go", f.OldPath)
	assert.Equal(t, "new/name.go", f.Path)

	lines := d.ChangedLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "new/name.go", lines[0].Path)
}

func TestParseNoNewline(t *testing.T) {
	raw := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -2 +2 @@
-last line
\ No newline at end of file
+last line!
\ No newline at end of file
`
	d, err := Parse(raw)
	require.NoError(t, err)
	h := d.Files[0].Hunks[0]
	assert.True(t, h.OldNoEOL)
	assert.True(t, h.NewNoEOL)
}

func TestParseMalformedHeader(t *testing.T) {
	_, err := Parse("diff --git a/x b/x\n--- a/x\n+++ b/x\n@@ -a +1 @@\n")
	assert.Error(t, err)
}

func TestChangedLines(t *testing.T) {
	d, err := Parse(sampleDiff)
	require.NoError(t, err)

	lines := d.ChangedLines()
	require.Len(t, lines, 4)

	assert.Equal(t, "main.go", lines[0].Path)
	assert.Equal(t, OpModified, lines[0].Op)
	assert.Equal(t, 5, lines[0].Line)
	assert.Equal(t, "\tx := 5", lines[0].Content)
	assert.Equal(t, "\tx := 4", lines[0].Previous)
	assert.False(t, lines[0].Whitespace)

	assert.Equal(t, OpAdded, lines[1].Op)
	assert.Equal(t, 11, lines[1].Line)
	assert.Equal(t, -1, lines[1].OldIndex)

	assert.Equal(t, "new.txt", lines[2].Path)
	assert.Equal(t, 1, lines[2].Line)
	assert.False(t, lines[2].Whitespace)
	assert.Equal(t, 2, lines[3].Line)
	assert.True(t, lines[3].Whitespace)
}

func TestChangedLinesUnrelatedEditsStaySeparate(t *testing.T) {
	raw := `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -4 +4 @@
-import os
+def handler(event, context):
`
	d, err := Parse(raw)
	require.NoError(t, err)
	lines := d.ChangedLines()
	require.Len(t, lines, 2)
	assert.Equal(t, OpDeleted, lines[0].Op)
	assert.Equal(t, OpAdded, lines[1].Op)
}

func TestWhitespaceOnlyModification(t *testing.T) {
	raw := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -3 +3 @@
-	if x  == 1 {
+	if x == 1 {
`
	d, err := Parse(raw)
	require.NoError(t, err)
	lines := d.ChangedLines()
	require.Len(t, lines, 1)
	assert.Equal(t, OpModified, lines[0].Op)
	assert.True(t, lines[0].Whitespace)
}

func TestAnchorLines(t *testing.T) {
	before, after := Hunk{OldStart: 10, OldCount: 0}.AnchorLines()
	assert.Equal(t, 10, before)
	assert.Equal(t, 11, after)

	before, after = Hunk{OldStart: 4, OldCount: 2}.AnchorLines()
	assert.Equal(t, 3, before)
	assert.Equal(t, 6, after)

	before, _ = Hunk{OldStart: 0, OldCount: 0}.AnchorLines()
	assert.Equal(t, 0, before)
}

func TestParseSplitsContextFragments(t *testing.T) {
	raw := `diff --git a/a.txt b/a.txt
index 1111111..2222222 100644
--- a/a.txt
+++ b/a.txt
@@ -2,6 +2,6 @@
 two
-three
+THREE
 four
 five
 six
+six and a half
`
	d, err := Parse(raw)
	require.NoError(t, err)
	hunks := d.Files[0].Hunks
	require.Len(t, hunks, 2)
	assert.Equal(t, Hunk{OldStart: 3, OldCount: 1, NewStart: 3, NewCount: 1,
		Removed: []string{"three"}, Added: []string{"THREE"}}, hunks[0])
	assert.Equal(t, Hunk{OldStart: 6, OldCount: 0, NewStart: 7, NewCount: 1,
		Added: []string{"six and a half"}}, hunks[1])
}

func TestParseDeletedFile(t *testing.T) {
	raw := `diff --git a/gone.txt b/gone.txt
deleted file mode 100644
index 1111111..0000000
--- a/gone.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-a
-b
`
	d, err := Parse(raw)
	require.NoError(t, err)
	f := d.Files[0]
	assert.True(t, f.Deleted)
	assert.Equal(t, "gone.txt", f.Path)
	assert.Equal(t, "100644", f.OldMode)
	assert.Equal(t, Hunk{OldStart: 1, OldCount: 2, NewStart: 0, NewCount: 0,
		Removed: []string{"a", "b"}}, f.Hunks[0])
}
