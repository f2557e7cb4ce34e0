package compare

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines_Insertion(t *testing.T) {
	rep := Lines("", "", "a\nb\nc\n", "a\nb\nx\nc\n")

	assert.Equal(t, 1, rep.Added)
	assert.Equal(t, 0, rep.Removed)
	assert.False(t, rep.Identical())
	assert.Equal(t, " a\n b\n+x\n c\n", rep.Unified(-1))
}

func TestLines_Removal(t *testing.T) {
	rep := Lines("static", "dynamic", "a\nb\n", "a\n")

	assert.Equal(t, 0, rep.Added)
	assert.Equal(t, 1, rep.Removed)
	assert.Equal(t, "--- static\n+++ dynamic\n a\n-b\n", rep.Unified(-1))
}

func TestLines_MissingFinalNewlineIgnored(t *testing.T) {
	rep := Lines("", "", "a\nb", "a\nb\n")
	assert.True(t, rep.Identical())

	rep = Lines("", "", "a\nb", "a\nb\nc")
	assert.Equal(t, 1, rep.Added)
	assert.Equal(t, 0, rep.Removed)
}

func TestLines_Identical(t *testing.T) {
	rep := Lines("", "", "<html>\n</html>\n", "<html>\n</html>\n")
	assert.True(t, rep.Identical())
	require.Len(t, rep.Chunks, 1)
	assert.Equal(t, Equal, rep.Chunks[0].Type)
}

func TestLines_Empty(t *testing.T) {
	rep := Lines("", "", "", "")
	assert.True(t, rep.Identical())
	assert.Empty(t, rep.Chunks)
	assert.Equal(t, "", rep.Unified(3))
}

func TestUnified_ElidesLongEqualRuns(t *testing.T) {
	var base strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&base, "l%d\n", i)
	}
	head := base.String() + "new\n"

	got := Lines("", "", base.String(), head).Unified(2)
	assert.Equal(t, "@@ 8 unchanged lines @@\n l8\n l9\n+new\n", got)
}

func TestUnified_ContextBetweenChanges(t *testing.T) {
	base := "x\n1\n2\n3\n4\n5\n6\ny\n"
	head := "X\n1\n2\n3\n4\n5\n6\nY\n"

	got := Lines("", "", base, head).Unified(1)
	assert.Equal(t, "-x\n+X\n 1\n@@ 4 unchanged lines @@\n 6\n-y\n+Y\n", got)
}

func TestJSON_DropsEqualChunks(t *testing.T) {
	rep := Lines("a", "b", "keep\n", "keep\nextra\n")
	out, err := rep.JSON()
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "a", decoded.BaseID)
	assert.Equal(t, 1, decoded.Added)
	require.Len(t, decoded.Chunks, 1)
	assert.Equal(t, Chunk{Type: Added, Lines: []string{"extra"}}, decoded.Chunks[0])

	// the receiver keeps its equal chunks
	assert.Len(t, rep.Chunks, 2)
}
