package git

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBranchList(t *testing.T) {
	t.Run("local branches", func(t *testing.T) {
		output := "main 1700000000\nfeature/login 1699000000"

		branches := parseBranchList(output, false)
		require.Len(t, branches, 2)
		assert.Equal(t, "main", branches[0].Name)
		assert.False(t, branches[0].IsRemote)
		assert.Equal(t, time.Unix(1700000000, 0).UTC(), branches[0].LastCommit)
	})

	t.Run("skips symbolic remote HEAD", func(t *testing.T) {
		output := "origin/HEAD 1700000000\norigin/main 1700000000"

		branches := parseBranchList(output, true)
		require.Len(t, branches, 1)
		assert.Equal(t, "origin/main", branches[0].Name)
		assert.True(t, branches[0].IsRemote)
	})

	t.Run("empty output", func(t *testing.T) {
		assert.Empty(t, parseBranchList("", false))
	})
}

func TestParseTrackedObjects(t *testing.T) {
	output := "100644 blob a1b2c3d4     1024\tREADME.md\n" +
		"100644 blob e5f6a7b8 15728640\tassets/video.mp4\n" +
		"160000 commit 99887766        -\tvendor/submodule"

	objects := parseTrackedObjects(output)
	require.Len(t, objects, 2)
	assert.Equal(t, "README.md", objects[0].Path)
	assert.Equal(t, int64(1024), objects[0].Size)
	assert.Equal(t, "assets/video.mp4", objects[1].Path)
	assert.Equal(t, int64(15728640), objects[1].Size)
}
