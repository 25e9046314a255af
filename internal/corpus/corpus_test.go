package corpus

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Navigation":      Navigation,
		"File Management": FileManagement,
		"file_management": FileManagement,
		"FileManagement":  FileManagement,
		"PERMISSIONS":     Permissions,
		"networking":      Other,
		"":                Other,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseCategory(in), "input %q", in)
	}
}

func TestCategory_JSONUsesLabel(t *testing.T) {
	b, err := json.Marshal(NewRecord(0, "ls -a", FileManagement, "List all files."))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"category":"File Management"`)

	var r Record
	require.NoError(t, json.Unmarshal(b, &r))
	assert.Equal(t, FileManagement, r.Category)
	assert.Equal(t, "ls", r.Base)
}

func TestSplitTemplate(t *testing.T) {
	cmd, desc := SplitTemplate("ls -a : List all files : including hidden")
	assert.Equal(t, "ls -a", cmd)
	assert.Equal(t, "List all files : including hidden", desc)

	cmd, desc = SplitTemplate("echo a:b")
	assert.Equal(t, "echo a:b", cmd)
	assert.Empty(t, desc)
}

func TestParseBase(t *testing.T) {
	assert.Equal(t, "mkdir", ParseBase("mkdir new_folder"))
	assert.Equal(t, "sudo", ParseBase("  sudo aa-status"))
	assert.Equal(t, "", ParseBase("   "))
}

func TestLoadDataset(t *testing.T) {
	in := "Description,Command,Category,extra\n" +
		"Create a folder.,mkdir new_folder,File Management,x\n" +
		",ls -a : List hidden files,file_management\n" +
		"blank,   ,Other\n" +
		"Where am I,pwd,navigation\n"

	recs, err := LoadDataset(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, 0, recs[0].ID)
	assert.Equal(t, "mkdir new_folder", recs[0].Command)
	assert.Equal(t, "mkdir", recs[0].Base)

	assert.Equal(t, 1, recs[1].ID)
	assert.Equal(t, "ls -a", recs[1].Command)
	assert.Equal(t, "List hidden files", recs[1].Description)
	assert.Equal(t, FileManagement, recs[1].Category)

	assert.Equal(t, 2, recs[2].ID)
	assert.Equal(t, Navigation, recs[2].Category)
}

func TestLoadDataset_MissingCommandColumn(t *testing.T) {
	_, err := LoadDataset(strings.NewReader("desc,category\na,b\n"))
	assert.ErrorIs(t, err, ErrMissingCommandColumn)

	_, err = LoadDataset(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingCommandColumn)
}

func TestDefaultDataset(t *testing.T) {
	recs := DefaultDataset()
	require.NotEmpty(t, recs)

	bases := map[string]bool{}
	for i, r := range recs {
		assert.Equal(t, i, r.ID)
		assert.NotEmpty(t, r.Base)
		assert.NotEmpty(t, r.Description)
		bases[r.Base] = true
	}
	for _, b := range []string{"mkdir", "cp", "mv", "ls", "chmod", "pwd"} {
		assert.True(t, bases[b], "default dataset should contain %s", b)
	}
}

func TestHash_ChangesWithContent(t *testing.T) {
	a := []Record{NewRecord(0, "ls", FileManagement, "List files.")}
	b := []Record{NewRecord(0, "ls", FileManagement, "List all files.")}
	assert.NotEqual(t, Hash(a), Hash(b))
	assert.Equal(t, Hash(a), Hash(a))
}

func TestEmbeddingText(t *testing.T) {
	assert.Equal(t, "pwd", NewRecord(0, "pwd", Navigation, "").EmbeddingText())
	assert.Equal(t, "pwd", NewRecord(0, "pwd", Navigation, "  ").EmbeddingText())
	assert.Equal(t, "Show cwd.", NewRecord(0, "pwd", Navigation, "Show cwd.").EmbeddingText())
}
