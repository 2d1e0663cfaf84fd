package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/highscore/internal/domain/model"
)

func TestSaveWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	err = s.Save(context.Background(), "t1", []model.Entry{{Name: "Bob", Score: 80}, {Name: "Alice", Score: 50}})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "t1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "name,score\nBob,80\nAlice,50\n", string(raw))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(context.Background(), "t1", []model.Entry{{Name: "a", Score: int64(i)}}))
	}
	des, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, des, 1)
	assert.Equal(t, "t1.csv", des[0].Name())
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t1.csv"), nil, 0o600))
	s, err := New(dir)
	require.NoError(t, err)

	got, err := s.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadCorruptRecords(t *testing.T) {
	cases := map[string]string{
		"bad header":    "player,points\nBob,80\n",
		"bad score":     "name,score\nBob,eighty\n",
		"missing field": "name,score\nBob\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "t1.csv"), []byte(body), 0o600))
			s, err := New(dir)
			require.NoError(t, err)

			_, err = s.Load(context.Background(), "t1")
			require.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}

func TestRoundTripKeepsNameBytes(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	in := []model.Entry{
		{Name: "Zoë, \"the\" ace", Score: 9},
		{Name: "  padded  ", Score: 8},
		{Name: "semi;colon 'quote'", Score: 7},
	}
	require.NoError(t, s.Save(ctx, "t1", in))
	out, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveRejectsControlCharacters(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	prev := []model.Entry{{Name: "Bob", Score: 80}}
	require.NoError(t, s.Save(ctx, "t1", prev))

	for _, name := range []string{"a\r\nb", "a\rb", "a\nb"} {
		err := s.Save(ctx, "t1", []model.Entry{{Name: name, Score: 1}})
		assert.ErrorIs(t, err, ErrInvalidEntryName, "%q", name)
	}

	got, err := s.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, prev, got)

	des, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, des, 1)
}

func TestRejectsPathLikeNames(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "../etc", "a/b", "with space"} {
		_, err := s.Load(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidTableName, name)
		assert.ErrorIs(t, s.Save(ctx, name, nil), ErrInvalidTableName, name)
	}
}

func TestTablesSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.csv", "b.csv", "notes.txt", ".t1.csv.tmp-123", "bad name.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("name,score\n"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.csv"), 0o750))

	s, err := New(dir)
	require.NoError(t, err)
	names, err := s.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}
