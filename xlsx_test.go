package datascope

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, sheets map[string][][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for name, rows := range sheets {
		if name != "Sheet1" {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestReadXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path, map[string][][]any{
		"Sheet1": {{"name", "score"}, {"alice", 90}, {"bob, jr", 85}},
		"Other":  {{"k"}, {"v"}},
	})

	t.Run("first sheet", func(t *testing.T) {
		t.Parallel()

		got, err := ReadXLSX(context.Background(), path, "")
		require.NoError(t, err)
		assert.Equal(t, "name,score\nalice,90\n\"bob, jr\",85\n", got)
	})

	t.Run("named sheet", func(t *testing.T) {
		t.Parallel()

		got, err := ReadXLSX(context.Background(), path, "Other")
		require.NoError(t, err)
		assert.Equal(t, "k\nv\n", got)
	})

	t.Run("missing sheet", func(t *testing.T) {
		t.Parallel()

		_, err := ReadXLSX(context.Background(), path, "Nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("through a session", func(t *testing.T) {
		t.Parallel()

		s := NewSession(testConfig(10))
		res, err := s.LoadFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, 2, res.TotalRows)

		page, err := s.LoadPage(context.Background(), 0, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"alice", "90"}, {"bob, jr", "85"}}, texts(page.Rows))
	})
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, err := ReadXLSX(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)
}
