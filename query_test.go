package datascope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/datascope/domain/model"
)

func TestQueryPage(t *testing.T) {
	t.Parallel()

	page, err := Parse("region,sales\nnorth,10\nsouth,5.5\nnorth,2\nsouth,\n", ',')
	require.NoError(t, err)

	t.Run("aggregate", func(t *testing.T) {
		t.Parallel()

		result, err := QueryPage(context.Background(), page,
			"SELECT region, SUM(sales) AS total, COUNT(*) AS n FROM page GROUP BY region ORDER BY region")
		require.NoError(t, err)
		assert.Equal(t, model.Header{"region", "total", "n"}, result.Headers)
		require.Len(t, result.Rows, 2)

		assert.Equal(t, model.TextCell("north"), result.Rows[0][0])
		assert.Equal(t, model.NumberCell(12), result.Rows[0][1])
		assert.Equal(t, model.NumberCell(2), result.Rows[0][2])
		assert.Equal(t, model.NumberCell(5.5), result.Rows[1][1])
	})

	t.Run("empty numeric cells are null", func(t *testing.T) {
		t.Parallel()

		result, err := QueryPage(context.Background(), page, "SELECT COUNT(*) FROM page WHERE sales IS NULL")
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Equal(t, model.NumberCell(1), result.Rows[0][0])
	})

	t.Run("duplicate result columns", func(t *testing.T) {
		t.Parallel()

		result, err := QueryPage(context.Background(), page, "SELECT sales AS v, region AS v FROM page LIMIT 1")
		require.NoError(t, err)
		assert.Equal(t, model.Header{"v", "v_1"}, result.Headers)
	})

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()

		result, err := QueryPage(context.Background(), page, "SELECT * FROM page WHERE sales > 100")
		require.NoError(t, err)
		assert.NotNil(t, result.Rows)
		assert.Empty(t, result.Rows)
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()

		_, err := QueryPage(context.Background(), page, "SELEC nothing")
		assert.Error(t, err)
	})
}

func TestQueryPage_CaseInsensitiveHeaders(t *testing.T) {
	t.Parallel()

	page, err := Parse("Value,value,VALUE_1\n1,2,3\n", ',')
	require.NoError(t, err)

	result, err := QueryPage(context.Background(), page, "SELECT * FROM page")
	require.NoError(t, err)
	assert.Equal(t, model.Header{"Value", "value_1", "VALUE_1_1"}, result.Headers)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, model.Record{model.NumberCell(1), model.NumberCell(2), model.NumberCell(3)}, result.Rows[0])

	result, err = QueryPage(context.Background(), page, "SELECT value_1 FROM page")
	require.NoError(t, err)
	assert.Equal(t, model.NumberCell(2), result.Rows[0][0])
}

func TestSQLColumnNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		headers model.Header
		want    []string
	}{
		{model.Header{"a", "b"}, []string{"a", "b"}},
		{model.Header{"Value", "value"}, []string{"Value", "value_1"}},
		{model.Header{"x", "X", "x_1"}, []string{"x", "X_1", "x_1_1"}},
		{model.Header{"id", "ID", "Id"}, []string{"id", "ID_1", "Id_2"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqlColumnNames(tt.headers))
	}
}

func TestQueryPage_NoPage(t *testing.T) {
	t.Parallel()

	_, err := QueryPage(context.Background(), nil, "SELECT 1")
	assert.ErrorIs(t, err, ErrNoValidRows)
}

func TestQueryPageReadOnly(t *testing.T) {
	t.Parallel()

	page, err := Parse(sequentialCSV(4), ',')
	require.NoError(t, err)

	for _, q := range []string{"DELETE FROM page", "DROP TABLE page", "insert into page values (1, 2)"} {
		_, err := QueryPageReadOnly(context.Background(), page, q)
		assert.ErrorIs(t, err, errQueryNotReadOnly, q)
	}

	result, err := QueryPageReadOnly(context.Background(), page,
		"  with t AS (SELECT value FROM page WHERE id >= 2) SELECT MAX(value) FROM t")
	require.NoError(t, err)
	assert.Equal(t, model.NumberCell(6), result.Rows[0][0])
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"a ""b"""`, quoteIdent(`a "b"`))
}
