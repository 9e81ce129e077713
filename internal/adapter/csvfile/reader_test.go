package csvfile

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/carwash-ops/internal/domain"
)

func TestRead(t *testing.T) {
	input := "\xEF\xBB\xBForderId,licensePlate,time,total\n" +
		"1,ABC123,2024-06-03 09:15,$12.50\n" +
		"\n" +
		"2,\"XYZ, 789\",2024-06-03 10:00,8\n" +
		"3,SHORT\n"

	got, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	want := domain.Table{
		Header: []string{"orderId", "licensePlate", "time", "total"},
		Rows: []domain.Row{
			{Line: 2, Values: []string{"1", "ABC123", "2024-06-03 09:15", "$12.50"}},
			{Line: 4, Values: []string{"2", "XYZ, 789", "2024-06-03 10:00", "8"}},
			{Line: 5, Values: []string{"3", "SHORT"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = Read(strings.NewReader("\n\n"))
	require.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestRead_HeaderOnly(t *testing.T) {
	_, err := Read(strings.NewReader("time,total\n"))
	require.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestRead_LazyQuotes(t *testing.T) {
	got, err := Read(strings.NewReader("time,total,note\n2024-06-03 09:00,5,say \"hi\"\n"))
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, `say "hi"`, got.Rows[0].Values[2])
}

func TestRead_FeedsNormalizer(t *testing.T) {
	table, err := Read(strings.NewReader("time,total\n2024-06-03 09:00,5\nnope,5\n"))
	require.NoError(t, err)

	res, err := domain.Normalize(table, domain.DefaultColumnMapping(), time.UTC)
	require.NoError(t, err)
	assert.Len(t, res.Transactions, 1)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 3, res.Rejected[0].Line)
}
