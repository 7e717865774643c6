package excel

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finreport/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "operations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestFile_LoadXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Дата операции", "Дата платежа", "Номер карты", "Сумма платежа", "Кэшбэк", "Категория", "Описание"},
		{"31.12.2021 16:44:00", "31.12.2021", "*7197", -160.89, "", "Супермаркеты", "Колхоз"},
		{"30.12.2021 17:50:30", "30.12.2021", "*5091", -20, 1, "Переводы", "Линзомат"},
		{"not a date", "", "*5091", "", "", "", ""},
	})

	table, err := New(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	assert.Equal(t, []core.Column{
		core.ColOperationDate, core.ColPaymentDate, core.ColCard, core.ColPaymentAmount,
		core.ColCashback, core.ColCategory, core.ColDescription,
	}, table.Columns())

	rows := table.Rows()
	assert.Equal(t, time.Date(2021, 12, 31, 16, 44, 0, 0, time.Local), rows[0].OperationDate)
	assert.Equal(t, "*7197", rows[0].Card)
	assert.Equal(t, "-160.89", rows[0].Amount.String())
	assert.Nil(t, rows[0].Cashback)
	require.NotNil(t, rows[1].Cashback)
	assert.Equal(t, "1", rows[1].Cashback.String())

	// Bad cells are kept with zero values.
	assert.False(t, rows[2].HasOperationDate())
	assert.True(t, rows[2].Amount.IsZero())
}

func TestFile_LoadSkipsPreamble(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Выписка по счёту"},
		{},
		{"дата  операции", "Сумма платежа"},
		{"01.01.2022 10:00:00", -5},
	})

	table, err := New(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.True(t, table.HasColumn(core.ColOperationDate))
}

func TestFile_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.xlsx") },
		},
		{
			name: "missing xls file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.xls") },
		},
		{
			name: "no operation date column",
			path: func(t *testing.T) string {
				return writeWorkbook(t, [][]any{{"Сумма платежа", "Категория"}, {-1, "Такси"}})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.path(t)).Load(context.Background())
			if !errors.Is(err, core.ErrStructural) {
				t.Fatalf("expected ErrStructural, got %v", err)
			}
		})
	}
}

func TestFile_Name(t *testing.T) {
	if got := New("data/operations.xlsx").Name(); got != "data/operations.xlsx" {
		t.Fatalf("Name() = %q", got)
	}
}
