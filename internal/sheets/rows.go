package sheets

import (
	"fmt"
	"slices"
	"strings"

	"finreport/internal/core"
)

// headerScanDepth bounds how many leading rows are searched for the header.
const headerScanDepth = 20

// ParseRows maps a raw cell matrix to a transactions table.
//
// The header is the first row (within headerScanDepth) that contains the
// operation-date label; labels are matched ignoring case and repeated spaces.
// Unknown columns are ignored. Operation dates must be DD.MM.YYYY HH:MM:SS
// (or a serial date); payment dates are parsed leniently. Unparseable date
// cells become zero times and
// blank or malformed amounts become zero, so no row is dropped for bad data.
func ParseRows(values [][]string) (*core.Table, error) {
	headerIdx := -1
	for i := 0; i < len(values) && i < headerScanDepth; i++ {
		if indexOf(values[i], string(core.ColOperationDate)) >= 0 {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("%w: missing columns %s", core.ErrStructural, core.ColOperationDate)
	}

	header := values[headerIdx]
	cols := make([]core.Column, 0, len(core.KnownColumns))
	idx := make(map[core.Column]int, len(core.KnownColumns))
	for _, c := range core.KnownColumns {
		if i := indexOf(header, string(c)); i >= 0 {
			cols = append(cols, c)
			idx[c] = i
		}
	}
	// Keep source order for report output.
	slices.SortFunc(cols, func(a, b core.Column) int { return idx[a] - idx[b] })

	get := func(row []string, c core.Column) string {
		i, ok := idx[c]
		if !ok {
			return ""
		}
		return strings.TrimSpace(safeGet(row, i))
	}

	rows := make([]core.Transaction, 0, len(values)-headerIdx-1)
	for _, row := range values[headerIdx+1:] {
		if isBlank(row) {
			continue
		}
		tx := core.Transaction{
			PaymentDateRaw:    get(row, core.ColPaymentDate),
			Card:              get(row, core.ColCard),
			Status:            get(row, core.ColStatus),
			OperationCurrency: get(row, core.ColOperationCurrency),
			PaymentCurrency:   get(row, core.ColPaymentCurrency),
			Cashback:          core.ParseOptionalAmount(get(row, core.ColCashback)),
			Category:          get(row, core.ColCategory),
			MCC:               get(row, core.ColMCC),
			Description:       get(row, core.ColDescription),
			Bonuses:           core.ParseOptionalAmount(get(row, core.ColBonuses)),
		}
		if t, err := core.ParseOperationDate(get(row, core.ColOperationDate)); err == nil {
			tx.OperationDate = t
		}
		if t, err := core.ParseDate(tx.PaymentDateRaw); err == nil {
			tx.PaymentDate = t
		}
		if d, err := core.ParseAmount(get(row, core.ColOperationAmount)); err == nil {
			tx.OperationAmount = d
		}
		if d, err := core.ParseAmount(get(row, core.ColPaymentAmount)); err == nil {
			tx.Amount = d
		}
		rows = append(rows, tx)
	}
	return core.NewTable(cols, rows), nil
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func indexOf(arr []string, target string) int {
	want := normalizeLabel(target)
	for i, v := range arr {
		if normalizeLabel(v) == want {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
