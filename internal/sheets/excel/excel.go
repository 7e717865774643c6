// Package excel reads bank-export workbooks from disk.
//
// Modern .xlsx/.xlsm files are read with excelize; legacy BIFF .xls files
// with extrame/xls. Only the first worksheet is used.
package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"finreport/internal/core"
	ports "finreport/internal/sheets"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Ensure interface conformance
var _ ports.TransactionSource = (*File)(nil)

// File is a workbook on disk. The file is reopened on every Load so edits
// are picked up without restarting.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string { return f.path }

// Load reads and maps the first worksheet. Open and read failures are
// wrapped in core.ErrStructural.
func (f *File) Load(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		values [][]string
		err    error
	)
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".xls":
		values, err = readXLS(f.path)
	default:
		values, err = readXLSX(f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrStructural, f.path, err)
	}
	return ports.ParseRows(values)
}

func readXLSX(path string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheetsList := wb.GetSheetList()
	if len(sheetsList) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}
	// Raw values keep dates as serial numbers and amounts unformatted.
	return wb.GetRows(sheetsList[0], excelize.Options{RawCellValue: true})
}

func readXLS(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	wb, err := xls.OpenReader(fh, "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no sheets found")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("could not get first sheet")
	}

	maxRow := int(sheet.MaxRow)
	out := make([][]string, 0, maxRow+1)
	for i := 0; i <= maxRow; i++ {
		row := sheet.Row(i)
		if row == nil {
			out = append(out, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		out = append(out, cells)
	}
	return out, nil
}
