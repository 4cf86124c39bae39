package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/xtxerr/medallion/internal/model"
	"github.com/xtxerr/medallion/internal/schema"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxDateFormat  = "yyyy-mm-dd"
	xlsxMoneyFormat = "0.0000"
)

// XLSXSink writes xlsx/<File> with one sheet per dataset.
type XLSXSink struct {
	File string
}

func (s *XLSXSink) Name() string { return "xlsx" }

func (s *XLSXSink) Write(ctx context.Context, dir string, datasets []Dataset) ([]string, error) {
	path := filepath.Join(dir, "xlsx", s.File)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	dateFmt, moneyFmt := xlsxDateFormat, xlsxMoneyFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, fmt.Errorf("date style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}

	for i := range datasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := &datasets[i]
		if err := writeSheet(f, d, dateStyle, moneyStyle); err != nil {
			return nil, fmt.Errorf("%s: %w", d.Name(), err)
		}
	}

	if len(datasets) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
		f.SetActiveSheet(0)
	}

	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	return []string{path}, nil
}

func writeSheet(f *excelize.File, d *Dataset, dateStyle, moneyStyle int) error {
	sheet := d.Name()
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]any, len(d.Table.Columns))
	for i, c := range d.Table.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range d.Rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, r+2)
			if err != nil {
				return err
			}
			if err := setCell(f, sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if len(d.Rows) == 0 {
		return nil
	}
	for j, c := range d.Table.Columns {
		style := 0
		switch c.Type {
		case schema.TypeDate:
			style = dateStyle
		case schema.TypeDecimal:
			style = moneyStyle
		default:
			continue
		}
		top, err := excelize.CoordinatesToCellName(j+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(j+1, len(d.Rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, top, bottom, style); err != nil {
			return err
		}
	}
	return nil
}

// setCell writes one non-null cell. Dates become date cells. Amounts are
// stored as numeric cells holding their exact four-digit decimal text, so no
// binary float rounding reaches the file.
func setCell(f *excelize.File, sheet, cell string, v any) error {
	switch x := v.(type) {
	case model.Date:
		return f.SetCellValue(sheet, cell, x.Time())
	case decimal.Decimal:
		return f.SetCellDefault(sheet, cell, model.FormatMoney(x))
	default:
		return f.SetCellValue(sheet, cell, v)
	}
}
