package record

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nursia/nursia-api/internal/normalize"
)

const exportSheet = "Registros"

// exportColumns are the dotted canonical paths, in schema order, derived
// from the json tags of normalize.Record.
var exportColumns = leafPaths(reflect.TypeOf(normalize.Record{}), "")

func leafPaths(t reflect.Type, prefix string) []string {
	var paths []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			paths = append(paths, leafPaths(ft, prefix+name+".")...)
			continue
		}
		paths = append(paths, prefix+name)
	}
	return paths
}

// flatten maps each present leaf of the record to its dotted path.
func flatten(r *normalize.Record) (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]any)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			if sub, ok := v.(map[string]any); ok {
				walk(prefix+k+".", sub)
				continue
			}
			out[prefix+k] = v
		}
	}
	walk("", doc)
	return out, nil
}

// cellValue renders booleans the way the paper form does.
func cellValue(v any) any {
	switch b := v.(type) {
	case nil:
		return ""
	case bool:
		if b {
			return "Sim"
		}
		return "Não"
	default:
		return v
	}
}

// ExportXLSX writes one row per record: id, timestamps, then every
// canonical leaf. Absent fields leave the cell empty.
func ExportXLSX(records []*NursingRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(exportColumns)+3)
	header = append(header, "id", "createdAt", "updatedAt")
	for _, col := range exportColumns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	for i, rec := range records {
		values, err := flatten(&rec.Record)
		if err != nil {
			return nil, fmt.Errorf("flatten record %s: %w", rec.ID, err)
		}
		row := make([]interface{}, 0, len(header))
		row = append(row, rec.ID.String(),
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.UpdatedAt.UTC().Format(time.RFC3339))
		for _, col := range exportColumns {
			row = append(row, cellValue(values[col]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
