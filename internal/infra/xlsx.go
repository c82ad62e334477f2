package infra

import (
	"fmt"
	"io"

	"stockroom/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var inventoryExportHeader = []string{
	"ID", "SKU", "Name", "Category", "Quantity", "Min stock", "Unit", "Price", "Total value", "Status",
}

// WriteInventoryXLSX writes one sheet with a row per item.
func WriteInventoryXLSX(w io.Writer, items []model.InventoryItem) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Inventory"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for i, h := range inventoryExportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, item := range items {
		row := i + 2
		sku := ""
		if item.SKU != nil {
			sku = *item.SKU
		}
		category := ""
		if item.Category != nil {
			category = item.Category.Name
		}
		price, _ := item.Price.Float64()
		value, _ := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Float64()
		values := []interface{}{
			item.ID, sku, item.Name, category, item.Quantity, item.MinStockLevel,
			item.UnitOfMeasure, price, value, item.Status(),
		}
		for col, v := range values {
			if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", columnName(col+1), row), v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func columnName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}
