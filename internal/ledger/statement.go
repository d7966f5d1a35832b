package ledger

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

const statementSheet = "Statement"

var statementHeader = []string{"Date", "ID", "Title", "Category", "Type", "Amount", "Balance After"}

func statementRow(tx models.Transaction) []string {
	return []string{
		tx.Date.String(),
		tx.ID,
		tx.Title,
		string(tx.Category),
		string(tx.Direction),
		tx.Amount.StringFixed(2),
		tx.BalanceAfter.StringFixed(2),
	}
}

// WriteCSV writes the history as CSV in the order given.
func WriteCSV(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statementHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		if err := cw.Write(statementRow(tx)); err != nil {
			return fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the history as a single-sheet workbook. Amount columns
// are numeric cells.
func WriteXLSX(w io.Writer, txs []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(statementHeader))
	for i, h := range statementHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(statementSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			tx.Date.String(),
			tx.ID,
			tx.Title,
			string(tx.Category),
			string(tx.Direction),
			tx.Amount.InexactFloat64(),
			tx.BalanceAfter.InexactFloat64(),
		}
		if err := f.SetSheetRow(statementSheet, cell, &row); err != nil {
			return fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}

	_ = f.SetColWidth(statementSheet, "A", "B", 18)
	_ = f.SetColWidth(statementSheet, "C", "C", 30)
	_ = f.SetColWidth(statementSheet, "D", "G", 14)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
