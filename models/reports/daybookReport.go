package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type DayBookRow struct {
	TransactionDate   time.Time       `json:"transactionDate"`
	TransactionNumber string          `json:"transactionNumber"`
	TransactionType   string          `json:"transactionType"`
	PartyId           *int            `json:"partyId,omitempty"`
	PartyName         *string         `json:"partyName,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	PendingAmount     decimal.Decimal `json:"pendingAmount"`
	CurrentStatus     string          `json:"currentStatus"`
	DueDate           *time.Time      `json:"dueDate,omitempty"`
}

const dayBookReportSQL = `
SELECT
    bt.transaction_date,
    bt.transaction_number,
    bt.kind AS transaction_type,
    bt.party_id,
    parties.name AS party_name,
    bt.amount,
    bt.paid_amount,
    bt.pending_amount,
    bt.current_status,
    bt.due_date
FROM
    business_transactions bt
    LEFT JOIN parties ON parties.id = bt.party_id
WHERE
    bt.business_id = @businessId
    AND bt.transaction_date >= @fromDate
    AND bt.transaction_date < @toDate
    {{- if .PartyId }} AND bt.party_id = @partyId {{- end }}
ORDER BY
    bt.transaction_date,
    bt.id
`

// GetDayBookReport lists every ledger row in a date range, sales and
// purchases unioned, oldest first. Pending amounts come from the cached
// columns so the report never disagrees with the ledger.
func GetDayBookReport(ctx context.Context, startDate time.Time, endDate time.Time, partyId *int) ([]*DayBookRow, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	sql, err := utils.ExecTemplate(dayBookReportSQL, map[string]interface{}{
		"PartyId": utils.DereferencePtr(partyId, 0) > 0,
	})
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*DayBookRow
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId": businessId,
		"partyId":    partyId,
		"fromDate":   utils.DateOnly(startDate),
		"toDate":     utils.DateOnly(endDate).AddDate(0, 0, 1),
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

// ExportDayBookExcel streams the day-book rows as an xlsx workbook.
func ExportDayBookExcel(w io.Writer, rows []*DayBookRow) error {
	f := excelize.NewFile()
	sheetName := "DayBook"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// Add headers
	f.SetCellValue(sheetName, "A1", "Date")
	f.SetCellValue(sheetName, "B1", "Number")
	f.SetCellValue(sheetName, "C1", "Type")
	f.SetCellValue(sheetName, "D1", "Party")
	f.SetCellValue(sheetName, "E1", "Amount")
	f.SetCellValue(sheetName, "F1", "Paid")
	f.SetCellValue(sheetName, "G1", "Pending")
	f.SetCellValue(sheetName, "H1", "Status")
	f.SetCellValue(sheetName, "I1", "DueDate")

	// Add data
	for i, d := range rows {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+row, d.TransactionDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, "B"+row, d.TransactionNumber)
		f.SetCellValue(sheetName, "C"+row, d.TransactionType)
		f.SetCellValue(sheetName, "D"+row, utils.DereferencePtr(d.PartyName, ""))
		f.SetCellValue(sheetName, "E"+row, utils.FormatINRLedger(d.Amount))
		f.SetCellValue(sheetName, "F"+row, utils.FormatINRLedger(d.PaidAmount))
		f.SetCellValue(sheetName, "G"+row, utils.FormatINRLedger(d.PendingAmount))
		f.SetCellValue(sheetName, "H"+row, d.CurrentStatus)
		if d.DueDate != nil {
			f.SetCellValue(sheetName, "I"+row, d.DueDate.Format("2006-01-02"))
		}
	}

	return f.Write(w)
}
