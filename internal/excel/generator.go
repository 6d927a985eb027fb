package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/handshakehq/handshake-core/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.DealReport) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Deals"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Provider")
	set("B1", report.Seller.DisplayName)
	set("A2", "Period start")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(report.PeriodEnd))
	set("A4", "Completed deals")
	set("B4", len(report.Deals))
	set("A5", "Total earned")
	set("B5", formatAmount(report.TotalEarned))

	tableRow := 7
	headers := []string{
		"Deal ID",
		"Created",
		"Started",
		"Completed",
		"Agreed price",
		"Agreed scope",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, deal := range report.Deals {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), deal.ID.String())
		set(fmt.Sprintf("B%d", row), formatDateTime(deal.CreatedAt))
		set(fmt.Sprintf("C%d", row), formatTimePtr(deal.StartedAt))
		set(fmt.Sprintf("D%d", row), formatTimePtr(deal.CompletedAt))
		set(fmt.Sprintf("E%d", row), formatAmount(deal.AgreedPrice))
		set(fmt.Sprintf("F%d", row), deal.AgreedScope)
	}

	_ = file.SetColWidth(sheet, "A", "A", 38)
	_ = file.SetColWidth(sheet, "B", "D", 20)
	_ = file.SetColWidth(sheet, "E", "E", 14)
	_ = file.SetColWidth(sheet, "F", "F", 60)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDateTime(*t)
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
