package utils

import (
	"io"

	"petopia-api/models"

	"github.com/tealeg/xlsx"
)

// XLSXContentType is the media type of the workbook written by WriteUserOrdersWorkbook
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteUserOrdersWorkbook writes the orders-per-user report as an xlsx workbook
func WriteUserOrdersWorkbook(w io.Writer, rows []models.UserOrderCount) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("User Orders")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range []string{"User ID", "Username", "Email", "Orders"} {
		header.AddCell().SetValue(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetValue(r.UserID.Hex())
		row.AddCell().SetValue(r.Username)
		row.AddCell().SetValue(r.Email)
		row.AddCell().SetInt64(r.OrderCount)
	}

	return file.Write(w)
}
