package utils

import (
	"bytes"
	"fmt"
	"society_tickets/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// TicketPDF renders one A5 page per attendee with the booking code and its
// QR image.
func TicketPDF(event model.Event, attendees []model.Attendee) ([]byte, error) {
	if len(attendees) == 0 {
		return nil, fmt.Errorf("no attendees to render")
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(event.Name+" tickets", true)
	pdf.SetAuthor("Somali Society", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	start, end := EventWindow(event)
	when := fmt.Sprintf("%s, %s - %s", start.Format("Mon 2 Jan 2006"), start.Format("15:04"), end.Format("15:04"))

	for i, a := range attendees {
		png, err := GenerateQRCode(a.Code, QRSize)
		if err != nil {
			return nil, fmt.Errorf("qr for %s: %w", a.Code, err)
		}
		imgName := fmt.Sprintf("qr-%d", i)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(png))

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 18)
		pdf.CellFormat(0, 12, tr(event.Name), "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(when), "", 1, "C", false, 0, "")
		if event.Location != "" {
			pdf.CellFormat(0, 7, tr(event.Location), "", 1, "C", false, 0, "")
		}

		pageW, _ := pdf.GetPageSize()
		size := 70.0
		pdf.ImageOptions(imgName, (pageW-size)/2, pdf.GetY()+6, size, size, false, opts, 0, "")
		pdf.SetY(pdf.GetY() + size + 12)

		pdf.SetFont("Courier", "B", 20)
		pdf.CellFormat(0, 10, a.Code, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, tr(a.Name), "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, fmt.Sprintf("Ticket %d of %d", i+1, len(attendees)), "", 1, "C", false, 0, "")
		if !event.Price.IsZero() {
			pdf.CellFormat(0, 6, "Price: "+FormatMoney(event.Price), "", 1, "C", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatMoney prints a decimal price with two places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatMinor prints an amount in minor units (pence) with two places.
func FormatMinor(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
