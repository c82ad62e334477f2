package infra

// pdf.go renders a purchase order as an A4 document with go-pdf/fpdf.
// Layout: company header, reference and dates, vendor block, item table
// (item, quantity, unit price, line total, received), total, notes.
// The file is written to storagePath/po_{reference}.pdf.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"stockroom/internal/model"

	"github.com/go-pdf/fpdf"
)

// GeneratePurchaseOrderPDF writes the document to storagePath and returns its path.
func GeneratePurchaseOrderPDF(po *model.PurchaseOrder, companyName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	fileName := fmt.Sprintf("po_%s.pdf", sanitizeFileName(po.ReferenceNumber))
	filePath := filepath.Join(storagePath, fileName)

	pdf := buildPurchaseOrderPDF(po, companyName)
	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// WritePurchaseOrderPDF streams the document to w.
func WritePurchaseOrderPDF(w io.Writer, po *model.PurchaseOrder, companyName string) error {
	pdf := buildPurchaseOrderPDF(po, companyName)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}

func buildPurchaseOrderPDF(po *model.PurchaseOrder, companyName string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, companyName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, "Purchase Order "+po.ReferenceNumber, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Status: "+po.Status, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Date: "+po.CreatedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	if po.ExpectedDeliveryDate != nil {
		pdf.CellFormat(contentW, 5, "Expected delivery: "+po.ExpectedDeliveryDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	}
	if po.ReceivedDate != nil {
		pdf.CellFormat(contentW, 5, "Received: "+po.ReceivedDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Vendor ───────────────────────────────────────────────────────────────
	if po.Vendor != nil {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 6, "Vendor", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW, 5, po.Vendor.Name, "", 1, "L", false, 0, "")
		for _, line := range []*string{po.Vendor.ContactPerson, po.Vendor.Email, po.Vendor.Phone, po.Vendor.Address} {
			if line != nil && *line != "" {
				pdf.CellFormat(contentW, 5, *line, "", 1, "L", false, 0, "")
			}
		}
		pdf.Ln(3)
	}

	// ── Items ────────────────────────────────────────────────────────────────
	widths := []float64{contentW * 0.40, contentW * 0.12, contentW * 0.16, contentW * 0.18, contentW * 0.14}
	headers := []string{"Item", "Qty", "Unit price", "Total", "Received"}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 6, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range po.Items {
		name := fmt.Sprintf("#%d", item.InventoryID)
		if item.Inventory != nil {
			name = item.Inventory.Name
		}
		if len(name) > 45 {
			name = name[:44] + "..."
		}
		pdf.CellFormat(widths[0], 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, item.TotalPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%d", item.ReceivedQuantity), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Total ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 7, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(widths[3], 7, po.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if po.Notes != nil && *po.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, "Notes: "+*po.Notes, "", "L", false)
	}
	return pdf
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
