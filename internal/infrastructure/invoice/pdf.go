// Package invoice renders sale invoices as PDF documents.
package invoice

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/iho/emart/internal/domain"
)

const dateLayout = "02 Jan 2006"

// Renderer draws A4 invoices for sales.
type Renderer struct {
	shopName string
}

// NewRenderer creates a Renderer that prints shopName in the header.
func NewRenderer(shopName string) *Renderer {
	if shopName == "" {
		shopName = "E-Mart"
	}
	return &Renderer{shopName: shopName}
}

// Render writes the invoice of sale to w. The sale must carry its customer
// and items; payment details are printed when loaded.
func (r *Renderer) Render(w io.Writer, sale *domain.Sale) error {
	if sale == nil {
		return errors.New("invoice: nil sale")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(fmt.Sprintf("Invoice #%d", sale.ID), true)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 10, r.shopName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Sale invoice #%d", sale.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 6, sale.CreatedAt.Format(dateLayout), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	r.customer(pdf, contentW, sale.Customer)
	r.items(pdf, contentW, sale)

	switch {
	case sale.FullPayment != nil:
		r.fullPayment(pdf, contentW, sale.FullPayment)
	case sale.InstallmentPlan != nil:
		r.plan(pdf, contentW, sale.InstallmentPlan)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Payment status: "+string(sale.PaymentStatus), "", 1, "L", false, 0, "")

	if sale.BookRecord != nil {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(contentW, 5,
			fmt.Sprintf("Recorded in %s, page %d", sale.BookRecord.BookName, sale.BookRecord.PageNumber),
			"", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("invoice: write pdf: %w", err)
	}
	return nil
}

func (r *Renderer) customer(pdf *fpdf.Fpdf, width float64, c *domain.Customer) {
	if c == nil {
		return
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(width, 6, "Customer", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(width, 5, c.FullName(), "", 1, "L", false, 0, "")
	pdf.CellFormat(width, 5, "Phone: "+c.PhoneNumber+"   CNIC: "+c.CNIC, "", 1, "L", false, 0, "")
	if c.Address != nil {
		pdf.CellFormat(width, 5,
			fmt.Sprintf("%s, %s, %s, %s", c.Address.Detail, c.Address.Tehsil, c.Address.District, c.Address.City),
			"", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (r *Renderer) items(pdf *fpdf.Fpdf, width float64, sale *domain.Sale) {
	colProduct := width * 0.55
	colQty := width * 0.15
	colPrice := width * 0.30

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colProduct, 7, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, 7, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(colPrice, 7, "Price", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range sale.Items {
		pdf.CellFormat(colProduct, 6, productLabel(item), "", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, 6, money(item.Price), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colProduct+colQty, 7, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(colPrice, 7, money(sale.Total()), "T", 1, "R", false, 0, "")
	pdf.Ln(4)
}

func (r *Renderer) fullPayment(pdf *fpdf.Fpdf, width float64, fp *domain.FullPayment) {
	label := width * 0.70
	value := width * 0.30

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(width, 6, "Full payment", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(label, 5, "Amount", "", 0, "L", false, 0, "")
	pdf.CellFormat(value, 5, money(fp.PurchaseAmount), "", 1, "R", false, 0, "")
	if !fp.Discount.IsZero() {
		pdf.CellFormat(label, 5, "Discount", "", 0, "L", false, 0, "")
		pdf.CellFormat(value, 5, "-"+money(fp.Discount), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(label, 6, "Total after discount", "", 0, "L", false, 0, "")
	pdf.CellFormat(value, 6, money(fp.TotalAfterDiscount()), "", 1, "R", false, 0, "")
}

func (r *Renderer) plan(pdf *fpdf.Fpdf, width float64, plan *domain.InstallmentPlan) {
	label := width * 0.70
	value := width * 0.30

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(width, 6, "Installment plan", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range []struct {
		name   string
		amount decimal.Decimal
	}{
		{"Total price", plan.TotalPrice},
		{"Down payment", plan.DownPayment},
		{"Remaining", plan.RemainingPrice},
	} {
		pdf.CellFormat(label, 5, row.name, "", 0, "L", false, 0, "")
		pdf.CellFormat(value, 5, money(row.amount), "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(label, 5, "Period (months)", "", 0, "L", false, 0, "")
	pdf.CellFormat(value, 5, fmt.Sprintf("%d", plan.InstallmentPeriod), "", 1, "R", false, 0, "")

	if len(plan.Installments) == 0 {
		return
	}

	pdf.Ln(3)
	col := width / 4
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Due date", "Expected", "Paid", "Paid on"} {
		ln := 0
		if i == 3 {
			ln = 1
		}
		pdf.CellFormat(col, 6, h, "B", ln, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, inst := range plan.Installments {
		paid, paidOn := "-", "-"
		if inst.IsPaid() {
			paid = money(*inst.ActualPayment)
			if inst.PaidAt != nil {
				paidOn = inst.PaidAt.Format(dateLayout)
			}
		}
		pdf.CellFormat(col, 5, inst.DueDate.Format(dateLayout), "", 0, "C", false, 0, "")
		pdf.CellFormat(col, 5, money(inst.ExpectedPayment), "", 0, "C", false, 0, "")
		pdf.CellFormat(col, 5, paid, "", 0, "C", false, 0, "")
		pdf.CellFormat(col, 5, paidOn, "", 1, "C", false, 0, "")
	}
}

func productLabel(item *domain.LineItem) string {
	if item.Product == nil {
		return fmt.Sprintf("Product #%d", item.ProductID)
	}
	label := item.Product.Model
	if item.Product.Company != nil {
		label = item.Product.Company.Name + " " + label
	}
	return label
}

func money(d decimal.Decimal) string {
	return "Rs " + d.StringFixed(0)
}
