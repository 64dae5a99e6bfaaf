// Package document renders invoices, estimates and purchase reports as PDF.
package document

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/entity"
)

const dateLayout = "02/01/2006"

// Module provides the PDF renderer to Fx.
var Module = fx.Provide(NewRenderer)

// Letterhead is printed at the top of every document.
type Letterhead struct {
	Name     string
	Lines    []string
	Currency string
}

// Renderer builds PDF documents from persisted snapshots.
type Renderer struct {
	head Letterhead
	now  func() time.Time
}

// NewRenderer builds a Renderer using the business details from configuration.
func NewRenderer(cfg config.Config) *Renderer {
	return New(Letterhead{
		Name:     cfg.Business.Name,
		Lines:    cfg.Business.Tagline,
		Currency: cfg.Business.Currency,
	})
}

// New builds a Renderer for the given letterhead.
func New(head Letterhead) *Renderer {
	if head.Currency == "" {
		head.Currency = "Rs."
	}
	return &Renderer{head: head, now: time.Now}
}

// column describes one table column: header, width in mm and alignment.
type column struct {
	title string
	width float64
	align string
}

var lineColumns = []column{
	{"No", 12, "C"},
	{"Particulars", 88, "L"},
	{"Qty", 20, "R"},
	{"Rate", 31, "R"},
	{"Total", 31, "R"},
}

// Invoice renders the cash invoice for an order.
func (r *Renderer) Invoice(order *entity.Order) ([]byte, error) {
	if order == nil {
		return nil, fmt.Errorf("nil order")
	}
	pdf, tr := r.newDoc("Invoice " + order.OrderNo)
	r.letterhead(pdf, tr, "CASH INVOICE")

	r.party(pdf, tr, [][2]string{
		{"Invoice No", order.OrderNo},
		{"Date", order.CreatedAt.Format(dateLayout)},
		{"Status", string(order.Status)},
		{"Customer Name", order.CustomerName},
		{"Contact", orDash(order.CustomerContact)},
		{"Address", orDash(order.CustomerAddress)},
	})

	rows := make([][]string, 0, len(order.Items))
	for i, it := range order.Items {
		rows = append(rows, []string{strconv.Itoa(i + 1), it.PlantName, strconv.Itoa(it.Quantity), money(it.Rate), money(it.Total)})
	}
	r.table(pdf, tr, lineColumns, rows)

	r.total(pdf, "Subtotal", order.SubTotal, false)
	if order.Discount.IsPositive() {
		r.total(pdf, "Discount", order.Discount, false)
	}
	if order.Tax.IsPositive() {
		r.total(pdf, "Tax", order.Tax, false)
	}
	r.total(pdf, "Grand Total", order.GrandTotal, true)
	if order.PaidAmount.IsPositive() {
		r.total(pdf, "Paid Amount", order.PaidAmount, false)
		if balance := order.Balance(); balance.IsPositive() {
			r.total(pdf, "Balance", balance, true)
		}
	}

	r.footer(pdf, tr, order.GrandTotal, "Note: Plants once sold cannot be replaced or exchanged.")
	return output(pdf)
}

// Estimate renders a quotation.
func (r *Renderer) Estimate(est *entity.Estimation) ([]byte, error) {
	if est == nil {
		return nil, fmt.Errorf("nil estimation")
	}
	pdf, tr := r.newDoc("Estimate " + est.EstimateNo)
	r.letterhead(pdf, tr, "ESTIMATE")

	r.party(pdf, tr, [][2]string{
		{"Estimate No", est.EstimateNo},
		{"Date", est.CreatedAt.Format(dateLayout)},
		{"Customer Name", est.CustomerName},
		{"Contact", orDash(est.CustomerContact)},
		{"Address", orDash(est.CustomerAddress)},
	})

	rows := make([][]string, 0, len(est.Items))
	for i, it := range est.Items {
		rows = append(rows, []string{strconv.Itoa(i + 1), it.PlantName, strconv.Itoa(it.Quantity), money(it.Rate), money(it.Total)})
	}
	r.table(pdf, tr, lineColumns, rows)

	r.summary(pdf, "Total Items", strconv.Itoa(est.TotalItems), false)
	r.total(pdf, "Grand Total", est.GrandTotal, true)

	r.footer(pdf, tr, est.GrandTotal, "This is an estimate only. Prices and availability are subject to change.")
	return output(pdf)
}

// PurchaseReport renders paid orders as a table of date, customer, contact and items.
func (r *Renderer) PurchaseReport(orders []*entity.Order) ([]byte, error) {
	pdf, tr := r.newDoc("Purchase Report")
	r.letterhead(pdf, tr, "PURCHASE REPORT")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Generated on "+r.now().Format(dateLayout), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	cols := []column{
		{"Date", 24, "L"},
		{"Customer", 40, "L"},
		{"Contact", 28, "L"},
		{"Items", 64, "L"},
		{"Amount", 26, "R"},
	}
	var grand decimal.Decimal
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%s (x%d)", it.PlantName, it.Quantity))
		}
		rows = append(rows, []string{
			o.CreatedAt.Format(dateLayout),
			o.CustomerName,
			orDash(o.CustomerContact),
			strings.Join(items, ", "),
			money(o.GrandTotal),
		})
		grand = grand.Add(o.GrandTotal)
	}
	r.table(pdf, tr, cols, rows)

	r.summary(pdf, "Orders", strconv.Itoa(len(orders)), false)
	r.total(pdf, "Total Sales", grand, true)
	return output(pdf)
}

func (r *Renderer) newDoc(title string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 16)
	pdf.SetTitle(title, true)
	pdf.SetCreator(r.head.Name, true)
	pdf.SetCreationDate(r.now())
	pdf.AddPage()
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func (r *Renderer) letterhead(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, tr(r.head.Name), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range r.head.Lines {
		pdf.MultiCell(0, 4.5, tr(line), "", "C", false)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, title, "TB", 1, "C", false, 0, "")
	pdf.Ln(3)
}

func (r *Renderer) party(pdf *fpdf.Fpdf, tr func(string) string, fields [][2]string) {
	for _, f := range fields {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(34, 5.5, f[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5.5, tr(f[1]), "", "L", false)
	}
	pdf.Ln(3)
}

func (r *Renderer) table(pdf *fpdf.Fpdf, tr func(string) string, cols []column, rows [][]string) {
	const lineHeight = 5.0

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(235, 242, 235)
		for _, c := range cols {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	for _, row := range rows {
		wrapped := make([][]string, len(cols))
		lines := 1
		for i, c := range cols {
			wrapped[i] = pdf.SplitText(tr(row[i]), c.width-2)
			if len(wrapped[i]) > lines {
				lines = len(wrapped[i])
			}
		}
		height := float64(lines)*lineHeight + 2

		if pdf.GetY()+height > pageHeight-bottom {
			pdf.AddPage()
			header()
		}

		left, y := pdf.GetXY()
		x := left
		for i, c := range cols {
			pdf.Rect(x, y, c.width, height, "D")
			pdf.SetXY(x+1, y+1)
			for _, l := range wrapped[i] {
				pdf.CellFormat(c.width-2, lineHeight, l, "", 2, c.align, false, 0, "")
			}
			x += c.width
		}
		pdf.SetXY(left, y+height)
	}
	pdf.Ln(3)
}

func (r *Renderer) total(pdf *fpdf.Fpdf, label string, amount decimal.Decimal, bold bool) {
	r.summary(pdf, label, r.head.Currency+" "+money(amount), bold)
}

func (r *Renderer) summary(pdf *fpdf.Fpdf, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 10)
	pdf.CellFormat(120, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(31, 6, label+":", "", 0, "R", false, 0, "")
	pdf.CellFormat(31, 6, value, "", 1, "R", false, 0, "")
}

func (r *Renderer) footer(pdf *fpdf.Fpdf, tr func(string) string, grandTotal decimal.Decimal, note string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Amount in words: "+AmountInWords(grandTotal), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, note, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(0, 6, "Thank you for your business!", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, tr("For "+r.head.Name), "", 1, "R", false, 0, "")
	pdf.Ln(8)
	pdf.CellFormat(0, 5, "Authorized Signatory", "", 1, "R", false, 0, "")
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
