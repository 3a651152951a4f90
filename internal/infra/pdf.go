package infra

// pdf.go: sales report PDF using go-pdf/fpdf. Layout:
//   - header with business name, title and generation time
//   - report info (date or range, status or report count)
//   - summary cards: total sales, products sold, transactions
//   - one block per report with a table per sale

import (
	"bytes"
	"fmt"
	"time"

	"farmapos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const nombreNegocio = "FarmaPOS"

// ReportesPDF renders reps as an A4 document and returns its bytes.
func ReportesPDF(reps []model.Reporte, titulo string, loc *time.Location) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 4, tr(fmt.Sprintf("Generado el %s - Página %d", time.Now().In(loc).Format("02/01/2006 15:04"), pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(contentW, 10, nombreNegocio, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(contentW, 8, tr(titulo), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Report info ──────────────────────────────────────────────────────────
	pdf.SetFillColor(243, 244, 246)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, tr("Información del Reporte"), "", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	izq, der := infoReporte(reps)
	pdf.CellFormat(contentW/2, 6, tr(izq), "", 0, "L", true, 0, "")
	pdf.CellFormat(contentW/2, 6, tr(der), "", 1, "R", true, 0, "")
	pdf.Ln(5)

	// ── Summary cards ────────────────────────────────────────────────────────
	ventas, productos, transacciones := totales(reps)
	cardW := (contentW - 10) / 3
	y := pdf.GetY()
	for i, card := range [][2]string{
		{"Total de Ventas", "Q" + ventas.StringFixed(2)},
		{"Productos Vendidos", fmt.Sprint(productos)},
		{"Transacciones", fmt.Sprint(transacciones)},
	} {
		x := 15 + float64(i)*(cardW+5)
		pdf.SetFillColor(239, 246, 255)
		pdf.Rect(x, y, cardW, 20, "F")
		pdf.SetXY(x, y+3)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(cardW, 5, card[0], "", 2, "C", false, 0, "")
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(cardW, 8, card[1], "", 0, "C", false, 0, "")
	}
	pdf.SetXY(15, y+26)

	// ── Reports ──────────────────────────────────────────────────────────────
	cols := []float64{contentW * 0.40, contentW * 0.12, contentW * 0.14, contentW * 0.16, contentW * 0.18}
	for _, rep := range reps {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(37, 99, 235)
		pdf.CellFormat(contentW, 8, "Reporte "+rep.Fecha, "B", 1, "L", false, 0, "")
		pdf.SetTextColor(30, 30, 30)
		pdf.Ln(2)

		if len(rep.Ventas) == 0 {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.CellFormat(contentW, 6, tr("No hay ventas registradas en este período"), "", 1, "L", false, 0, "")
			pdf.Ln(3)
			continue
		}

		for i, v := range rep.Ventas {
			pdf.SetFillColor(229, 231, 235)
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(cols[0], 6, fmt.Sprintf("Venta #%d", i+1), "", 0, "L", true, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.CellFormat(cols[1]+cols[2]+cols[3], 6, "Fecha: "+v.CreatedAt.In(loc).Format("02/01/2006 15:04"), "", 0, "L", true, 0, "")
			pdf.CellFormat(cols[4], 6, "Total: Q"+v.Total.StringFixed(2), "", 1, "R", true, 0, "")

			pdf.SetFont("Helvetica", "B", 9)
			for j, h := range []string{"Producto", "Cantidad", "Tipo", "Precio", "Subtotal"} {
				pdf.CellFormat(cols[j], 5, h, "B", 0, alineacion(j), false, 0, "")
			}
			pdf.Ln(-1)

			pdf.SetFont("Helvetica", "", 9)
			for _, it := range v.Items {
				nombre := it.Nombre
				if nombre == "" {
					nombre = "Producto no disponible"
				}
				if len([]rune(nombre)) > 40 {
					nombre = string([]rune(nombre)[:39]) + "..."
				}
				pdf.CellFormat(cols[0], 5, tr(nombre), "", 0, "L", false, 0, "")
				pdf.CellFormat(cols[1], 5, fmt.Sprint(it.Cantidad), "", 0, "C", false, 0, "")
				pdf.CellFormat(cols[2], 5, EtiquetaTipoVenta(it.TipoVenta), "", 0, "C", false, 0, "")
				pdf.CellFormat(cols[3], 5, "Q"+it.Precio.StringFixed(2), "", 0, "R", false, 0, "")
				pdf.CellFormat(cols[4], 5, "Q"+it.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
			}
			if !v.TotalDescuento.IsZero() {
				pdf.SetFont("Helvetica", "I", 8)
				pdf.CellFormat(contentW, 5, "Descuento: -Q"+v.TotalDescuento.StringFixed(2), "", 1, "R", false, 0, "")
			}
			pdf.SetFont("Helvetica", "", 8)
			pdf.CellFormat(contentW, 5, tr("Pago: "+describirPagos(v.Pagos)), "", 1, "R", false, 0, "")
			pdf.Ln(3)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

func alineacion(col int) string {
	switch col {
	case 0:
		return "L"
	case 1, 2:
		return "C"
	}
	return "R"
}

func infoReporte(reps []model.Reporte) (string, string) {
	if len(reps) == 1 {
		estado := "Activo"
		if reps[0].Status == model.ReporteCerrado {
			estado = "Cerrado"
		}
		return "Fecha: " + reps[0].Fecha, "Estado: " + estado
	}
	if len(reps) == 0 {
		return "Sin reportes", ""
	}
	desde, hasta := reps[0].Fecha, reps[0].Fecha
	for _, r := range reps[1:] {
		if r.Fecha < desde {
			desde = r.Fecha
		}
		if r.Fecha > hasta {
			hasta = r.Fecha
		}
	}
	return fmt.Sprintf("Período: %s a %s", desde, hasta), fmt.Sprintf("Reportes: %d", len(reps))
}

func totales(reps []model.Reporte) (decimal.Decimal, int, int) {
	ventas := decimal.Zero
	productos, transacciones := 0, 0
	for _, r := range reps {
		ventas = ventas.Add(r.TotalSales)
		productos += r.TotalProducts
		transacciones += len(r.Ventas)
	}
	return ventas, productos, transacciones
}
