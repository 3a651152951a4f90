package infra

import (
	"fmt"
	"strings"
	"time"

	"farmapos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const formatoQuetzal = `"Q"#,##0.00`

type columna struct {
	titulo string
	ancho  float64
}

var columnasReporte = []columna{
	{"Fecha", 15}, {"Hora", 10}, {"Producto", 40}, {"Código de Barras", 15},
	{"Cantidad", 12}, {"Tipo de Venta", 15}, {"Tipo de Pago", 30},
	{"Precio Unitario", 15}, {"FAC", 15}, {"Subtotal", 15},
}

var columnasHistorico = []columna{
	{"Código de Barras", 15}, {"Nombre", 30}, {"Fecha de Vencimiento", 20},
	{"Casa Farmaceutica", 25}, {"Tipo de Pago", 15}, {"Precio Unidad", 15},
	{"Precio Blister", 15}, {"Precio Caja", 15}, {"Tipos", 25},
	{"Fecha de Eliminación", 20}, {"Razón de Eliminación", 20},
}

// ReportesExcel renders one row per sale line of reps into a single-sheet workbook,
// closed by a total row.
func ReportesExcel(reps []model.Reporte, loc *time.Location) ([]byte, error) {
	const hoja = "Reporte de Ventas"
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", hoja); err != nil {
		return nil, err
	}
	if err := encabezado(f, hoja, columnasReporte, "2F75B5"); err != nil {
		return nil, err
	}
	moneda, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(formatoQuetzal)})
	if err != nil {
		return nil, err
	}

	fila := 2
	total := decimal.Zero
	for _, rep := range reps {
		for _, v := range rep.Ventas {
			t := v.CreatedAt.In(loc)
			pago := describirPagos(v.Pagos)
			for _, it := range v.Items {
				valores := []any{
					t.Format("02/01/2006"),
					t.Format("15:04"),
					it.Nombre,
					valorOGuion(it.Barcode),
					it.Cantidad,
					EtiquetaTipoVenta(it.TipoVenta),
					pago,
					it.Precio.InexactFloat64(),
					etiquetaFiscal(it.TipoFiscal),
					it.Subtotal.InexactFloat64(),
				}
				if err := escribirFila(f, hoja, fila, valores); err != nil {
					return nil, err
				}
				total = total.Add(it.Subtotal)
				fila++
			}
		}
	}
	if fila > 2 {
		if err := f.SetCellStyle(hoja, "H2", fmt.Sprintf("H%d", fila-1), moneda); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(hoja, "J2", fmt.Sprintf("J%d", fila-1), moneda); err != nil {
			return nil, err
		}
	}

	if err := escribirFila(f, hoja, fila, []any{"Total", "", "", "", "", "", "", "", "", total.InexactFloat64()}); err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E2EFD9"}},
		CustomNumFmt: ptr(formatoQuetzal),
	})
	if err != nil {
		return nil, err
	}
	celda := fmt.Sprintf("J%d", fila)
	if err := f.SetCellStyle(hoja, celda, celda, totalStyle); err != nil {
		return nil, err
	}
	negrita, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(hoja, fmt.Sprintf("A%d", fila), fmt.Sprintf("I%d", fila), negrita); err != nil {
		return nil, err
	}
	return escribir(f)
}

// HistoricoExcel renders the archived products, newest deletion first as given.
func HistoricoExcel(items []model.HistoricoProducto, loc *time.Location) ([]byte, error) {
	const hoja = "Histórico de Productos"
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", hoja); err != nil {
		return nil, err
	}
	if err := encabezado(f, hoja, columnasHistorico, "2563EB"); err != nil {
		return nil, err
	}

	for i, h := range items {
		valores := []any{
			h.Barcode,
			h.Nombre,
			h.ExpirationDate.In(loc).Format("02/01/2006"),
			h.PharmaceuticalCompany,
			string(h.TipoFiscal),
			precio(h.Precios.Unidad),
			precio(h.Precios.Blister),
			precio(h.Precios.Caja),
			strings.Join(h.Tipos, ", "),
			h.DeletedAt.In(loc).Format("02/01/2006"),
			string(h.DeletionReason),
		}
		if err := escribirFila(f, hoja, i+2, valores); err != nil {
			return nil, err
		}
	}

	if n := len(items); n > 0 {
		bordes := []excelize.Border{
			{Type: "top", Color: "000000", Style: 1},
			{Type: "left", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		}
		texto, err := f.NewStyle(&excelize.Style{Border: bordes})
		if err != nil {
			return nil, err
		}
		moneda, err := f.NewStyle(&excelize.Style{Border: bordes, CustomNumFmt: ptr(formatoQuetzal)})
		if err != nil {
			return nil, err
		}
		ultima := n + 1
		if err := f.SetCellStyle(hoja, "A2", fmt.Sprintf("K%d", ultima), texto); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(hoja, "F2", fmt.Sprintf("H%d", ultima), moneda); err != nil {
			return nil, err
		}
	}
	return escribir(f)
}

// EtiquetaTipoVenta is the human label of a sale type in exported documents.
func EtiquetaTipoVenta(t model.TipoVenta) string {
	switch t {
	case model.TipoVentaUnidad:
		return "Unidad"
	case model.TipoVentaBlister:
		return "Blister"
	case model.TipoVentaCaja:
		return "Caja"
	}
	return string(t)
}

func etiquetaMetodo(m model.MetodoPago) string {
	switch m {
	case model.PagoEfectivo:
		return "Efectivo"
	case model.PagoTarjeta:
		return "TC"
	case model.PagoTransferencia:
		return "Transferencia"
	}
	return string(m)
}

func etiquetaFiscal(t model.TipoFiscal) string {
	if t == model.TipoFiscalGravado {
		return "Gravado"
	}
	return "Exento"
}

// describirPagos renders "Efectivo Q10.00 + TC Q5.00" for divided payments.
func describirPagos(pagos []model.Pago) string {
	partes := make([]string, 0, len(pagos))
	for _, p := range pagos {
		if !p.Monto.IsPositive() {
			continue
		}
		partes = append(partes, fmt.Sprintf("%s Q%s", etiquetaMetodo(p.Tipo), p.Monto.StringFixed(2)))
	}
	return strings.Join(partes, " + ")
}

func encabezado(f *excelize.File, hoja string, cols []columna, color string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
	if err != nil {
		return err
	}
	titulos := make([]any, len(cols))
	for i, c := range cols {
		titulos[i] = c.titulo
		nombre, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(hoja, nombre, nombre, c.ancho); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(hoja, "A1", &titulos); err != nil {
		return err
	}
	ultima, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(hoja, "A1", ultima, style)
}

func escribirFila(f *excelize.File, hoja string, fila int, valores []any) error {
	celda, err := excelize.CoordinatesToCellName(1, fila)
	if err != nil {
		return err
	}
	return f.SetSheetRow(hoja, celda, &valores)
}

func escribir(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func precio(d *decimal.Decimal) any {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func valorOGuion(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func ptr[T any](v T) *T { return &v }
