// Пакет render — построение PDF-квитанции авторизации.
//
// Раскладка (перенос строк, пагинация, вписывание подписи) выполняется
// чистыми функциями над явным состоянием Layout; fpdf используется
// только для отрисовки готового списка операций.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily     = "Helvetica"
	signatureImage = "signature"
)

// Renderer строит PDF. Не хранит состояния между вызовами и безопасен
// для конкурентного использования.
type Renderer struct {
	geo Geometry
}

// NewRenderer создаёт генератор для страницы A4.
func NewRenderer() *Renderer {
	return &Renderer{geo: A4}
}

// Render строит PDF для документа. Даты создания и изменения PDF равны
// acceptedAt, поэтому одинаковые входные данные дают одинаковые байты.
func (r *Renderer) Render(doc *Document, acceptedAt time.Time) ([]byte, error) {
	var sig *preparedSignature
	if len(doc.Signature) > 0 {
		var err error
		sig, err = prepareSignature(doc.Signature)
		if err != nil {
			return nil, err
		}
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(acceptedAt)
	pdf.SetModificationDate(acceptedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Comprovante de autorizacao", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	measure := func(text string, st Style) float64 {
		setFont(pdf, st)
		return pdf.GetStringWidth(tr(text))
	}

	var sigW, sigH float64
	if sig != nil {
		sigW, sigH = sig.width, sig.height
		pdf.RegisterImageOptionsReader(signatureImage,
			fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(sig.png))
	}

	layout := Plan(doc, r.geo, measure, sigW, sigH)
	paint(pdf, layout, tr)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("генерация PDF: %w", err)}
	}
	return buf.Bytes(), nil
}

// paint переносит операции раскладки на страницы PDF.
func paint(pdf *fpdf.Fpdf, layout *Layout, tr func(string) string) {
	ops := layout.Ops()
	next := 0
	for page := 0; page < layout.Pages(); page++ {
		pdf.AddPage()
		for ; next < len(ops) && ops[next].Page == page; next++ {
			op := ops[next]
			switch op.Kind {
			case OpText:
				setFont(pdf, op.Style)
				pdf.SetTextColor(26, 26, 26)
				pdf.Text(op.X, op.Y, tr(op.Text))
			case OpImage:
				pdf.ImageOptions(signatureImage, op.X, op.Y, op.Width, op.Height,
					false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			}
		}
	}
}

func setFont(pdf *fpdf.Fpdf, st Style) {
	style := ""
	if st.Bold {
		style = "B"
	}
	pdf.SetFont(fontFamily, style, st.Size)
}
