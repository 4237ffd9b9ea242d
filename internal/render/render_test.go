package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// fixedMeasure — синтетическая метрика: ширина символа равна половине кегля.
func fixedMeasure(text string, st Style) float64 {
	return float64(len([]rune(text))) * st.Size / 2
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{A: 255})
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func testDocument(termText string, signature []byte) *Document {
	complement := "apto 3"
	return &Document{
		Guardian: model.Guardian{
			FullName:            "Maria da Silva",
			CPF:                 "52998224725",
			BirthDate:           "1985-04-12",
			Email:               "maria@example.com",
			PhonePrimary:        "11999998888",
			PhoneSecondary:      "1133334444",
			CEP:                 "01001000",
			AddressStreet:       "Praça da Sé",
			AddressNumber:       "100",
			AddressComplement:   &complement,
			AddressNeighborhood: "Sé",
			AddressCity:         "São Paulo",
			AddressState:        "SP",
		},
		Student: model.Student{
			FullName:   "João da Silva",
			ClassRoom:  "5A",
			Period:     model.PeriodMorning,
			SchoolName: "Colégio Órion",
		},
		TermText:    termText,
		TermVersion: "v1.0-2026-01-18",
		TermHash:    strings.Repeat("ab", 32),
		AcceptedAt:  "2026-01-18T12:00:00.000Z",
		IP:          "203.0.113.7",
		UserAgent:   "Mozilla/5.0",
		Signature:   signature,
	}
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		name         string
		w, h         float64
		wantW, wantH float64
	}{
		{"широкое уменьшается по ширине", 440, 90, 220, 45},
		{"высокое уменьшается по высоте", 100, 180, 50, 90},
		{"маленькое не увеличивается", 100, 50, 100, 50},
		{"квадрат", 300, 300, 90, 90},
		{"нулевой размер", 0, 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitBox(tt.w, tt.h, SignatureMaxWidth, SignatureMaxHeight)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("FitBox(%v, %v) = (%v, %v), хотели (%v, %v)", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDecodeSignature(t *testing.T) {
	if _, err := DecodeSignature(pngBytes(t, 10, 5)); err != nil {
		t.Errorf("PNG: ошибка %v", err)
	}

	img, err := DecodeSignature(jpegBytes(t, 16, 8))
	if err != nil {
		t.Fatalf("JPEG: ошибка %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("JPEG: размер %v, хотели 16x8", img.Bounds().Size())
	}

	_, err = DecodeSignature([]byte("not an image"))
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("мусор: ошибка %T, хотели *RenderError", err)
	}
	if !errors.Is(err, ErrUndecodableSignature) {
		t.Errorf("мусор: ошибка %v, хотели ErrUndecodableSignature", err)
	}
}

func TestPrepareSignature_ScalesIntoBox(t *testing.T) {
	sig, err := prepareSignature(pngBytes(t, 600, 150))
	if err != nil {
		t.Fatalf("prepareSignature() ошибка: %v", err)
	}
	if sig.width != 220 || sig.height != 55 {
		t.Errorf("размер = %vx%v, хотели 220x55", sig.width, sig.height)
	}
	if _, err := png.Decode(bytes.NewReader(sig.png)); err != nil {
		t.Errorf("перекодированная подпись не PNG: %v", err)
	}
}

func TestPrepareSignature_BoundsRaster(t *testing.T) {
	sig, err := prepareSignature(pngBytes(t, 3000, 1000))
	if err != nil {
		t.Fatalf("prepareSignature() ошибка: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(sig.png))
	if err != nil {
		t.Fatalf("перекодированная подпись не PNG: %v", err)
	}
	if got := img.Bounds().Size(); got.X > 440 || got.Y > 180 {
		t.Errorf("растр подписи %v, хотели не больше 440x180", got)
	}
	if sig.width != 220 {
		t.Errorf("ширина в PDF = %v, хотели 220", sig.width)
	}
}

func TestDecodeSignature_RejectsOversized(t *testing.T) {
	// Сжатый PNG с огромной шириной: растр не должен декодироваться.
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, MaxSignatureSide+1, 1))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	_, err := DecodeSignature(buf.Bytes())
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("ошибка %v, хотели *RenderError", err)
	}
	if !errors.Is(err, ErrSignatureTooLarge) {
		t.Errorf("ошибка %v, хотели ErrSignatureTooLarge", err)
	}

	if _, err := DecodeSignature(pngBytes(t, MaxSignatureSide, 2)); err != nil {
		t.Errorf("подпись на границе допустимого: ошибка %v", err)
	}
}

func TestPlan_SectionOrder(t *testing.T) {
	l := Plan(testDocument("Texto do termo.", []byte{1}), A4, fixedMeasure, 200, 50)

	var headings []string
	imageAfter := ""
	last := ""
	for _, op := range l.Ops() {
		switch op.Kind {
		case OpText:
			if op.Style == StyleHeading || op.Style == StyleTitle {
				headings = append(headings, op.Text)
			}
			last = op.Text
		case OpImage:
			imageAfter = last
			if op.Width != 200 || op.Height != 50 {
				t.Errorf("размер изображения %vx%v, хотели 200x50", op.Width, op.Height)
			}
		}
	}

	want := []string{
		"COMPROVANTE DE AUTORIZACAO DE COMPRAS FATURADAS",
		"DADOS DO RESPONSAVEL",
		"DADOS DO ALUNO",
		"TERMO CONTRATUAL",
		"ASSINATURA ELETRONICA",
		"EVIDENCIAS",
	}
	if !reflect.DeepEqual(headings, want) {
		t.Errorf("порядок секций %q, хотели %q", headings, want)
	}
	if imageAfter != "ASSINATURA ELETRONICA" {
		t.Errorf("изображение после %q, хотели после заголовка подписи", imageAfter)
	}
}

func TestPlan_NoSignature(t *testing.T) {
	l := Plan(testDocument("Texto.", nil), A4, fixedMeasure, 0, 0)
	for _, op := range l.Ops() {
		if op.Kind == OpImage || op.Text == "ASSINATURA ELETRONICA" {
			t.Fatal("без подписи блок подписи не рисуется")
		}
	}
}

func TestPlan_Paginates(t *testing.T) {
	term := strings.Repeat("Clausula com varias palavras para quebrar a linha. ", 400)
	l := Plan(testDocument(term, []byte{1}), A4, fixedMeasure, 220, 90)

	if l.Pages() < 2 {
		t.Fatalf("Pages() = %d, хотели больше одной страницы", l.Pages())
	}

	prevPage := 0
	for _, op := range l.Ops() {
		if op.Page < prevPage {
			t.Fatalf("страницы идут не по порядку: %d после %d", op.Page, prevPage)
		}
		prevPage = op.Page
		if op.Y < A4.Margin || op.Y > A4.PageHeight-A4.Margin {
			t.Errorf("операция %q за пределами полей: y=%v", op.Text, op.Y)
		}
		if op.Kind == OpImage && op.Y+op.Height > A4.PageHeight-A4.Margin {
			t.Errorf("подпись выходит за нижнее поле: y=%v h=%v", op.Y, op.Height)
		}
		if op.Kind == OpText && fixedMeasure(op.Text, op.Style) > A4.ContentWidth() &&
			strings.Contains(op.Text, " ") {
			t.Errorf("строка %q шире области текста", op.Text)
		}
	}
	if ops := l.Ops(); ops[len(ops)-1].Page != l.Pages()-1 {
		t.Errorf("последняя операция на странице %d, всего страниц %d", ops[len(ops)-1].Page, l.Pages())
	}
}

func TestPlan_Deterministic(t *testing.T) {
	term := strings.Repeat("Linha do termo. ", 300)
	a := Plan(testDocument(term, []byte{1}), A4, fixedMeasure, 220, 90)
	b := Plan(testDocument(term, []byte{1}), A4, fixedMeasure, 220, 90)

	if a.Pages() != b.Pages() {
		t.Errorf("число страниц различается: %d != %d", a.Pages(), b.Pages())
	}
	if !reflect.DeepEqual(a.Ops(), b.Ops()) {
		t.Error("раскладки одинаковых документов различаются")
	}
}

func TestLayout_ImageMovesToNextPage(t *testing.T) {
	l := NewLayout(A4, fixedMeasure)
	l.Space(A4.PageHeight - 2*A4.Margin - 100)

	l.Image("ASSINATURA", 220, 90)

	ops := l.Ops()
	if len(ops) != 2 {
		t.Fatalf("операций %d, хотели 2", len(ops))
	}
	if ops[0].Page != 1 || ops[1].Page != 1 {
		t.Errorf("блок подписи на страницах %d/%d, хотели 1/1", ops[0].Page, ops[1].Page)
	}
	if ops[0].Y != A4.Margin {
		t.Errorf("заголовок y=%v, хотели %v", ops[0].Y, A4.Margin)
	}
	if ops[1].Y != A4.Margin+StyleHeading.LineHeight {
		t.Errorf("изображение y=%v, хотели %v", ops[1].Y, A4.Margin+StyleHeading.LineHeight)
	}
	if got := l.State().Y; got != ops[1].Y+90+18 {
		t.Errorf("курсор y=%v, хотели %v", got, ops[1].Y+90+18)
	}
}

func TestLayout_LineBreaksPageAtBottomMargin(t *testing.T) {
	l := NewLayout(A4, fixedMeasure)
	// Курсор чуть выше порога: строка ещё помещается
	l.Space(A4.PageHeight - 2*A4.Margin - A4.LineHeight - 1)
	l.Line("a", StyleBody)
	if p := l.Ops()[0].Page; p != 0 {
		t.Errorf("строка на пороге ушла на страницу %d", p)
	}

	l.Line("b", StyleBody)
	if p := l.Ops()[1].Page; p != 1 {
		t.Errorf("строка за порогом на странице %d, хотели 1", p)
	}
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()
	at := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)
	term := strings.Repeat("Cláusula com acentuação: ção, é, ã. ", 200)

	first, err := r.Render(testDocument(term, pngBytes(t, 400, 120)), at)
	if err != nil {
		t.Fatalf("Render() ошибка: %v", err)
	}
	if !bytes.HasPrefix(first, []byte("%PDF-")) {
		t.Errorf("результат не начинается с %%PDF-")
	}

	second, err := r.Render(testDocument(term, pngBytes(t, 400, 120)), at)
	if err != nil {
		t.Fatalf("повторный Render() ошибка: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("одинаковые документы дали разные байты PDF")
	}
}

func TestRenderer_RenderJPEGAndNoSignature(t *testing.T) {
	r := NewRenderer()
	at := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)

	if _, err := r.Render(testDocument("Termo.", jpegBytes(t, 300, 100)), at); err != nil {
		t.Errorf("Render() с JPEG ошибка: %v", err)
	}
	if _, err := r.Render(testDocument("Termo.", nil), at); err != nil {
		t.Errorf("Render() без подписи ошибка: %v", err)
	}
}

func TestRenderer_RenderBadSignature(t *testing.T) {
	_, err := NewRenderer().Render(testDocument("Termo.", []byte("garbage")), time.Now())
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("ошибка %v, хотели *RenderError", err)
	}
}
