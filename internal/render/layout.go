package render

// Geometry — геометрия страницы в пунктах.
type Geometry struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	// LineHeight — базовый межстрочный интервал, он же порог переноса на новую страницу
	LineHeight float64
}

// A4 — страница A4 с полями 48pt и интервалом 14pt.
var A4 = Geometry{
	PageWidth:  595.28,
	PageHeight: 841.89,
	Margin:     48,
	LineHeight: 14,
}

// ContentWidth — ширина области текста между полями.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// Style — начертание строки.
type Style struct {
	Bold bool
	Size float64
	// LineHeight — на сколько сдвигается курсор после строки (0 — Geometry.LineHeight)
	LineHeight float64
}

// Стили документа.
var (
	StyleTitle   = Style{Bold: true, Size: 16, LineHeight: 22}
	StyleHeading = Style{Bold: true, Size: 12, LineHeight: 18}
	StyleBody    = Style{Size: 11}
	StyleSmall   = Style{Size: 10}
)

// OpKind — тип операции отрисовки.
type OpKind int

const (
	OpText OpKind = iota
	OpImage
)

// Op — одна операция отрисовки. Координаты отсчитываются от верхнего левого
// угла страницы: для текста Y — базовая линия, для изображения — верхний край.
type Op struct {
	Kind   OpKind
	Page   int
	X      float64
	Y      float64
	Text   string
	Style  Style
	Width  float64
	Height float64
}

// StyledMeasure измеряет ширину строки в заданном стиле.
type StyledMeasure func(text string, st Style) float64

// State — положение курсора: номер страницы (с нуля) и смещение от верхнего края.
type State struct {
	Page int
	Y    float64
}

// Layout — раскладка документа по страницам. Всё состояние хранится в State,
// результат — список операций; рисованием Layout не занимается.
type Layout struct {
	geo     Geometry
	measure StyledMeasure
	state   State
	ops     []Op
}

// NewLayout создаёт раскладку с курсором у верхнего поля первой страницы.
func NewLayout(geo Geometry, measure StyledMeasure) *Layout {
	return &Layout{
		geo:     geo,
		measure: measure,
		state:   State{Page: 0, Y: geo.Margin},
	}
}

// State возвращает текущее положение курсора.
func (l *Layout) State() State { return l.state }

// Ops возвращает накопленные операции.
func (l *Layout) Ops() []Op { return l.ops }

// Pages возвращает количество страниц.
func (l *Layout) Pages() int { return l.state.Page + 1 }

// remaining — расстояние от курсора до нижнего края страницы.
func (l *Layout) remaining() float64 {
	return l.geo.PageHeight - l.state.Y
}

func (l *Layout) newPage() {
	l.state = State{Page: l.state.Page + 1, Y: l.geo.Margin}
}

// Line рисует одну строку, при необходимости начиная новую страницу.
func (l *Layout) Line(text string, st Style) {
	if l.remaining() < l.geo.Margin+l.geo.LineHeight {
		l.newPage()
	}
	l.ops = append(l.ops, Op{
		Kind:  OpText,
		Page:  l.state.Page,
		X:     l.geo.Margin,
		Y:     l.state.Y,
		Text:  text,
		Style: st,
	})
	l.Space(l.lineHeight(st))
}

// Paragraph переносит текст по ширине области и рисует строки.
// Пустая строка сдвигает курсор на базовый интервал без проверки конца страницы.
func (l *Layout) Paragraph(text string, st Style) {
	measure := func(s string) float64 { return l.measure(s, st) }
	for _, line := range Wrap(text, measure, l.geo.ContentWidth()) {
		if line == "" {
			l.Space(l.geo.LineHeight)
			continue
		}
		l.Line(line, st)
	}
}

// Space сдвигает курсор вниз на dy.
func (l *Layout) Space(dy float64) {
	l.state.Y += dy
}

// Image рисует блок изображения с заголовком. Если изображение вместе с
// запасом 40pt не помещается на странице, блок переносится на новую.
func (l *Layout) Image(heading string, width, height float64) {
	if l.remaining() < l.geo.Margin+height+40 {
		l.newPage()
	}
	l.Line(heading, StyleHeading)
	l.ops = append(l.ops, Op{
		Kind:   OpImage,
		Page:   l.state.Page,
		X:      l.geo.Margin,
		Y:      l.state.Y,
		Width:  width,
		Height: height,
	})
	l.Space(height + 18)
}

func (l *Layout) lineHeight(st Style) float64 {
	if st.LineHeight > 0 {
		return st.LineHeight
	}
	return l.geo.LineHeight
}
