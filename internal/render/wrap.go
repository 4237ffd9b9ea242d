package render

import "strings"

// MeasureFunc возвращает ширину строки в пунктах при фиксированном шрифте и кегле.
type MeasureFunc func(text string) float64

// Wrap разбивает текст на строки шириной не больше maxWidth.
//
// Абзацы разделяются '\n'. Пустой абзац (только пробелы) даёт одну пустую строку.
// После каждого непустого абзаца, кроме последнего, добавляется пустая строка.
// Внутри абзаца слова набираются жадно; слово шире maxWidth занимает строку целиком.
// Функция чистая: результат зависит только от текста, measure и maxWidth.
func Wrap(text string, measure MeasureFunc, maxWidth float64) []string {
	paragraphs := strings.Split(text, "\n")
	lines := make([]string, 0, len(paragraphs))

	for i, paragraph := range paragraphs {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if line != "" && measure(candidate) > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)

		if i < len(paragraphs)-1 {
			lines = append(lines, "")
		}
	}
	return lines
}
