package model

import (
	"strings"
	"time"
)

// Guardian — законный представитель (responsável legal).
// Хранится в таблице guardians, естественный ключ — CPF.
type Guardian struct {
	// ID — UUID записи (стабилен между повторными отправками)
	ID string
	// FullName — полное имя
	FullName string
	// CPF — налоговый номер, только цифры (11)
	CPF string
	// BirthDate — дата рождения в формате YYYY-MM-DD
	BirthDate string
	// Email — адрес электронной почты (lower-case)
	Email string
	// PhonePrimary — основной телефон, только цифры
	PhonePrimary string
	// PhoneSecondary — дополнительный телефон, только цифры (отличается от основного)
	PhoneSecondary string
	// CEP — почтовый индекс, 8 цифр
	CEP string
	// AddressStreet — улица
	AddressStreet string
	// AddressNumber — номер дома
	AddressNumber string
	// AddressComplement — дополнение к адресу (опционально)
	AddressComplement *string
	// AddressNeighborhood — район
	AddressNeighborhood string
	// AddressCity — город
	AddressCity string
	// AddressState — код штата (UF), две заглавные буквы
	AddressState string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// FormattedAddress возвращает адрес одной строкой в том виде,
// в котором он печатается в PDF и подставляется в текст термина.
// Пустые части пропускаются.
// Пример: "Rua A, 10 - apto 3 - Centro - Sao Paulo/SP - CEP 01001-000".
func (g *Guardian) FormattedAddress() string {
	var parts []string
	if g.AddressStreet != "" {
		street := g.AddressStreet
		if g.AddressNumber != "" {
			street += ", " + g.AddressNumber
		}
		if g.AddressComplement != nil && *g.AddressComplement != "" {
			street += " - " + *g.AddressComplement
		}
		parts = append(parts, street)
	}
	if g.AddressNeighborhood != "" {
		parts = append(parts, g.AddressNeighborhood)
	}

	var cityState []string
	for _, p := range []string{g.AddressCity, g.AddressState} {
		if p != "" {
			cityState = append(cityState, p)
		}
	}
	if len(cityState) > 0 {
		parts = append(parts, strings.Join(cityState, "/"))
	}
	if g.CEP != "" {
		parts = append(parts, "CEP "+FormatCEP(g.CEP))
	}
	return strings.Join(parts, " - ")
}

// FormatCEP форматирует почтовый индекс как 00000-000.
// Значения другой длины возвращаются без изменений.
func FormatCEP(cep string) string {
	if len(cep) != 8 {
		return cep
	}
	return cep[:5] + "-" + cep[5:]
}
