// Пакет cpf — работа с бразильским налоговым номером (CPF):
// нормализация до цифр, проверка контрольных цифр (mod 11, два прохода), форматирование.
package cpf

import "strings"

// Length — количество цифр в CPF.
const Length = 11

// OnlyDigits удаляет из строки все символы, кроме ASCII-цифр.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid проверяет CPF: ровно 11 цифр, не все цифры одинаковые,
// обе контрольные цифры совпадают с вычисленными.
// Ожидает строку, уже очищенную от разделителей.
func Valid(digits string) bool {
	if len(digits) != Length {
		return false
	}
	for i := 0; i < Length; i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	if isConstant(digits) {
		return false
	}
	return checkDigit(digits[:9]) == digits[9] && checkDigit(digits[:10]) == digits[10]
}

// CheckDigits вычисляет две контрольные цифры для 9-значного префикса.
// Возвращает пустую строку, если префикс некорректен.
func CheckDigits(prefix string) string {
	if len(prefix) != 9 || OnlyDigits(prefix) != prefix {
		return ""
	}
	first := checkDigit(prefix)
	second := checkDigit(prefix + string(first))
	return string([]byte{first, second})
}

// Format форматирует 11 цифр как 000.000.000-00.
// Строки другой длины возвращаются без изменений.
func Format(digits string) string {
	if len(digits) != Length {
		return digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// checkDigit считает контрольную цифру: веса от len+1 вниз до 2,
// (sum*10) mod 11, значение 10 превращается в 0.
func checkDigit(s string) byte {
	sum := 0
	weight := len(s) + 1
	for i := 0; i < len(s); i++ {
		sum += int(s[i]-'0') * weight
		weight--
	}
	d := (sum * 10) % 11
	if d == 10 {
		d = 0
	}
	return byte('0' + d)
}

func isConstant(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
