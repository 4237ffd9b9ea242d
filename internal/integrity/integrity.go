// Пакет integrity — хэш целостности авторизации.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Delimiter — разделитель полей в хэшируемой строке.
const Delimiter = "|"

// TimestampLayout — формат момента принятия, участвующий в хэше (UTC, миллисекунды).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// ComputeHash возвращает hex SHA-256 от termText|taxID|studentName|acceptedAtISO.
// Хэш воспроизводим только при точном совпадении всех четырёх полей.
func ComputeHash(termText, taxID, studentName, acceptedAtISO string) string {
	sum := sha256.Sum256([]byte(strings.Join(
		[]string{termText, taxID, studentName, acceptedAtISO}, Delimiter,
	)))
	return hex.EncodeToString(sum[:])
}

// AcceptanceTime приводит время к UTC с точностью до миллисекунд.
func AcceptanceTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatTimestamp форматирует момент принятия так, как он хэшируется.
func FormatTimestamp(t time.Time) string {
	return AcceptanceTime(t).Format(TimestampLayout)
}
