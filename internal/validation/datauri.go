package validation

import (
	"encoding/base64"
	"errors"
	"strings"
)

var errBadDataURI = errors.New("некорректный data URI изображения")

// parseImageDataURI разбирает data:image/<type>;base64,<payload>.
// Возвращает объявленный MIME-тип и декодированные байты.
func parseImageDataURI(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, "data:image/") {
		return "", nil, errBadDataURI
	}
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok || payload == "" {
		return "", nil, errBadDataURI
	}

	params := strings.Split(header, ";")
	contentType := strings.ToLower(strings.TrimSpace(params[0]))
	if len(contentType) <= len("image/") {
		return "", nil, errBadDataURI
	}

	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return "", nil, errBadDataURI
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		// Некоторые клиенты присылают base64 без паддинга
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(payload), "="))
		if err != nil {
			return "", nil, errBadDataURI
		}
	}
	if len(data) == 0 {
		return "", nil, errBadDataURI
	}
	return contentType, data, nil
}

// isImageDataURI — быстрая проверка префикса для тега валидации.
func isImageDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ",")
}

// DecodeSignature декодирует сохранённый data URI подписи.
func DecodeSignature(dataURL string) (contentType string, data []byte, err error) {
	return parseImageDataURI(strings.TrimSpace(dataURL))
}
