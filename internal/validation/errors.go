package validation

import "fmt"

// ValidationError — отказ валидации с указанием поля.
// Field — путь поля в JSON-запросе (например, "guardian.cpf"),
// Reason — сообщение для пользователя.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Сообщения для пользователя (форма на португальском).
const (
	msgMissing       = "Campo obrigatório ausente."
	msgMissingBlock  = "Campos obrigatórios ausentes."
	msgTermMissing   = "Termo ou assinatura ausentes."
	msgCPF           = "CPF inválido."
	msgPhone         = "Telefone inválido."
	msgPhonesEqual   = "Telefones não podem ser iguais."
	msgCEP           = "CEP inválido."
	msgUF            = "UF inválida."
	msgEmail         = "E-mail inválido."
	msgBirthDate     = "Data de nascimento inválida."
	msgPeriod        = "Período inválido."
	msgSignature     = "Assinatura inválida."
	msgSignatureSize = "Assinatura muito grande."
	msgInvalid       = "Valor inválido."
)
