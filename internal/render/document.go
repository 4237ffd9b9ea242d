package render

import (
	"github.com/rafarisso/Cadastro-Cantina/internal/domain/cpf"
	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// Document — данные квитанции авторизации для печати.
type Document struct {
	Guardian model.Guardian
	Student  model.Student

	TermText    string
	TermVersion string
	TermHash    string
	// AcceptedAt — момент принятия в ISO-формате, тот же, что участвует в хэше
	AcceptedAt string
	IP         string
	UserAgent  string

	// Signature — байты изображения подписи (PNG или JPEG); nil — без подписи
	Signature []byte
}

// Размер рамки, в которую вписывается подпись.
const (
	SignatureMaxWidth  = 220
	SignatureMaxHeight = 90
)

var periodLabels = map[string]string{
	model.PeriodMorning:   "manha",
	model.PeriodAfternoon: "tarde",
}

// Plan раскладывает документ по страницам в фиксированном порядке секций:
// заголовок, время выдачи, представитель, ученик, текст термина,
// подпись (если есть), доказательства. sigWidth и sigHeight — уже вписанные
// в рамку размеры подписи.
func Plan(doc *Document, geo Geometry, measure StyledMeasure, sigWidth, sigHeight float64) *Layout {
	l := NewLayout(geo, measure)

	l.Line("COMPROVANTE DE AUTORIZACAO DE COMPRAS FATURADAS", StyleTitle)
	l.Line("Emitido em: "+doc.AcceptedAt, StyleSmall)
	l.Space(8)

	g := &doc.Guardian
	l.Line("DADOS DO RESPONSAVEL", StyleHeading)
	l.Paragraph("Nome: "+g.FullName, StyleBody)
	l.Paragraph("CPF: "+cpf.Format(g.CPF), StyleBody)
	l.Paragraph("Nascimento: "+g.BirthDate, StyleBody)
	l.Paragraph("E-mail: "+g.Email, StyleBody)
	l.Paragraph("Telefone principal: "+g.PhonePrimary, StyleBody)
	l.Paragraph("Telefone secundario: "+g.PhoneSecondary, StyleBody)
	l.Paragraph("Endereco: "+g.FormattedAddress(), StyleBody)
	l.Space(6)

	s := &doc.Student
	period := periodLabels[s.Period]
	if period == "" {
		period = s.Period
	}
	l.Line("DADOS DO ALUNO", StyleHeading)
	l.Paragraph("Nome: "+s.FullName, StyleBody)
	l.Paragraph("Turma/Sala: "+s.ClassRoom, StyleBody)
	l.Paragraph("Periodo: "+period, StyleBody)
	l.Paragraph("Escola: "+s.SchoolName, StyleBody)
	l.Space(6)

	l.Line("TERMO CONTRATUAL", StyleHeading)
	l.Paragraph(doc.TermText, StyleBody)
	l.Space(6)

	if len(doc.Signature) > 0 {
		l.Image("ASSINATURA ELETRONICA", sigWidth, sigHeight)
	}

	l.Line("EVIDENCIAS", StyleHeading)
	l.Paragraph("Data/hora do aceite (ISO): "+doc.AcceptedAt, StyleBody)
	l.Paragraph("IP: "+doc.IP, StyleBody)
	l.Paragraph("User-Agent: "+doc.UserAgent, StyleBody)
	l.Paragraph("Versao do termo: "+doc.TermVersion, StyleBody)
	l.Paragraph("Hash SHA-256: "+doc.TermHash, StyleBody)

	return l
}
