// Пакет terms — текущая версия термина авторизации и подстановка данных
// представителя и ученика в шаблон.
package terms

import (
	"strings"

	"github.com/rafarisso/Cadastro-Cantina/internal/domain/cpf"
	"github.com/rafarisso/Cadastro-Cantina/internal/domain/model"
)

// CurrentVersion — версия действующего текста термина.
const CurrentVersion = "v1.0-2026-01-18"

// Плейсхолдеры шаблона.
const (
	PlaceholderGuardianName    = "{RESP_NOME}"
	PlaceholderGuardianCPF     = "{RESP_CPF}"
	PlaceholderGuardianAddress = "{RESP_ENDERECO}"
	PlaceholderStudentName     = "{ALUNO_NOME}"
)

// CurrentTemplate — действующий шаблон термина.
const CurrentTemplate = `TERMO DE AUTORIZACAO PARA COMPRAS FATURADAS (POS-PAGAS) - CANTINA ORION

IDENTIFICACAO DO RESPONSAVEL LEGAL: {RESP_NOME}, CPF {RESP_CPF}, residente e domiciliado em {RESP_ENDERECO}.
IDENTIFICACAO DO ALUNO: {ALUNO_NOME}, matriculado no COLEGIO ORION.
IDENTIFICACAO DA CANTINA: CANTINA ORION, inscrita no CNPJ 25.354.981/0001-04.

1. OBJETO
O presente termo tem por objeto a autorizacao expressa do RESPONSAVEL LEGAL para que o ALUNO realize compras faturadas (pos-pagas) na CANTINA ORION.

2. TERCEIRIZACAO E AUSENCIA DE VINCULO
A CANTINA ORION e uma operacao terceirizada e independente, sem vinculo administrativo/financeiro com o COLEGIO ORION, que nao integra o presente instrumento nem responde por cobrancas.

3. RESPONSABILIDADE PELOS CONSUMOS
O RESPONSAVEL LEGAL assume total e exclusiva responsabilidade pelo pagamento de todas as compras realizadas pelo ALUNO, inclusive taxas, tarifas e encargos aplicaveis.

4. INADIMPLENCIA
Em caso de atraso superior a 30 (trinta) dias, a CANTINA ORION podera emitir boleto, realizar cobranca administrativa e adotar as medidas judiciais cabiveis para a recuperacao do credito, nos termos da legislacao vigente.

5. BASE LEGAL E TRATAMENTO DE DADOS
O RESPONSAVEL LEGAL reconhece que o tratamento dos dados pessoais atende as finalidades de cadastro, controle financeiro, prevencao a fraudes e cobranca administrativa/judicial, nos termos da LGPD (Lei 13.709/2018). Em caso de inadimplemento, aplicam-se os artigos 389, 395 e 397 do Codigo Civil.

6. DECLARACAO DE VERACIDADE
O RESPONSAVEL LEGAL declara que todas as informacoes fornecidas sao verdadeiras e atualizadas, responsabilizando-se por eventual omissao ou inexatidao.

7. EVIDENCIAS E ASSINATURA ELETRONICA
As partes reconhecem como validas as evidencias eletronicas, incluindo assinatura desenhada, registro de data/hora do aceite, endereco IP, user-agent e versao deste termo.

8. FORO
Fica eleito o foro da Comarca de Sao Paulo/SP para dirimir quaisquer duvidas oriundas deste termo.
`

// Template — версия термина вместе с шаблоном.
type Template struct {
	Version string `json:"version"`
	Text    string `json:"template"`
}

// Current возвращает действующий шаблон.
func Current() Template {
	return Template{Version: CurrentVersion, Text: CurrentTemplate}
}

// Fill подставляет данные представителя и ученика в шаблон.
// CPF печатается в формате 000.000.000-00, адрес — как Guardian.FormattedAddress.
func Fill(template string, g *model.Guardian, s *model.Student) string {
	r := strings.NewReplacer(
		PlaceholderGuardianName, g.FullName,
		PlaceholderGuardianCPF, cpf.Format(g.CPF),
		PlaceholderGuardianAddress, g.FormattedAddress(),
		PlaceholderStudentName, s.FullName,
	)
	return r.Replace(template)
}
