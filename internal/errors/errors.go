package errors

import (
	"fmt"
	"net/http"

	"stockledger/internal/domain"
)

// AppError é a interface central para todos os erros customizados do serviço.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// Códigos de falha por item, usados no relatório exaustivo de um lote.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeReasonRequired = "REASON_REQUIRED"
	CodeNotFound       = "NOT_FOUND"
)

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// InvalidFilterError representa um filtro de consulta inválido
// (e.g., data inicial posterior à data final). Nenhuma leitura parcial ocorre.
type InvalidFilterError struct {
	Msg string
}

func (e *InvalidFilterError) Error() string    { return fmt.Sprintf("Filtro inválido: %s", e.Msg) }
func (e *InvalidFilterError) Category() string { return "INVALID_FILTER" }
func (e *InvalidFilterError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *InvalidFilterError) Unwrap() error    { return nil }

// NewInvalidFilterError cria um novo erro de filtro de consulta.
func NewInvalidFilterError(msg string) AppError {
	return &InvalidFilterError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., OCC, recurso duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito (usado em OCC e duplicidade).
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// UnauthorizedError representa falha de autenticação ou autorização.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação/autorização.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// --- Erros do Motor de Ajustes ---

// InvariantError encapsula uma violação do modelo de invariantes de quantidade.
// A violação carrega os valores atuais e pretendidos, então a resposta ao
// cliente consegue dizer exatamente qual regra falhou e com quais números.
type InvariantError struct {
	Violation *domain.InvariantViolation
}

func (e *InvariantError) Error() string    { return e.Violation.Error() }
func (e *InvariantError) Category() string { return e.Violation.Code }
func (e *InvariantError) HTTPStatus() int  { return http.StatusUnprocessableEntity } // 422
func (e *InvariantError) Unwrap() error    { return nil }

// NewInvariantError cria o erro de violação a partir do resultado do dry-run.
func NewInvariantError(v *domain.InvariantViolation) AppError {
	return &InvariantError{Violation: v}
}

// BulkItemFailure identifica a falha de validação de um item específico do lote.
type BulkItemFailure struct {
	Index    int    `json:"index"`
	RecordID string `json:"record_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// BulkError agrega todas as falhas de validação de um lote em uma única
// resposta, para que o chamador corrija tudo em uma ida só. A presença deste
// erro significa que nenhum item do lote foi aplicado.
type BulkError struct {
	Failures []BulkItemFailure `json:"failures"`
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("Lote rejeitado: %d item(ns) com falha de validação.", len(e.Failures))
}
func (e *BulkError) Category() string { return "BULK_VALIDATION_ERROR" }
func (e *BulkError) HTTPStatus() int  { return http.StatusUnprocessableEntity } // 422
func (e *BulkError) Unwrap() error    { return nil }

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
// Falhas de armazenamento chegam aqui como erro retryável; o serviço não faz
// retry por conta própria, isso fica a cargo do chamador.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	if appErr, ok := err.(AppError); ok {
		// O erro é tipado (ValidationError, NotFoundError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	// Tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
