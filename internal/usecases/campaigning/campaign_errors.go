package campaigning

import (
	"errors"
	"fmt"
)

// Erros específicos para o contexto de campanhas
var (
	// Erros de validação
	ErrValidation       = errors.New("campanha inválida")
	ErrInvalidDateRange = errors.New("data final deve ser posterior à data inicial")
	ErrInvalidBudget    = errors.New("orçamento deve ser positivo")
	ErrInvalidCounters  = errors.New("contadores de KPI inválidos")

	// Erros de busca
	ErrCampaignNotFound = errors.New("campanha não encontrada")
	ErrAlertNotFound    = errors.New("alerta não encontrado")

	// Erros de armazenamento
	ErrStorage = errors.New("falha no armazenamento de campanhas")

	// Erros de geração de identificadores
	ErrGenerateID = errors.New("erro ao gerar identificador")
)

// CampaignError é um erro com contexto adicional para campanhas
type CampaignError struct {
	Err        error  // Erro base
	Kind       error  // Categoria (ErrValidation, ErrCampaignNotFound, ErrStorage)
	Code       string // Código de erro para API
	CampaignID string // ID da campanha envolvida (quando aplicável)
	Details    string // Detalhes adicionais
}

// Error implementa a interface error
func (e *CampaignError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

// Unwrap retorna o erro base e a categoria
func (e *CampaignError) Unwrap() []error {
	if e.Kind == nil || e.Kind == e.Err {
		return []error{e.Err}
	}
	return []error{e.Err, e.Kind}
}

// NewCampaignError cria um novo CampaignError
func NewCampaignError(kind, err error, code string, details string) *CampaignError {
	return &CampaignError{
		Err:     err,
		Kind:    kind,
		Code:    code,
		Details: details,
	}
}

// NewCampaignErrorWithID cria um novo CampaignError com ID da campanha
func NewCampaignErrorWithID(kind, err error, code string, campaignID string, details string) *CampaignError {
	return &CampaignError{
		Err:        err,
		Kind:       kind,
		Code:       code,
		CampaignID: campaignID,
		Details:    details,
	}
}

// IsValidationError verifica se o erro é de entrada inválida
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFoundError verifica se o erro é de campanha ou alerta inexistente
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrCampaignNotFound) || errors.Is(err, ErrAlertNotFound)
}

// IsStorageError verifica se o erro veio do armazenamento
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}
