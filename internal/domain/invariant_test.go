package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockledger/internal/domain"
)

func record(stock, reserved int) domain.InventoryRecord {
	return domain.InventoryRecord{
		ID:               "rec-1",
		StockQuantity:    stock,
		ReservedQuantity: reserved,
	}
}

// TestEvaluateAdjustment_Success_PositiveDelta testa uma entrada simples de estoque.
func TestEvaluateAdjustment_Success_PositiveDelta(t *testing.T) {
	outcome, violation := domain.EvaluateAdjustment(record(10, 2), 5)

	assert.Nil(t, violation)
	assert.Equal(t, 15, outcome.NewStock)
	assert.Equal(t, 13, outcome.NewAvailable)
}

// TestEvaluateAdjustment_Fail_NegativeStock testa a baixa que deixaria o estoque negativo.
func TestEvaluateAdjustment_Fail_NegativeStock(t *testing.T) {
	_, violation := domain.EvaluateAdjustment(record(10, 0), -15)

	assert.NotNil(t, violation)
	assert.Equal(t, domain.ViolationNegativeStock, violation.Code)
	assert.Equal(t, "rec-1", violation.RecordID)
	assert.Equal(t, 10, violation.CurrentStock)
	assert.Equal(t, -15, violation.Delta)
	assert.Equal(t, -5, violation.NewStock)
}

// TestEvaluateAdjustment_Fail_NegativeAvailable testa a baixa que comeria unidades reservadas:
// o estoque resultante ainda é positivo, mas o disponível (estoque - reservado) ficaria negativo.
func TestEvaluateAdjustment_Fail_NegativeAvailable(t *testing.T) {
	_, violation := domain.EvaluateAdjustment(record(10, 8), -5)

	assert.NotNil(t, violation)
	assert.Equal(t, domain.ViolationNegativeAvailable, violation.Code)
	assert.Equal(t, 5, violation.NewStock)
	assert.Equal(t, -3, violation.NewAvailable)
}

// TestEvaluateAdjustment_ZeroDelta_Legal testa que delta zero é aceito
// (correções "apenas motivo" ainda geram lançamento no ledger).
func TestEvaluateAdjustment_ZeroDelta_Legal(t *testing.T) {
	outcome, violation := domain.EvaluateAdjustment(record(7, 3), 0)

	assert.Nil(t, violation)
	assert.Equal(t, 7, outcome.NewStock)
	assert.Equal(t, 4, outcome.NewAvailable)
}

// TestEvaluateAdjustment_Boundary_StockToZero testa a baixa exata até zero.
func TestEvaluateAdjustment_Boundary_StockToZero(t *testing.T) {
	outcome, violation := domain.EvaluateAdjustment(record(10, 0), -10)

	assert.Nil(t, violation)
	assert.Equal(t, 0, outcome.NewStock)
	assert.Equal(t, 0, outcome.NewAvailable)
}

// TestEvaluateAdjustment_Boundary_AvailableToZero testa a baixa que deixa o
// disponível exatamente em zero, sem tocar as unidades reservadas.
func TestEvaluateAdjustment_Boundary_AvailableToZero(t *testing.T) {
	outcome, violation := domain.EvaluateAdjustment(record(10, 4), -6)

	assert.Nil(t, violation)
	assert.Equal(t, 4, outcome.NewStock)
	assert.Equal(t, 0, outcome.NewAvailable)
}

// TestInventoryRecord_AvailableQuantity testa a projeção derivada do registro.
func TestInventoryRecord_AvailableQuantity(t *testing.T) {
	rec := record(12, 5)
	assert.Equal(t, 7, rec.AvailableQuantity())
}
