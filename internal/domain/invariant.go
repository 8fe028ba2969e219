package domain

import "fmt"

// Códigos de violação do modelo de invariantes de quantidade.
const (
	ViolationNegativeStock     = "NEGATIVE_STOCK"
	ViolationNegativeAvailable = "NEGATIVE_AVAILABLE"
)

// InvariantViolation descreve por que um ajuste proposto deixaria o registro
// em estado ilegal. Carrega os valores atuais e os pretendidos para que a
// camada de apresentação monte uma mensagem acionável.
type InvariantViolation struct {
	Code             string `json:"code"`
	RecordID         string `json:"record_id"`
	CurrentStock     int    `json:"current_stock"`
	ReservedQuantity int    `json:"reserved_quantity"`
	Delta            int    `json:"delta"`
	NewStock         int    `json:"new_stock"`
	NewAvailable     int    `json:"new_available"`
}

func (v *InvariantViolation) Error() string {
	if v.Code == ViolationNegativeStock {
		return fmt.Sprintf("O ajuste de %d deixaria o estoque em %d (estoque atual: %d).",
			v.Delta, v.NewStock, v.CurrentStock)
	}
	return fmt.Sprintf("O ajuste de %d deixaria a quantidade disponível em %d (estoque: %d, reservado: %d).",
		v.Delta, v.NewAvailable, v.CurrentStock, v.ReservedQuantity)
}

// AdjustmentOutcome é o estado prospectivo calculado por EvaluateAdjustment.
type AdjustmentOutcome struct {
	NewStock     int
	NewAvailable int
}

// EvaluateAdjustment é a função de decisão pura do modelo de invariantes:
// dado o estado atual de um registro e um delta proposto, calcula o estado
// resultante sem mutar nada. A separação permite que o coordenador de lote
// faça o dry-run de todos os itens antes de commitar qualquer um.
//
// Invariante: estoque >= 0 E estoque - reservado >= 0 após todo ajuste.
// Delta zero é legal e ainda gera lançamento no ledger (correções "apenas
// motivo", como confirmações de inventário físico).
func EvaluateAdjustment(current InventoryRecord, delta int) (AdjustmentOutcome, *InvariantViolation) {
	newStock := current.StockQuantity + delta
	newAvailable := newStock - current.ReservedQuantity

	violation := &InvariantViolation{
		RecordID:         current.ID,
		CurrentStock:     current.StockQuantity,
		ReservedQuantity: current.ReservedQuantity,
		Delta:            delta,
		NewStock:         newStock,
		NewAvailable:     newAvailable,
	}

	if newStock < 0 {
		violation.Code = ViolationNegativeStock
		return AdjustmentOutcome{}, violation
	}

	// Pode ocorrer mesmo com newStock >= 0, quando a baixa come unidades reservadas.
	if newAvailable < 0 {
		violation.Code = ViolationNegativeAvailable
		return AdjustmentOutcome{}, violation
	}

	return AdjustmentOutcome{NewStock: newStock, NewAvailable: newAvailable}, nil
}
