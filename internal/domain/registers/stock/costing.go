package stock

import (
	"bytes"
	"sort"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// LotDraw is a pending decrement against a single lot.
type LotDraw struct {
	LotID    id.ID          `json:"lotId"`
	Quantity types.Quantity `json:"quantity"`
	UnitCost types.Money    `json:"unitCost"`
}

// ConsumptionPlan is the result of a FIFO cost allocation. It describes
// which lots to decrement and what the withdrawal costs; applying the
// decrements is the caller's job. TotalCost is exact (sum of lot-level
// products before rounding); AverageUnitCost is rounded to CostScale.
type ConsumptionPlan struct {
	Quantity        types.Quantity `json:"quantity"`
	Draws           []LotDraw      `json:"draws"`
	TotalCost       types.Money    `json:"totalCost"`
	AverageUnitCost types.Money    `json:"averageUnitCost"`
}

// PlanConsumption computes a FIFO withdrawal plan over the given lots.
// Pure function: it never mutates the lots. Lots are consumed oldest
// lot_date first, ties broken by lot ID (time-ordered UUIDv7), so the
// allocation is deterministic regardless of input order.
//
// Fails with InsufficientStockError, reporting the shortfall, when the
// lots cannot cover the requested quantity. No partial plans.
func PlanConsumption(lots []entity.StockLot, required types.Quantity, productID id.ID) (ConsumptionPlan, error) {
	if !required.IsPositive() {
		return ConsumptionPlan{}, apperror.NewValidation("withdrawal quantity must be positive").
			WithDetail("quantity", required.String())
	}

	ordered := sortFIFO(lots)

	var available types.Quantity
	for _, lot := range ordered {
		available += lot.RemainingQuantity
	}
	if available < required {
		return ConsumptionPlan{}, apperror.NewInsufficientStock(
			productID.String(),
			required.Float64(),
			available.Float64(),
			(required - available).Float64(),
		)
	}

	plan := ConsumptionPlan{
		Quantity:  required,
		TotalCost: types.Zero(),
	}

	remaining := required
	for _, lot := range ordered {
		if remaining.IsZero() {
			break
		}
		take := remaining.Min(lot.RemainingQuantity)
		if !take.IsPositive() {
			continue
		}
		plan.Draws = append(plan.Draws, LotDraw{
			LotID:    lot.ID,
			Quantity: take,
			UnitCost: lot.UnitCost,
		})
		plan.TotalCost = plan.TotalCost.Add(lot.UnitCost.Mul(take.Decimal()))
		remaining -= take
	}

	plan.AverageUnitCost = plan.TotalCost.Div(required.Decimal()).Round(types.CostScale)

	return plan, nil
}

// CarriedCost derives the unit cost to carry onto a receiving branch's
// lot by walking the source branch's remaining lots oldest-first. The
// walk prices cost only; it consumes nothing (the source lots were
// already decremented when the goods left).
//
// The source may no longer cover the full quantity (later sales ate
// into the same depletion trail). The uncovered remainder is priced at
// the last observed unit cost, or zero when the source holds no lots
// at all.
func CarriedCost(lots []entity.StockLot, quantity types.Quantity) types.Money {
	if !quantity.IsPositive() {
		return types.Zero()
	}

	ordered := sortFIFO(lots)

	total := types.Zero()
	lastCost := types.Zero()
	remaining := quantity
	for _, lot := range ordered {
		if remaining.IsZero() {
			break
		}
		if !lot.RemainingQuantity.IsPositive() {
			continue
		}
		take := remaining.Min(lot.RemainingQuantity)
		total = total.Add(lot.UnitCost.Mul(take.Decimal()))
		lastCost = lot.UnitCost
		remaining -= take
	}
	if remaining.IsPositive() {
		total = total.Add(lastCost.Mul(remaining.Decimal()))
	}

	return total.Div(quantity.Decimal()).Round(types.CostScale)
}

// sortFIFO returns a copy of lots in consumption order: lot_date
// ascending, ties broken by ID.
func sortFIFO(lots []entity.StockLot) []entity.StockLot {
	ordered := make([]entity.StockLot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].LotDate.Equal(ordered[j].LotDate) {
			return ordered[i].LotDate.Before(ordered[j].LotDate)
		}
		return bytes.Compare(ordered[i].ID[:], ordered[j].ID[:]) < 0
	})
	return ordered
}
