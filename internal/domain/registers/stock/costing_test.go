package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalin/internal/core/apperror"
	"chalin/internal/core/entity"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

func makeLot(lotID string, date time.Time, remaining int64, unitCost string) entity.StockLot {
	return entity.StockLot{
		ID:                id.MustParse(lotID),
		BranchID:          id.MustParse("11111111-1111-1111-1111-111111111111"),
		ProductID:         id.MustParse("22222222-2222-2222-2222-222222222222"),
		Quantity:          types.NewQuantityFromInt(remaining),
		RemainingQuantity: types.NewQuantityFromInt(remaining),
		UnitCost:          types.MustMoney(unitCost),
		LotDate:           date,
	}
}

func TestPlanConsumption_SpansLotsOldestFirst(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lots := []entity.StockLot{
		makeLot("0198f000-0000-7000-8000-000000000001", day, 5, "10"),
		makeLot("0198f000-0000-7000-8000-000000000002", day.Add(24*time.Hour), 5, "20"),
	}

	productID := lots[0].ProductID
	plan, err := PlanConsumption(lots, types.NewQuantityFromInt(7), productID)
	require.NoError(t, err)

	require.Len(t, plan.Draws, 2)
	assert.Equal(t, types.NewQuantityFromInt(5), plan.Draws[0].Quantity)
	assert.Equal(t, types.NewQuantityFromInt(2), plan.Draws[1].Quantity)

	// 5*10 + 2*20 = 90, average 90/7 rounded to 4 digits
	assert.True(t, plan.TotalCost.Equal(types.MustMoney("90")),
		"total cost = %s", plan.TotalCost)
	assert.True(t, plan.AverageUnitCost.Equal(types.MustMoney("12.8571")),
		"average unit cost = %s", plan.AverageUnitCost)
}

func TestPlanConsumption_InsufficientStock(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lots := []entity.StockLot{
		makeLot("0198f000-0000-7000-8000-000000000001", day, 10, "10"),
	}

	productID := lots[0].ProductID
	_, err := PlanConsumption(lots, types.NewQuantityFromInt(11), productID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, 1.0, appErr.Details["shortfall"])

	// Planning is pure; the failed plan must not have touched the lots.
	assert.Equal(t, types.NewQuantityFromInt(10), lots[0].RemainingQuantity)
}

func TestPlanConsumption_DateTieBrokenByID(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	older := makeLot("0198f000-0000-7000-8000-000000000001", day, 3, "10")
	newer := makeLot("0198f000-0000-7000-8000-000000000009", day, 3, "20")

	// Input order reversed on purpose; the plan must still start with
	// the lexicographically smaller ID.
	plan, err := PlanConsumption([]entity.StockLot{newer, older}, types.NewQuantityFromInt(4), older.ProductID)
	require.NoError(t, err)

	require.Len(t, plan.Draws, 2)
	assert.Equal(t, older.ID, plan.Draws[0].LotID)
	assert.Equal(t, newer.ID, plan.Draws[1].LotID)
	assert.True(t, plan.TotalCost.Equal(types.MustMoney("50")))
}

func TestPlanConsumption_RejectsNonPositiveQuantity(t *testing.T) {
	_, err := PlanConsumption(nil, 0, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestPlanConsumption_FractionalQuantities(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lot := makeLot("0198f000-0000-7000-8000-000000000001", day, 1, "10")
	lot.RemainingQuantity = types.NewQuantityFromFloat64(0.5)

	plan, err := PlanConsumption([]entity.StockLot{lot}, types.NewQuantityFromFloat64(0.25), lot.ProductID)
	require.NoError(t, err)

	assert.True(t, plan.TotalCost.Equal(types.MustMoney("2.5")),
		"total cost = %s", plan.TotalCost)
	assert.True(t, plan.AverageUnitCost.Equal(types.MustMoney("10")))
}

func TestCarriedCost_WeightedAcrossLots(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lots := []entity.StockLot{
		makeLot("0198f000-0000-7000-8000-000000000001", day, 2, "10"),
		makeLot("0198f000-0000-7000-8000-000000000002", day.Add(time.Hour), 2, "20"),
	}

	// 2*10 + 2*20 = 60 over 4 units
	cost := CarriedCost(lots, types.NewQuantityFromInt(4))
	assert.True(t, cost.Equal(types.MustMoney("15")), "carried cost = %s", cost)
}

func TestCarriedCost_ShortfallPricedAtLastCost(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lots := []entity.StockLot{
		makeLot("0198f000-0000-7000-8000-000000000001", day, 3, "7"),
	}

	// Only 3 units left at the source but 4 are priced; the missing
	// unit carries the last observed cost.
	cost := CarriedCost(lots, types.NewQuantityFromInt(4))
	assert.True(t, cost.Equal(types.MustMoney("7")), "carried cost = %s", cost)
}

func TestCarriedCost_NoSourceLots(t *testing.T) {
	cost := CarriedCost(nil, types.NewQuantityFromInt(5))
	assert.True(t, cost.IsZero(), "carried cost = %s", cost)
}

func TestCarriedCost_SkipsDepletedLots(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	depleted := makeLot("0198f000-0000-7000-8000-000000000001", day, 5, "10")
	depleted.RemainingQuantity = 0
	live := makeLot("0198f000-0000-7000-8000-000000000002", day.Add(time.Hour), 5, "20")

	cost := CarriedCost([]entity.StockLot{depleted, live}, types.NewQuantityFromInt(2))
	assert.True(t, cost.Equal(types.MustMoney("20")), "carried cost = %s", cost)
}
