package models_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id string, price int64, category string) models.ProductSnapshot {
	return models.ProductSnapshot{ID: id, Name: "Bike " + id, Price: price, Category: category}
}

func ptr[T any](v T) *T { return &v }

func TestCart_AddItem(t *testing.T) {
	t.Run("Success - Defaults Applied To New Line", func(t *testing.T) {
		cart := models.NewCart()

		cart.AddItem(product("p1", 100000, "city"), 1, nil)

		item, ok := cart.Item("p1")
		require.True(t, ok)
		assert.Equal(t, 1, item.Quantity)
		assert.Equal(t, models.BatteryLithiumBasic, item.SelectedBattery)
		assert.Equal(t, models.ConditionUsed, item.SelectedCondition)
		assert.Zero(t, item.BatteryPriceAdjustment)
		assert.Zero(t, item.ConditionPriceAdjustment)
	})

	t.Run("Success - Merge Keeps First Options", func(t *testing.T) {
		cart := models.NewCart()
		cart.AddItem(product("p1", 100000, ""), 1, &models.ItemOptions{
			SelectedBattery:        ptr(models.BatteryLithiumPremium),
			BatteryPriceAdjustment: ptr(int64(5000)),
		})

		cart.AddItem(product("p1", 100000, ""), 3, &models.ItemOptions{
			SelectedBattery:   ptr(models.BatteryLeadAcid),
			SelectedCondition: ptr(models.ConditionNew),
		})

		require.Len(t, cart.Items, 1)
		item := cart.Items[0]
		assert.Equal(t, 4, item.Quantity)
		assert.Equal(t, models.BatteryLithiumPremium, item.SelectedBattery)
		assert.Equal(t, models.ConditionUsed, item.SelectedCondition)
		assert.Equal(t, int64(5000), item.BatteryPriceAdjustment)
	})

	t.Run("Success - Zero Quantity Treated As One", func(t *testing.T) {
		cart := models.NewCart()

		cart.AddItem(product("p1", 10, ""), 0, nil)

		assert.Equal(t, 1, cart.Items[0].Quantity)
	})
}

func TestCart_UpdateItemOptions(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(product("p1", 100, ""), 1, &models.ItemOptions{
		SelectedBattery:          ptr(models.BatteryLithiumStandard),
		BatteryPriceAdjustment:   ptr(int64(20)),
		ConditionPriceAdjustment: ptr(int64(-5)),
	})

	t.Run("Success - Partial Patch Keeps Other Fields", func(t *testing.T) {
		cart.UpdateItemOptions("p1", &models.ItemOptions{SelectedCondition: ptr(models.ConditionNew)})

		item, _ := cart.Item("p1")
		assert.Equal(t, models.BatteryLithiumStandard, item.SelectedBattery)
		assert.Equal(t, models.ConditionNew, item.SelectedCondition)
		assert.Equal(t, int64(20), item.BatteryPriceAdjustment)
		assert.Equal(t, int64(-5), item.ConditionPriceAdjustment)
		assert.Equal(t, int64(115), cart.TotalPrice())
	})

	t.Run("Success - Absent Item Is No-Op", func(t *testing.T) {
		before := cart.TotalPrice()

		cart.UpdateItemOptions("missing", &models.ItemOptions{BatteryPriceAdjustment: ptr(int64(999))})

		assert.Len(t, cart.Items, 1)
		assert.Equal(t, before, cart.TotalPrice())
	})
}

func TestCart_UpdateQuantity(t *testing.T) {
	t.Run("Success - Sets Exact Quantity", func(t *testing.T) {
		cart := models.NewCart()
		cart.AddItem(product("p1", 10, ""), 2, nil)

		cart.UpdateQuantity("p1", 7)

		assert.Equal(t, 7, cart.Items[0].Quantity)
	})

	t.Run("Success - Zero Equals Remove", func(t *testing.T) {
		viaUpdate := models.NewCart()
		viaRemove := models.NewCart()
		for _, c := range []*models.Cart{viaUpdate, viaRemove} {
			c.AddItem(product("p1", 10, ""), 2, nil)
			c.AddItem(product("p2", 20, ""), 1, nil)
		}

		viaUpdate.UpdateQuantity("p1", 0)
		viaRemove.RemoveItem("p1")

		assert.Equal(t, viaRemove.Items, viaUpdate.Items)
	})

	t.Run("Success - Negative Removes, Absent Is No-Op", func(t *testing.T) {
		cart := models.NewCart()
		cart.AddItem(product("p1", 10, ""), 2, nil)

		cart.UpdateQuantity("p1", -3)
		cart.UpdateQuantity("ghost", 4)

		assert.Empty(t, cart.Items)
	})
}

// Random operation sequences must keep one line per product and a total
// equal to the sum of the line totals.
func TestCart_RandomSequencesKeepOneLinePerProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	products := []models.ProductSnapshot{
		product("a", 100000, "city"),
		product("b", 250000, "mountain"),
		product("c", 9900, "city"),
		product("d", 1, ""),
	}

	for run := 0; run < 50; run++ {
		cart := models.NewCart()

		for step := 0; step < 40; step++ {
			p := products[rng.Intn(len(products))]
			switch rng.Intn(4) {
			case 0:
				cart.AddItem(p, rng.Intn(3)+1, &models.ItemOptions{BatteryPriceAdjustment: ptr(int64(rng.Intn(5000)))})
			case 1:
				cart.RemoveItem(p.ID)
			case 2:
				cart.UpdateQuantity(p.ID, rng.Intn(5)-1)
			case 3:
				cart.UpdateItemOptions(p.ID, &models.ItemOptions{ConditionPriceAdjustment: ptr(int64(rng.Intn(2000) - 1000))})
			}

			seen := map[string]bool{}
			var expected int64
			for _, item := range cart.Items {
				require.False(t, seen[item.Product.ID], fmt.Sprintf("duplicate line for %s", item.Product.ID))
				seen[item.Product.ID] = true
				require.GreaterOrEqual(t, item.Quantity, 1)
				expected += (item.Product.Price + item.BatteryPriceAdjustment + item.ConditionPriceAdjustment) * int64(item.Quantity)
			}
			require.Equal(t, expected, cart.TotalPrice())
		}
	}
}

func TestCart_FinalTotal(t *testing.T) {
	t.Run("Scenario - Coupon Then Remove", func(t *testing.T) {
		cart := models.NewCart()
		cart.AddItem(product("P1", 100000, ""), 2, &models.ItemOptions{
			BatteryPriceAdjustment:   ptr(int64(5000)),
			ConditionPriceAdjustment: ptr(int64(0)),
		})
		require.Equal(t, int64(210000), cart.TotalPrice())

		coupon := &models.AppliedCoupon{Code: "SPRING", Discount: 50000}
		assert.Equal(t, int64(160000), cart.FinalTotal(coupon))

		cart.RemoveItem("P1")
		assert.Equal(t, int64(0), cart.TotalPrice())
		assert.Equal(t, int64(0), cart.FinalTotal(coupon))
	})

	t.Run("Success - Never Negative", func(t *testing.T) {
		cart := models.NewCart()
		cart.AddItem(product("p1", 1000, ""), 1, nil)

		assert.Equal(t, int64(0), cart.FinalTotal(&models.AppliedCoupon{Discount: 1_000_000}))
	})

	t.Run("Success - No Coupon Equals Total", func(t *testing.T) {
		cart := models.NewCart()
		cart.AddItem(product("p1", 1000, ""), 3, nil)

		assert.Equal(t, cart.TotalPrice(), cart.FinalTotal(nil))
	})
}

func TestCart_Categories(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(product("p1", 1, "city"), 1, nil)
	cart.AddItem(product("p2", 1, "cargo"), 1, nil)
	cart.AddItem(product("p3", 1, "city"), 1, nil)
	cart.AddItem(product("p4", 1, ""), 1, nil)

	assert.Equal(t, []string{"city", "cargo"}, cart.Categories())
	assert.Equal(t, 4, cart.ItemCount())
}
