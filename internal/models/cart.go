package models

import (
	"time"
)

type BatteryType string

const (
	BatteryLithiumBasic    BatteryType = "lithium_basic"
	BatteryLithiumStandard BatteryType = "lithium_standard"
	BatteryLithiumPremium  BatteryType = "lithium_premium"
	BatteryLeadAcid        BatteryType = "lead_acid"
)

type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

const (
	DefaultBattery   = BatteryLithiumBasic
	DefaultCondition = ConditionUsed
)

type CartItem struct {
	Product                  ProductSnapshot `json:"product"`
	Quantity                 int             `json:"quantity"`
	SelectedBattery          BatteryType     `json:"selected_battery"`
	SelectedCondition        Condition       `json:"selected_condition"`
	BatteryPriceAdjustment   int64           `json:"battery_price_adjustment"`
	ConditionPriceAdjustment int64           `json:"condition_price_adjustment"`
}

// UnitPrice is the product price including option adjustments.
func (i CartItem) UnitPrice() int64 {
	return i.Product.Price + i.BatteryPriceAdjustment + i.ConditionPriceAdjustment
}

func (i CartItem) LineTotal() int64 {
	return i.UnitPrice() * int64(i.Quantity)
}

// ItemOptions is a partial patch; nil fields keep their previous value.
type ItemOptions struct {
	SelectedBattery          *BatteryType `json:"selected_battery,omitempty" validate:"omitempty,oneof=lithium_basic lithium_standard lithium_premium lead_acid"`
	SelectedCondition        *Condition   `json:"selected_condition,omitempty" validate:"omitempty,oneof=new used"`
	BatteryPriceAdjustment   *int64       `json:"battery_price_adjustment,omitempty"`
	ConditionPriceAdjustment *int64       `json:"condition_price_adjustment,omitempty"`
}

func (o *ItemOptions) applyTo(item *CartItem) {
	if o == nil {
		return
	}
	if o.SelectedBattery != nil {
		item.SelectedBattery = *o.SelectedBattery
	}
	if o.SelectedCondition != nil {
		item.SelectedCondition = *o.SelectedCondition
	}
	if o.BatteryPriceAdjustment != nil {
		item.BatteryPriceAdjustment = *o.BatteryPriceAdjustment
	}
	if o.ConditionPriceAdjustment != nil {
		item.ConditionPriceAdjustment = *o.ConditionPriceAdjustment
	}
}

// Cart holds at most one line per product id, in insertion order.
type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart() *Cart {
	return &Cart{Items: []CartItem{}}
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Item returns a copy of the line for productID.
func (c *Cart) Item(productID string) (CartItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

// AddItem merges into an existing line by incrementing its quantity (the
// first add's options win) or appends a new line. A quantity below one is
// treated as one.
func (c *Cart) AddItem(product ProductSnapshot, quantity int, opts *ItemOptions) {
	if quantity < 1 {
		quantity = 1
	}

	if i := c.indexOf(product.ID); i >= 0 {
		c.Items[i].Quantity += quantity
		c.touch()
		return
	}

	item := CartItem{
		Product:           product,
		Quantity:          quantity,
		SelectedBattery:   DefaultBattery,
		SelectedCondition: DefaultCondition,
	}
	opts.applyTo(&item)

	c.Items = append(c.Items, item)
	c.touch()
}

func (c *Cart) RemoveItem(productID string) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
}

// UpdateQuantity sets the quantity exactly; zero or below removes the line.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity = quantity
		c.touch()
	}
}

func (c *Cart) UpdateItemOptions(productID string, opts *ItemOptions) {
	if i := c.indexOf(productID); i >= 0 {
		opts.applyTo(&c.Items[i])
		c.touch()
	}
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.touch()
}

func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// FinalTotal applies the coupon discount and floors the result at zero.
func (c *Cart) FinalTotal(coupon *AppliedCoupon) int64 {
	total := c.TotalPrice()
	if coupon == nil {
		return total
	}
	return max(0, total-coupon.Discount)
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Categories returns the distinct, non-empty product categories in the cart.
func (c *Cart) Categories() []string {
	seen := make(map[string]struct{}, len(c.Items))
	categories := []string{}
	for _, item := range c.Items {
		cat := item.Product.Category
		if cat == "" {
			continue
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		categories = append(categories, cat)
	}
	return categories
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

type AddItemRequest struct {
	ProductID string       `json:"product_id" validate:"required"`
	Quantity  int          `json:"quantity" validate:"omitempty,min=1"`
	Options   *ItemOptions `json:"options,omitempty"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartSummary is the priced view of a cart rendered in a display currency.
type CartSummary struct {
	Items      []CartItem     `json:"items"`
	ItemCount  int            `json:"item_count"`
	Subtotal   int64          `json:"subtotal"`
	Discount   int64          `json:"discount"`
	Total      int64          `json:"total"`
	Coupon     *AppliedCoupon `json:"coupon,omitempty"`
	Currency   string         `json:"currency"`
	Display    DisplayPrices  `json:"display"`
	Categories []string       `json:"categories"`
}

type DisplayPrices struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}
