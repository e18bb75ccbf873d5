package models

// AppliedCoupon is the single active discount of a storefront session.
// Discount is in base currency and never negative.
type AppliedCoupon struct {
	Code        string `json:"code"`
	Discount    int64  `json:"discount"`
	Description string `json:"description"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,min=3,max=32"`
}

// CouponValidationRequest is sent to the backend validation endpoint.
type CouponValidationRequest struct {
	Code        string   `json:"code"`
	OrderAmount int64    `json:"orderAmount"`
	Categories  []string `json:"categories"`
}
