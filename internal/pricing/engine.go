package pricing

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)

	// projectionDays extrapolates one day of shelf value to a month of revenue.
	projectionDays = decimal.NewFromInt(30)
	// maxServiceCharge caps the derived charge at full cost recovery.
	maxServiceCharge = decimal.NewFromInt(100)
)

// FinalPrice derives the customer-facing price from the selling price, the
// store-wide discount percentage, and the tax percentage:
//
//	selling * (1 - discount/100) * (1 + tax/100)
//
// A non-positive selling price yields zero. Discount and tax are applied as
// configured, even above 100 percent; a discount past 100 clamps the result
// to zero rather than going negative. The result is rounded to 2 decimals.
func FinalPrice(selling, discountPct, taxPct decimal.Decimal) decimal.Decimal {
	if selling.Sign() <= 0 {
		return decimal.Zero
	}
	discounted := selling.Mul(one.Sub(discountPct.Div(hundred)))
	if discounted.Sign() < 0 {
		return decimal.Zero
	}
	final := discounted.Mul(one.Add(taxPct.Div(hundred)))
	if final.Sign() < 0 {
		return decimal.Zero
	}
	return final.Round(2)
}

// ServiceChargeDetail reports the inputs and output of one service-charge
// derivation.
type ServiceChargeDetail struct {
	TotalOperationalCost    decimal.Decimal `json:"total_operational_cost"`
	TotalInventoryValue     decimal.Decimal `json:"total_inventory_value"`
	ProjectedMonthlyRevenue decimal.Decimal `json:"projected_monthly_revenue"`
	ServiceChargePct        decimal.Decimal `json:"service_charge_pct"`
}

// ComputeServiceCharge derives the cost-recovery percentage from the total
// operational cost and the summed inventory selling value. A non-positive
// inventory value short-circuits to zero (nothing to divide by); otherwise
// the raw ratio against projected monthly revenue is rounded to 2 decimals
// and clamped to 100.
func ComputeServiceCharge(totalCost, totalInventoryValue decimal.Decimal) ServiceChargeDetail {
	detail := ServiceChargeDetail{
		TotalOperationalCost: totalCost,
		TotalInventoryValue:  totalInventoryValue,
		ServiceChargePct:     decimal.Zero,
	}
	if totalInventoryValue.Sign() <= 0 {
		detail.ProjectedMonthlyRevenue = decimal.Zero
		return detail
	}
	detail.ProjectedMonthlyRevenue = totalInventoryValue.Mul(projectionDays)
	raw := totalCost.Div(detail.ProjectedMonthlyRevenue).Mul(hundred).Round(2)
	if raw.GreaterThan(maxServiceCharge) {
		raw = maxServiceCharge
	}
	if raw.Sign() < 0 {
		raw = decimal.Zero
	}
	detail.ServiceChargePct = raw
	return detail
}
