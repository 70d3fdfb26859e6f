package orders

// TaxRateBP is the sales tax applied to every order, in basis points.
const TaxRateBP = 800 // 8%

// Tax computes the tax on a subtotal in minor units, rounding the result to
// the nearest cent with ties going to the even cent (banker's rounding).
func Tax(subtotal int64) int64 {
	num := subtotal * TaxRateBP
	q, r := num/10000, num%10000
	switch {
	case r > 5000:
		q++
	case r == 5000 && q%2 != 0:
		q++
	}
	return q
}
