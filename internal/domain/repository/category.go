package repository

// Category is a price-feed category.
type Category string

const (
	CatCommodities Category = "commodities"
	CatCrypto      Category = "crypto"
	CatEquities    Category = "equities"
	CatForex       Category = "forex"
	CatRatesMacro  Category = "rates-macro"
	CatStress      Category = "stress"
)

// AllCategories in processing order.
var AllCategories = []Category{
	CatCommodities, CatCrypto, CatEquities, CatForex, CatRatesMacro, CatStress,
}

// IsValidCategory returns true if c is a supported category.
func IsValidCategory(c Category) bool {
	for _, v := range AllCategories {
		if v == c {
			return true
		}
	}
	return false
}

// NormalizeCategory converts a raw string to a valid category, or "" when the
// input names no category (meaning: all of them).
func NormalizeCategory(s string) Category {
	c := Category(s)
	if IsValidCategory(c) {
		return c
	}
	return ""
}
