package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func addedToCartMessage(buyer string, qty int, productType string) string {
	return fmt.Sprintf("%s added %d KG of your %s to their cart.", buyer, qty, productType)
}

func purchaseRequestMessage(totalQty int, total decimal.Decimal, lines []CartLine) string {
	items := make([]string, 0, len(lines))
	for _, l := range lines {
		items = append(items, fmt.Sprintf("%d KG of %s", l.PurchaseQuantity, l.Product.Type))
	}
	return fmt.Sprintf("New purchase request for %d KG of threshing worth ₹%s. Items: %s.",
		totalQty, total.StringFixed(2), strings.Join(items, ", "))
}

func newListingMessage(qty int, productType string, price decimal.Decimal) string {
	return fmt.Sprintf("New listing: %d KG of %s available at ₹%s/KG.", qty, productType, price.String())
}
