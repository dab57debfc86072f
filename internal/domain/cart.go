package domain

import "time"

// Applied discount sources.
const (
	DiscountSourceAuto   = "auto"
	DiscountSourceManual = "manual"
)

// LineItem is one product in the cart. Quantity is always at least 1.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

// LineTotal is UnitPrice × Quantity.
func (li LineItem) LineTotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// AppliedDiscount is a snapshot of the campaign in effect, priced against the
// subtotal it was computed for.
type AppliedDiscount struct {
	CampaignID     string `json:"campaign_id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	DiscountType   string `json:"discount_type"`
	ComputedAmount int64  `json:"computed_amount"`
	Source         string `json:"source"`
}

// Cart is the per-session basket persisted as one blob.
//
// DiscountSuppressed is set when the shopper removes a discount and keeps the
// engine from picking one again until the subtotal changes.
type Cart struct {
	SessionID          string           `json:"session_id"`
	Items              []LineItem       `json:"items"`
	AppliedDiscount    *AppliedDiscount `json:"applied_discount,omitempty"`
	DiscountSuppressed bool             `json:"discount_suppressed"`
	Version            int              `json:"version"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	ExpiresAt          time.Time        `json:"expires_at"`
}

// Subtotal is the sum of all line totals.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// DiscountAmount is the applied discount's amount, or 0.
func (c *Cart) DiscountAmount() int64 {
	if c.AppliedDiscount == nil {
		return 0
	}
	return c.AppliedDiscount.ComputedAmount
}

// Total is the payable amount, never negative.
func (c *Cart) Total() int64 {
	return max(0, c.Subtotal()-c.DiscountAmount())
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the index of productID in Items, or -1.
func (c *Cart) FindItem(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem merges item into the cart: an existing product gains item.Quantity
// and takes the new name, price and image; a new product is appended.
func (c *Cart) AddItem(item LineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if i := c.FindItem(item.ProductID); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		c.Items[i].Name = item.Name
		c.Items[i].UnitPrice = item.UnitPrice
		if item.ImageURL != "" {
			c.Items[i].ImageURL = item.ImageURL
		}
		return
	}
	c.Items = append(c.Items, item)
}

// RemoveItem drops productID and reports whether it was present.
func (c *Cart) RemoveItem(productID string) bool {
	i := c.FindItem(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// SetQuantity sets the quantity of productID, removing it when n <= 0.
// It reports whether the product was present.
func (c *Cart) SetQuantity(productID string, n int) bool {
	if n <= 0 {
		return c.RemoveItem(productID)
	}
	i := c.FindItem(productID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = n
	return true
}

// Reset empties the cart and forgets any discount state.
func (c *Cart) Reset() {
	c.Items = []LineItem{}
	c.AppliedDiscount = nil
	c.DiscountSuppressed = false
}
