package domain

import "github.com/shopspring/decimal"

type CartItem struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"price"`
	Image          string          `json:"image"`
	Quantity       int             `json:"quantity"`
	Instruction    string          `json:"instruction,omitempty"`
	LocalImagePath string          `json:"local_image_path,omitempty"`
}

func (it CartItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Cart is one visitor's basket. Total always equals the sum of line subtotals
// after any method returns. Cart does no locking; owners serialize access.
type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"accumulated_total"`
}

// CartResult is what every cart mutation reports back to the caller.
type CartResult struct {
	Success          bool            `json:"success"`
	Message          string          `json:"message"`
	NumberOfItems    int             `json:"number_of_items"`
	AccumulatedTotal decimal.Decimal `json:"accumulated_total"`
}

const (
	MsgItemAdded       = "Item added to cart"
	MsgQuantityUpdated = "Quantity updated"
	MsgItemRemoved     = "Item removed"
	MsgItemCustomized  = "Item updated"
	MsgItemNotFound    = "Item not found"
	MsgMissingProduct  = "Missing product_id"
	MsgInvalidPrice    = "Invalid price"
	MsgServerError     = "Server error"
)

func (c *Cart) Result(ok bool, msg string) CartResult {
	return CartResult{Success: ok, Message: msg, NumberOfItems: len(c.Items), AccumulatedTotal: c.Total}
}

// Add appends a new line with quantity 1. Repeated adds of one product are
// kept as separate lines.
func (c *Cart) Add(productID, name string, price decimal.Decimal, image string) CartResult {
	if productID == "" {
		return c.Result(false, MsgMissingProduct)
	}
	if price.IsNegative() {
		return c.Result(false, MsgInvalidPrice)
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Name:      name,
		UnitPrice: price,
		Image:     image,
		Quantity:  1,
	})
	c.Total = c.Total.Add(price)
	return c.Result(true, MsgItemAdded)
}

// UpdateQuantity sets the quantity of the first line matching productID.
// Quantities below 1 are raised to 1.
func (c *Cart) UpdateQuantity(productID string, qty int) CartResult {
	i := c.index(productID)
	if i < 0 {
		return c.Result(false, MsgItemNotFound)
	}
	c.Items[i].Quantity = max(1, qty)
	c.Recalculate()
	return c.Result(true, MsgQuantityUpdated)
}

// Remove drops every line whose product id equals productID.
func (c *Cart) Remove(productID string) CartResult {
	if productID == "" {
		return c.Result(false, MsgMissingProduct)
	}
	kept := make([]CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(c.Items) {
		return c.Result(false, MsgItemNotFound)
	}
	c.Items = kept
	c.Recalculate()
	return c.Result(true, MsgItemRemoved)
}

// Customize sets the instruction and staged image of the first matching line.
// It returns the staged image path that was replaced, if any.
func (c *Cart) Customize(productID, instruction, localImagePath string) (CartResult, string) {
	if productID == "" {
		return c.Result(false, MsgMissingProduct), ""
	}
	i := c.index(productID)
	if i < 0 {
		return c.Result(false, MsgItemNotFound), ""
	}
	prev := ""
	c.Items[i].Instruction = instruction
	if localImagePath != "" {
		prev = c.Items[i].LocalImagePath
		c.Items[i].LocalImagePath = localImagePath
	}
	return c.Result(true, MsgItemCustomized), prev
}

// StagedImages lists local image paths held by lines matching productID.
func (c *Cart) StagedImages(productID string) []string {
	var out []string
	for _, it := range c.Items {
		if it.ProductID == productID && it.LocalImagePath != "" {
			out = append(out, it.LocalImagePath)
		}
	}
	return out
}

// DropOrdered removes one line per ordered item, matching by product id in
// cart order, and keeps every line added after the order was taken. It
// returns staged images held by dropped lines that the order does not carry.
func (c *Cart) DropOrdered(ordered []CartItem) []string {
	var orphaned []string
	for _, o := range ordered {
		i := c.index(o.ProductID)
		if i < 0 {
			continue
		}
		if p := c.Items[i].LocalImagePath; p != "" && p != o.LocalImagePath {
			orphaned = append(orphaned, p)
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
	c.Recalculate()
	return orphaned
}

func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	c.Total = total
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }

func (c *Cart) Clear() {
	c.Items = nil
	c.Total = decimal.Zero
}

// Clone returns a deep copy; snapshots taken for orders must not alias live lines.
func (c *Cart) Clone() *Cart {
	out := &Cart{Total: c.Total}
	if len(c.Items) > 0 {
		out.Items = make([]CartItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}

func (c *Cart) index(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
