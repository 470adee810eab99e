package cart

// Line is one item in a user's cart. Price is the unit price when the item was
// added; Name is for display only, the cart is keyed by ItemID.
type Line struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Subtotal is quantity times unit price.
func (l Line) Subtotal() float64 {
	return float64(l.Quantity) * l.Price
}

// SelectedItem is the checkout snapshot of one line.
type SelectedItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// Cart keeps lines in insertion order.
type Cart struct {
	lines []Line
	index map[string]int
}

func newCart(lines []Line) *Cart {
	c := &Cart{index: make(map[string]int, len(lines))}
	for _, l := range lines {
		c.put(l)
	}
	return c
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) clone() *Cart { return newCart(c.lines) }

func (c *Cart) get(itemID string) (Line, bool) {
	i, ok := c.index[itemID]
	if !ok {
		return Line{}, false
	}
	return c.lines[i], true
}

// put inserts l or replaces the line with the same item id in place.
func (c *Cart) put(l Line) {
	if i, ok := c.index[l.ItemID]; ok {
		c.lines[i] = l
		return
	}
	c.index[l.ItemID] = len(c.lines)
	c.lines = append(c.lines, l)
}

func (c *Cart) remove(itemID string) bool {
	i, ok := c.index[itemID]
	if !ok {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, itemID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ItemID] = j
	}
	return true
}

// Total is the sum of all line subtotals.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// SelectedItems builds the checkout snapshot.
func (c *Cart) SelectedItems() []SelectedItem {
	out := make([]SelectedItem, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, SelectedItem{
			ID:       l.ItemID,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal(),
		})
	}
	return out
}

// Adjustment records a line changed while reconciling with the catalog.
type Adjustment struct {
	ItemID  string `json:"itemId"`
	Name    string `json:"name"`
	From    int    `json:"from"`
	To      int    `json:"to"`
	Removed bool   `json:"removed"`
	Reason  string `json:"reason"`
}

const (
	ReasonItemMissing = "item_unavailable"
	ReasonClamped     = "quantity_reduced"
	ReasonOutOfStock  = "out_of_stock"
)
