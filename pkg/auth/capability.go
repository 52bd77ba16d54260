package auth

import "fmt"

// Capability names one guarded back-office action.
type Capability int

const (
	ViewOrder Capability = iota + 1
	AddOrder
	ChangeOrder
	DeleteOrder
	DeliverOrder
	CancelOrder
	AddProduct
	ChangeProduct
	DeleteProduct
)

var capabilityNames = map[Capability]string{
	ViewOrder:     "view_order",
	AddOrder:      "add_order",
	ChangeOrder:   "change_order",
	DeleteOrder:   "delete_order",
	DeliverOrder:  "deliver_order",
	CancelOrder:   "cancel_order",
	AddProduct:    "add_product",
	ChangeProduct: "change_product",
	DeleteProduct: "delete_product",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// ParseCapability maps a stored capability name back to its value.
func ParseCapability(name string) (Capability, error) {
	for c, n := range capabilityNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", name)
}

// Capabilities lists every capability in declaration order.
func Capabilities() []Capability {
	all := make([]Capability, 0, len(capabilityNames))
	for c := ViewOrder; c <= DeleteProduct; c++ {
		all = append(all, c)
	}
	return all
}
