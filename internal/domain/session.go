package domain

// CheckoutSession is the per-visitor checkout state, keyed by the sid cookie.
type CheckoutSession struct {
	ID               string `db:"id"`
	CheckoutPhone    string `db:"checkout_phone"`
	CustomerID       string `db:"customer_id"`
	OrderID          string `db:"order_id"`
	DeliveryLocation string `db:"delivery_location"`
	UpdatedAt        string `db:"updated_at"`
}

type CheckoutStage int

const (
	StageNoPhone CheckoutStage = iota
	StagePhoneKnown
	StageCustomerKnown
	StageOrderCreated
)

func (s CheckoutStage) String() string {
	switch s {
	case StagePhoneKnown:
		return "phone_known"
	case StageCustomerKnown:
		return "customer_known"
	case StageOrderCreated:
		return "order_created"
	default:
		return "no_phone"
	}
}

func (s CheckoutSession) Stage() CheckoutStage {
	switch {
	case s.OrderID != "":
		return StageOrderCreated
	case s.CustomerID != "":
		return StageCustomerKnown
	case s.CheckoutPhone != "":
		return StagePhoneKnown
	default:
		return StageNoPhone
	}
}
