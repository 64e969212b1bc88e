package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentMethod is how a receipt was settled
type PaymentMethod int

const (
	PaymentMethodCash     PaymentMethod = 0
	PaymentMethodCard     PaymentMethod = 1
	PaymentMethodTransfer PaymentMethod = 2
	PaymentMethodMixed    PaymentMethod = 3
)

var paymentMethodNames = []string{"CASH", "CARD", "TRANSFER", "MIXED"}

// ParsePaymentMethod resolves a method name such as "cash" or "MIXED".
func ParsePaymentMethod(name string) (PaymentMethod, bool) {
	i, ok := lookup(paymentMethodNames, name)
	return PaymentMethod(i), ok
}

func (m PaymentMethod) String() string {
	if int(m) < 0 || int(m) >= len(paymentMethodNames) {
		return "CASH"
	}
	return paymentMethodNames[m]
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	i, err := unmarshalName(data, paymentMethodNames, "payment method")
	if err != nil {
		return err
	}
	*m = PaymentMethod(i)
	return nil
}

func (m PaymentMethod) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *PaymentMethod) Scan(value interface{}) error {
	*m = PaymentMethod(scanInt(value))
	return nil
}
