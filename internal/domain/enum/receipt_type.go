package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// ReceiptType distinguishes sales from compensating refunds
type ReceiptType int

const (
	ReceiptTypeSale   ReceiptType = 0
	ReceiptTypeRefund ReceiptType = 1
)

var receiptTypeNames = []string{"SALE", "REFUND"}

func (t ReceiptType) String() string {
	if int(t) < 0 || int(t) >= len(receiptTypeNames) {
		return "SALE"
	}
	return receiptTypeNames[t]
}

func (t ReceiptType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ReceiptType) UnmarshalJSON(data []byte) error {
	i, err := unmarshalName(data, receiptTypeNames, "receipt type")
	if err != nil {
		return err
	}
	*t = ReceiptType(i)
	return nil
}

func (t ReceiptType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *ReceiptType) Scan(value interface{}) error {
	*t = ReceiptType(scanInt(value))
	return nil
}
