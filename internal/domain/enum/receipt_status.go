package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// ReceiptStatus represents where a receipt is in its lifecycle.
// DRAFT -> ISSUED exactly once, then optionally ISSUED -> VOIDED or ISSUED -> REFUNDED.
type ReceiptStatus int

const (
	ReceiptStatusDraft    ReceiptStatus = 0
	ReceiptStatusIssued   ReceiptStatus = 1
	ReceiptStatusVoided   ReceiptStatus = 2
	ReceiptStatusRefunded ReceiptStatus = 3
)

var receiptStatusNames = []string{"DRAFT", "ISSUED", "VOIDED", "REFUNDED"}

func (s ReceiptStatus) String() string {
	if int(s) < 0 || int(s) >= len(receiptStatusNames) {
		return "DRAFT"
	}
	return receiptStatusNames[s]
}

// IsFinal reports whether the receipt is a financial fact (issued or reversed).
func (s ReceiptStatus) IsFinal() bool {
	return s != ReceiptStatusDraft
}

func (s ReceiptStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ReceiptStatus) UnmarshalJSON(data []byte) error {
	i, err := unmarshalName(data, receiptStatusNames, "receipt status")
	if err != nil {
		return err
	}
	*s = ReceiptStatus(i)
	return nil
}

func (s ReceiptStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *ReceiptStatus) Scan(value interface{}) error {
	*s = ReceiptStatus(scanInt(value))
	return nil
}
