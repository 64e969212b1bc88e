package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// ItemKind tags which catalog a receipt line was sold from
type ItemKind int

const (
	ItemKindPhone     ItemKind = 0
	ItemKindSparePart ItemKind = 1
	ItemKindService   ItemKind = 2
	ItemKindGoods     ItemKind = 3
	ItemKindTicket    ItemKind = 4
	ItemKindCustom    ItemKind = 5
)

var itemKindNames = []string{"PHONE", "SPARE_PART", "SERVICE", "GOODS", "TICKET", "CUSTOM"}

// ParseItemKind resolves an item kind name such as "spare_part".
func ParseItemKind(name string) (ItemKind, bool) {
	i, ok := lookup(itemKindNames, name)
	return ItemKind(i), ok
}

func (k ItemKind) String() string {
	if int(k) < 0 || int(k) >= len(itemKindNames) {
		return "CUSTOM"
	}
	return itemKindNames[k]
}

// TracksStock reports whether lines of this kind move a stock counter.
func (k ItemKind) TracksStock() bool {
	return k == ItemKindSparePart || k == ItemKindGoods
}

func (k ItemKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ItemKind) UnmarshalJSON(data []byte) error {
	i, err := unmarshalName(data, itemKindNames, "item kind")
	if err != nil {
		return err
	}
	*k = ItemKind(i)
	return nil
}

func (k ItemKind) Value() (driver.Value, error) {
	return int64(k), nil
}

func (k *ItemKind) Scan(value interface{}) error {
	*k = ItemKind(scanInt(value))
	return nil
}
