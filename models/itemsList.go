package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// DispatchedItem is one line of a resolved, flattened bill of materials as it
// was actually deducted from (or credited to) a warehouse ledger.
type DispatchedItem struct {
	SystemItemId int             `json:"systemItemId"`
	ItemName     string          `json:"itemName"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// ItemsList is stored as a JSON text column. The list captured at dispatch
// time is the permanent record of what was taken from stock; it is
// deliberately decoupled from the catalog so later catalog edits don't
// retroactively change history.
type ItemsList []DispatchedItem

func (l ItemsList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ItemsList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for ItemsList")
	}
}

// StringList is stored as a JSON text column (e.g. panel serial numbers).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}
