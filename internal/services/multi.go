package services

import (
	"encoding/json"
)

// multiItem constrains the element type stored in MultiResultBase.
type multiItem[T any] interface {
	*T
	IsEmpty() bool
}

// MultiResultBase provides the MultiResult methods shared by every service.
// Embed it and add WriteText and WriteTable to complete the output interfaces.
type MultiResultBase[T any, PT multiItem[T]] struct {
	Results []PT
}

// IsEmpty reports whether all contained results are empty.
func (m *MultiResultBase[T, PT]) IsEmpty() bool {
	for _, r := range m.Results {
		if !r.IsEmpty() {
			return false
		}
	}
	return true
}

// MarshalJSON serializes the multi-result as a JSON array of individual results.
func (m *MultiResultBase[T, PT]) MarshalJSON() ([]byte, error) {
	if m.Results == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.Results)
}
