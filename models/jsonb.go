package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSONSlice is a generic JSONB-backed slice column, generalizing the
// teacher's per-type GenerationSteps Value/Scan pair into a single
// implementation shared by every []T-shaped column in this package.
type JSONSlice[T any] []T

// Value implements driver.Valuer for JSONB.
func (s JSONSlice[T]) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]T{})
	}
	return json.Marshal([]T(s))
}

// Scan implements sql.Scanner for JSONB.
func (s *JSONSlice[T]) Scan(value interface{}) error {
	if value == nil {
		*s = make(JSONSlice[T], 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = make(JSONSlice[T], 0)
		return nil
	}

	if len(bytes) == 0 {
		*s = make(JSONSlice[T], 0)
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// JSONMap is a generic JSONB-backed map column, used for free-form
// document metadata.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(map[string]interface{}(m))
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = make(JSONMap)
		return nil
	}

	if len(bytes) == 0 {
		*m = make(JSONMap)
		return nil
	}

	return json.Unmarshal(bytes, m)
}
