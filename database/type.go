package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ImageField holds raw encoded image bytes. The persisted column is the
// zstd-compressed form; callers always see the original bytes.
type ImageField []byte

// Scan decompresses the stored value, implements sql.Scanner interface.
func (f *ImageField) Scan(value any) error {
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal ImageField value: %+v", value)
	}
	original, err := decompress(bytes)
	if err != nil {
		return fmt.Errorf("failed to decompress ImageField value: %+v", subSlice(bytes, 10))
	}
	*f = ImageField(original)
	return nil
}

// Value compresses for storage, implements driver.Valuer interface.
func (f ImageField) Value() (driver.Value, error) {
	return compress([]byte(f)), nil
}

// MarkerField stores a floor plan's marker list as one serialized value;
// marker updates rewrite the whole list.
type MarkerField []Marker

// Scan decompresses and decodes the stored list, implements sql.Scanner interface.
func (f *MarkerField) Scan(value any) error {
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal MarkerField value: %+v", value)
	}
	original, err := decompress(bytes)
	if err != nil {
		return fmt.Errorf("failed to decompress MarkerField value: %+v", subSlice(bytes, 10))
	}
	result := []Marker{}
	err = json.Unmarshal(original, &result)
	*f = MarkerField(result)
	return err
}

// Value encodes and compresses the list, implement driver.Valuer interface.
func (f MarkerField) Value() (driver.Value, error) {
	if f == nil {
		f = MarkerField{}
	}
	raw, err := json.Marshal([]Marker(f))
	if err != nil {
		return nil, err
	}
	return compress(raw), nil
}

func subSlice[T any](list []T, max int) []T {
	if len(list) > max {
		return list[:max]
	}
	return list
}
