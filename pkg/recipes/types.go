// Package recipes extracts recipes from fridge photos via a vision model
// and manages saved recipes and favorites.
package recipes

import (
	"encoding/json"
	"strings"
	"time"
)

// Recipe is a saved or extracted recipe. The PascalCase keys match the
// wire format the mobile clients already consume.
type Recipe struct {
	ID          string      `json:"id,omitempty"`
	UserID      string      `json:"user_id,omitempty"`
	Name        string      `json:"Name"`
	Ingredients StringArray `json:"Ingredients"`
	Steps       StringArray `json:"Steps"`
	TimeMinutes int         `json:"Time"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
}

// StringArray decodes either a JSON array of strings or a stringified
// JSON array. Vision models frequently return the latter even when the
// prompt asks for the former.
type StringArray []string

func (a *StringArray) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err == nil {
		*a = values
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*a = nil
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err == nil {
		*a = values
		return nil
	}
	*a = []string{raw}
	return nil
}
