package recipes

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\n?(.*?)\n?```")

// ParseRecipes extracts recipes from raw model output. It strips
// markdown fences, tries a direct parse, then falls back to the first
// balanced JSON array or object in the text.
func ParseRecipes(raw string) ([]Recipe, error) {
	content := strings.TrimSpace(raw)

	if strings.Contains(content, "```") {
		if m := fenceRe.FindStringSubmatch(content); m != nil {
			content = strings.TrimSpace(m[1])
		}
	}

	if recipes, err := decodeRecipes(content); err == nil {
		return recipes, nil
	}

	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start == -1 || end == -1 || end <= start {
			continue
		}
		if recipes, err := decodeRecipes(content[start : end+1]); err == nil {
			return recipes, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrModelResponseInvalid, truncate(raw, 200))
}

// decodeRecipes accepts either a JSON array of recipes or a single
// recipe object.
func decodeRecipes(content string) ([]Recipe, error) {
	var recipes []Recipe
	if err := json.Unmarshal([]byte(content), &recipes); err == nil {
		if len(recipes) == 0 || recipes[0].Name == "" {
			return nil, ErrModelResponseInvalid
		}
		return recipes, nil
	}

	var single Recipe
	if err := json.Unmarshal([]byte(content), &single); err != nil {
		return nil, err
	}
	if single.Name == "" {
		return nil, ErrModelResponseInvalid
	}
	return []Recipe{single}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
