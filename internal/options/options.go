// Package options models product option sets as a tagged union. Each known
// category is a concrete type with its own display formatter; unknown
// categories are rejected at parse time rather than shape-sniffed.
package options

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category discriminates option kinds in serialized form.
type Category string

const (
	CategoryText       Category = "text"
	CategoryArtwork    Category = "artwork"
	CategoryCustomText Category = "custom_text"
)

// Option is one configurable product option set.
type Option interface {
	Category() Category
	// Display renders the option for catalog and order summaries.
	Display() string
}

// TextOption is a fixed-choice option such as size or color.
type TextOption struct {
	Label   string   `json:"label"`
	Choices []string `json:"choices"`
	Default string   `json:"default,omitempty"`
}

func (o TextOption) Category() Category { return CategoryText }

func (o TextOption) Display() string {
	s := fmt.Sprintf("%s: %s", o.Label, strings.Join(o.Choices, " / "))
	if o.Default != "" {
		s += fmt.Sprintf(" (default %s)", o.Default)
	}
	return s
}

// ArtworkOption lets the school supply a logo or mascot image.
type ArtworkOption struct {
	Label      string   `json:"label"`
	MaxColors  int      `json:"max_colors,omitempty"`
	Placements []string `json:"placements,omitempty"`
}

func (o ArtworkOption) Category() Category { return CategoryArtwork }

func (o ArtworkOption) Display() string {
	s := o.Label + ": artwork upload"
	if o.MaxColors > 0 {
		s += fmt.Sprintf(", up to %d colors", o.MaxColors)
	}
	if len(o.Placements) > 0 {
		s += ", placements " + strings.Join(o.Placements, " / ")
	}
	return s
}

// CustomTextOption is free-form personalization such as a player name.
type CustomTextOption struct {
	Label     string `json:"label"`
	MaxLength int    `json:"max_length,omitempty"`
	Example   string `json:"example,omitempty"`
}

func (o CustomTextOption) Category() Category { return CategoryCustomText }

func (o CustomTextOption) Display() string {
	s := o.Label + ": custom text"
	if o.MaxLength > 0 {
		s += fmt.Sprintf(", max %d chars", o.MaxLength)
	}
	if o.Example != "" {
		s += fmt.Sprintf(" (e.g. %q)", o.Example)
	}
	return s
}

type envelope struct {
	Category Category `json:"category"`
}

// MarshalList serializes options with their category discriminator.
func MarshalList(opts []Option) (string, error) {
	out := make([]map[string]any, 0, len(opts))
	for _, opt := range opts {
		raw, err := json.Marshal(opt)
		if err != nil {
			return "", fmt.Errorf("marshal option: %w", err)
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return "", fmt.Errorf("marshal option: %w", err)
		}
		fields["category"] = opt.Category()
		out = append(out, fields)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	return string(data), nil
}

// ParseList deserializes a tagged-union option document, dispatching on the
// category field. Unknown categories are an error.
func ParseList(data string) ([]Option, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(data), &raws); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	opts := make([]Option, 0, len(raws))
	for _, raw := range raws {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("parse option envelope: %w", err)
		}
		opt, err := parseOne(env.Category, raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func parseOne(category Category, raw json.RawMessage) (Option, error) {
	switch category {
	case CategoryText:
		var o TextOption
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("parse text option: %w", err)
		}
		return o, nil
	case CategoryArtwork:
		var o ArtworkOption
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("parse artwork option: %w", err)
		}
		return o, nil
	case CategoryCustomText:
		var o CustomTextOption
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("parse custom text option: %w", err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown option category %q", category)
	}
}
