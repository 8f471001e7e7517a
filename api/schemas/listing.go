// api/schemas/listing.go
package schemas

import (
	"fmt"
	"strconv"
	"strings"
)

// Listing is the immutable input to one posting attempt. It is constructed by
// the caller (UI layer or CLI) and lives for the duration of a single session.
type Listing struct {
	Title       string   `json:"title" mapstructure:"title"`
	Description string   `json:"description" mapstructure:"description"`
	Price       float64  `json:"price" mapstructure:"price"`
	Condition   string   `json:"condition" mapstructure:"condition"`
	Category    string   `json:"category" mapstructure:"category"`
	// Images are data-URI encoded blobs (e.g. "data:image/png;base64,...").
	// The core decodes them to temp files before the surface is opened.
	Images []string `json:"images" mapstructure:"images"`
}

// Validate checks the minimum shape required to attempt a posting.
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("listing title is required")
	}
	if l.Price < 0 {
		return fmt.Errorf("listing price must not be negative (got %v)", l.Price)
	}
	return nil
}

// FieldKind documents the intent of a form field. All kinds share the same
// typing path; the kind does not change fill behavior.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldNumber   FieldKind = "number"
)

// FieldSpec describes one form field to fill. Ephemeral, built per fill call.
type FieldSpec struct {
	Label string
	Value any
	Kind  FieldKind
}

// ValueString renders the field value as the text to type.
func (f FieldSpec) ValueString() string {
	switch v := f.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
