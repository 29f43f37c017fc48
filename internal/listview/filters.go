package listview

import (
	"maps"
	"strings"

	"github.com/pendergraft/listingdesk/pkg/client"
)

// FilterState maps a field key to its selected value. An empty value is never stored.
type FilterState map[string]string

// Set upserts key, or deletes it when value is blank.
func (f FilterState) Set(key, value string) {
	if strings.TrimSpace(value) == "" {
		delete(f, key)
		return
	}
	f[key] = value
}

// Clone returns an independent copy.
func (f FilterState) Clone() FilterState {
	out := make(FilterState, len(f))
	maps.Copy(out, f)
	return out
}

// FieldKind distinguishes free-text inputs from enumerated ones.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindPicklist FieldKind = "picklist"
)

// Option is one choice of an enumerated filter field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FilterField is a renderable filter input.
type FilterField struct {
	APIName string    `json:"apiName"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Options []Option  `json:"options"`
}

// IsPicklist reports whether the field renders as a combobox.
func (f FilterField) IsPicklist() bool { return f.Kind == KindPicklist }

// BuildFilterFields converts field metadata into filter inputs, skipping excluded keys.
func BuildFilterFields(meta []client.FieldMetadata, exclude []string) []FilterField {
	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}

	out := make([]FilterField, 0, len(meta))
	for _, m := range meta {
		if skip[m.APIName] {
			continue
		}
		field := FilterField{
			APIName: m.APIName,
			Label:   m.Label,
			Kind:    KindText,
			Options: []Option{},
		}
		if strings.EqualFold(m.Type, "PICKLIST") {
			field.Kind = KindPicklist
		}
		for _, v := range m.PicklistValues {
			field.Options = append(field.Options, Option{Label: v, Value: v})
		}
		out = append(out, field)
	}
	return out
}
