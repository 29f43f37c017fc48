package listview

import "github.com/pendergraft/listingdesk/pkg/client"

// Derived fields added to every row at assembly time.
const (
	FieldOwnerName = "OwnerName"
	FieldRecordURL = "recordUrl"
)

// ColumnType is how a table cell renders.
type ColumnType string

const (
	ColumnText ColumnType = "text"
	ColumnURL  ColumnType = "url"
)

// Column is a renderable table column.
type Column struct {
	Label     string     `json:"label"`
	FieldName string     `json:"fieldName"`
	Type      ColumnType `json:"type"`
	// LinkLabelField names the field shown as the link text of a url column.
	LinkLabelField string `json:"linkLabelField,omitempty"`
	Target         string `json:"target,omitempty"`
}

// BuildColumns maps table metadata to columns. The owner lookup shows the owner's name
// and the Name field links to the record.
func BuildColumns(meta []client.ColumnMetadata) []Column {
	out := make([]Column, 0, len(meta))
	for _, m := range meta {
		switch m.APIName {
		case "OwnerId":
			out = append(out, Column{Label: "Owner Name", FieldName: FieldOwnerName, Type: ColumnText})
		case "Name":
			out = append(out, Column{
				Label:          m.Label,
				FieldName:      FieldRecordURL,
				Type:           ColumnURL,
				LinkLabelField: "Name",
				Target:         "_self",
			})
		default:
			out = append(out, Column{Label: m.Label, FieldName: m.APIName, Type: ColumnText})
		}
	}
	return out
}

// Decorator derives display fields for a fetched row. It must not mutate its input.
type Decorator func(client.Record) client.Record

// DecorateOwnerAndURL adds the owner's display name and a navigable record URL.
func DecorateOwnerAndURL(r client.Record) client.Record {
	out := r.Clone()
	owner := ""
	if v, ok := r.Lookup("Owner.Name"); ok {
		if s, ok := v.(string); ok {
			owner = s
		}
	}
	out[FieldOwnerName] = owner
	out[FieldRecordURL] = "/" + r.ID()
	return out
}
