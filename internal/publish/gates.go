package publish

import (
	"strings"

	"github.com/pendergraft/listingdesk/pkg/client"
)

// PostalCodeField is the listing field checked by the postal code gate.
const PostalCodeField = "pba__PostalCode_pb__c"

// User-facing gate messages.
const (
	MissingFieldsPrefix = "Before proceeding to publish this listing, please fill in the following fields : "
	PostalCodeMessage   = "Please make sure Postal Code is in the following format and try again :- Outward code [space] Inward Code, example AA9A 9AA."
	SubmitFailedMessage = "Something went wrong while publishing the listing on Portal"
	MediaFailedMessage  = "Something went wrong while publishing or unpublishing listing."
)

// RequiredField describes one listing field a portal may require before publishing.
type RequiredField struct {
	APIKey   string `json:"apiKey"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// MissingRequiredFields returns the required fields whose value is absent on listing,
// in descriptor order.
func MissingRequiredFields(listing client.Record, fields []RequiredField) []RequiredField {
	var missing []RequiredField
	for _, f := range fields {
		if f.Required && isAbsent(listing[f.APIKey]) {
			missing = append(missing, f)
		}
	}
	return missing
}

// isAbsent treats nil and blank strings as absent. Zero numbers and false are values.
func isAbsent(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

// MissingFieldsMessage renders the missing-field notice.
func MissingFieldsMessage(missing []RequiredField) string {
	labels := make([]string, len(missing))
	for i, f := range missing {
		labels[i] = f.Label
	}
	return MissingFieldsPrefix + strings.Join(labels, ", ")
}

// ValidPostalCode reports whether the listing's postal code, when present, has the
// outward and inward codes separated by a space.
func ValidPostalCode(listing client.Record) bool {
	pc := listing.String(PostalCodeField)
	if pc == "" {
		return true
	}
	return strings.Contains(pc, " ")
}
