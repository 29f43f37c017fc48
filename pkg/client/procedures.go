package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchFilteredRecords fetches at most limit records matching filters
func (c *Client) FetchFilteredRecords(ctx context.Context, source Source, limit int, filters map[string]string) ([]Record, error) {
	if filters == nil {
		filters = map[string]string{}
	}
	var out []Record
	err := c.call(ctx, "fetchFilteredRecords", map[string]any{
		"source":       source,
		"limitRecords": limit,
		"filters":      filters,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchFilterFields returns the filter field set of a list source
func (c *Client) FetchFilterFields(ctx context.Context, source Source) ([]FieldMetadata, error) {
	var out []FieldMetadata
	if err := c.call(ctx, "fetchFilterFields", map[string]any{"source": source}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchTableColumns returns the table field set of a list source
func (c *Client) FetchTableColumns(ctx context.Context, source Source) ([]ColumnMetadata, error) {
	var out []ColumnMetadata
	if err := c.call(ctx, "fetchTableColumns", map[string]any{"source": source}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindDuplicate looks up contacts sharing the email, phone or mobile.
// A nil slice means no duplicate.
func (c *Client) FindDuplicate(ctx context.Context, email, phone, mobile string) ([]Record, error) {
	var out []Record
	err := c.call(ctx, "findDuplicate", map[string]any{
		"email":  email,
		"phone":  phone,
		"mobile": mobile,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchContactFields returns the API names of the new-contact field set
func (c *Client) FetchContactFields(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.call(ctx, "fetchContactFields", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRecord creates a record of objectType and returns it with its Id
func (c *Client) CreateRecord(ctx context.Context, objectType string, fields map[string]any) (Record, error) {
	var out Record
	err := c.call(ctx, "createRecord", map[string]any{
		"objectType": objectType,
		"fields":     fields,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.ID() == "" {
		return nil, fmt.Errorf("createRecord: response carries no Id")
	}
	return out, nil
}

// UpdateRecordField updates fields on the record id
func (c *Client) UpdateRecordField(ctx context.Context, id string, fields map[string]any) error {
	return c.call(ctx, "updateRecordField", map[string]any{
		"id":     id,
		"fields": fields,
	}, nil)
}

// UploadFile attaches a base64 payload to the parent record
func (c *Client) UploadFile(ctx context.Context, fileName, base64Data, parentID string) error {
	return c.call(ctx, "uploadFile", map[string]any{
		"fileName":   fileName,
		"base64Data": base64Data,
		"recordId":   parentID,
	}, nil)
}

// ListFiles lists the images uploaded to a record, in display order
func (c *Client) ListFiles(ctx context.Context, recordID string) ([]MediaFile, error) {
	var out []MediaFile
	if err := c.call(ctx, "listFiles", map[string]any{"recordId": recordID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReorderFiles persists the display order given by serial numbers
func (c *Client) ReorderFiles(ctx context.Context, files []MediaFile) error {
	return c.call(ctx, "reorderFiles", map[string]any{"mediaList": files}, nil)
}

// CheckMediaPresence returns MediaSentinel or a message describing what is missing
func (c *Client) CheckMediaPresence(ctx context.Context, listingID string) (string, error) {
	var out string
	if err := c.call(ctx, "checkMediaPresence", map[string]any{"listingId": listingID}, &out); err != nil {
		return "", err
	}
	return out, nil
}

// PublishOrUnpublish asks the platform to publish or unpublish a listing on a portal.
// The platform answers either with the result object or with the object serialized as
// a JSON string; both are accepted.
func (c *Client) PublishOrUnpublish(ctx context.Context, portal, action, listingID string) (*PublishResult, error) {
	var raw json.RawMessage
	err := c.call(ctx, "publishOrUnpublish", map[string]any{
		"websiteName":     portal,
		"actionName":      action,
		"listingRecordId": listingID,
	}, &raw)
	if err != nil {
		return nil, err
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}

	var result PublishResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding publish result: %w", err)
	}
	return &result, nil
}

// FetchListing returns one listing record
func (c *Client) FetchListing(ctx context.Context, listingID string) (Record, error) {
	var out Record
	if err := c.call(ctx, "fetchListing", map[string]any{"listingId": listingID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPortals returns the portals configured for a listing
func (c *Client) ListPortals(ctx context.Context, listingID string) ([]Portal, error) {
	var out []Portal
	if err := c.call(ctx, "listPortals", map[string]any{"recordId": listingID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRegionPortals returns the portals available in the listing's region
func (c *Client) ListRegionPortals(ctx context.Context, listingID string) ([]RegionPortal, error) {
	var out []RegionPortal
	if err := c.call(ctx, "listRegionPortals", map[string]any{"recordId": listingID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchPortalFieldSettings returns the raw required-field setting rows of one setting
func (c *Client) FetchPortalFieldSettings(ctx context.Context, setting string) ([]Record, error) {
	var out []Record
	if err := c.call(ctx, "fetchPortalFieldSettings", map[string]any{"setting": setting}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchStatus returns the current sub-status label of a listing
func (c *Client) FetchStatus(ctx context.Context, recordID string) (string, error) {
	var out string
	if err := c.call(ctx, "fetchStatus", map[string]any{"recordId": recordID}, &out); err != nil {
		return "", err
	}
	return out, nil
}

// FetchStatusValues returns the ordered sub-status picklist
func (c *Client) FetchStatusValues(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.call(ctx, "fetchStatusValues", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchHeroImage returns the base URL of the listing's related property media
func (c *Client) FetchHeroImage(ctx context.Context, listingID string) (string, error) {
	var out string
	if err := c.call(ctx, "fetchHeroImage", map[string]any{"listingId": listingID}, &out); err != nil {
		return "", err
	}
	return out, nil
}
