package domain

import (
	"context"
	"fmt"

	"github.com/pendergraft/listingdesk/internal/publish"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// FieldSetting describes a platform setting listing the fields some portals require,
// and which keys of its rows carry the field name, the required flag and the label.
type FieldSetting struct {
	Name        string
	KeyField    string
	RequiredKey string
	LabelField  string
	Portals     []string
}

// DefaultFieldSettings returns the known required-field settings.
func DefaultFieldSettings() []FieldSetting {
	return []FieldSetting{
		{
			Name:        "OTM",
			KeyField:    "API_Name__c",
			RequiredKey: "Is_Required__c",
			LabelField:  "Label",
			Portals:     []string{"On The Market", "Rightmove UK"},
		},
		{
			Name:        "Anywhere",
			KeyField:    "API_Name__c",
			RequiredKey: "Is_Required__c",
			LabelField:  "Label",
			Portals:     []string{"SIR.com Anywhere"},
		},
		{
			Name:        "Zoopla",
			KeyField:    "Listing_Field_Api_Name__c",
			RequiredKey: "Required__c",
			LabelField:  "Name",
			Portals:     []string{"Zoopla UK"},
		},
	}
}

// Parse converts raw setting rows into required-field descriptors. Rows without a
// field name are skipped.
func (fs FieldSetting) Parse(rows []client.Record) []publish.RequiredField {
	out := make([]publish.RequiredField, 0, len(rows))
	for _, r := range rows {
		key := r.String(fs.KeyField)
		if key == "" {
			continue
		}
		out = append(out, publish.RequiredField{
			APIKey:   key,
			Label:    r.String(fs.LabelField),
			Required: r.Bool(fs.RequiredKey),
		})
	}
	return out
}

// SettingsFetcher loads raw setting rows.
type SettingsFetcher interface {
	FetchPortalFieldSettings(ctx context.Context, setting string) ([]client.Record, error)
}

// load fetches and parses one setting.
func (fs FieldSetting) load(ctx context.Context, f SettingsFetcher) ([]publish.RequiredField, error) {
	rows, err := f.FetchPortalFieldSettings(ctx, fs.Name)
	if err != nil {
		return nil, fmt.Errorf("loading %s field setting: %w", fs.Name, err)
	}
	return fs.Parse(rows), nil
}
