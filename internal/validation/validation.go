// Package validation provides input validation for listingdesk.
package validation

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// Record ids: platform ids, UUIDs and test fixtures, 1-64 chars
var recordIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Field API names, optionally one relationship hop (Owner.Name)
var fieldKeyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)?$`)

// MaxFilterValueLength caps a single filter value
const MaxFilterValueLength = 255

// ValidateRecordID validates a platform record or session id
func ValidateRecordID(id string) error {
	if id == "" {
		return errors.New("record id cannot be empty")
	}
	if !recordIDRegex.MatchString(id) {
		return errors.New("invalid record id: must be 1-64 alphanumeric, underscore or hyphen characters")
	}
	return nil
}

// ValidateFieldKey validates a field API name
func ValidateFieldKey(key string) error {
	if key == "" {
		return errors.New("field key cannot be empty")
	}
	if len(key) > 80 {
		return errors.New("field key too long (max 80 chars)")
	}
	if !fieldKeyRegex.MatchString(key) {
		return errors.New("invalid field key: must be an API name")
	}
	return nil
}

// ValidateFilterValue validates a filter value; empty is allowed and means removal
func ValidateFilterValue(v string) error {
	if len(v) > MaxFilterValueLength {
		return errors.New("filter value too long (max 255 chars)")
	}
	return nil
}

// ValidateFileName validates an upload file name
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("file name cannot be empty")
	}
	if len(name) > 255 {
		return errors.New("file name too long (max 255 chars)")
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.New("invalid file name: must not contain path separators")
	}
	return nil
}
