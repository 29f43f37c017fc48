package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timestampLayout is how timestamps are compared and reported by both stores
const timestampLayout = "2006-01-02 15:04:05"

// generateID generates a new UUID
func generateID() string {
	return uuid.New().String()
}

// generateAPIKey generates a new API key
func generateAPIKey() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return fmt.Sprintf("ld_key_%s", hex.EncodeToString(b))
}

// hashAPIKey hashes an API key for storage
func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func checkViewState(st *ViewState) error {
	if st == nil || st.ID == "" || st.View == "" {
		return fmt.Errorf("%w: id and view are required", ErrInvalidState)
	}
	return nil
}

func encodeFilters(f map[string]string) (string, error) {
	if f == nil {
		f = map[string]string{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encoding filters: %w", err)
	}
	return string(b), nil
}

func decodeFilters(s string) (map[string]string, error) {
	out := map[string]string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding filters: %w", err)
	}
	return out, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
