package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// Metadata describes an ingested document
type Metadata struct {
	Source    string `json:"source"`             // filename or URL
	Timestamp string `json:"timestamp"`          // RFC3339 format
	Hash      string `json:"hash"`               // SHA256 hex digest of the cleaned text
	Chars     int    `json:"chars"`              // rune count of the cleaned text
	Words     int    `json:"words"`              // whitespace-separated words
	Platform  string `json:"platform,omitempty"` // job board, for URLs
	Rendered  bool   `json:"rendered,omitempty"` // text came from the headless browser
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(content string, source string) *Metadata {
	return &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		Chars:     utf8.RuneCountInString(content),
		Words:     CountWords(content),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
