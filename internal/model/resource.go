package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ResourceType identifies an upstream collection watched for new items.
type ResourceType string

const (
	ResourceContact       ResourceType = "contact"
	ResourcePortfolioItem ResourceType = "portfolio_item"
)

// WatchedResources lists the resource types polled by the detection
// cycle, in the order they are processed.
var WatchedResources = []ResourceType{ResourceContact, ResourcePortfolioItem}

// Contact is a contact-form inquiry as served by the admin API.
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON decodes a contact, leaving CreatedAt zero when the
// backend sends a missing, empty or malformed timestamp.
func (c *Contact) UnmarshalJSON(data []byte) error {
	type plain Contact
	aux := struct {
		*plain
		CreatedAt json.RawMessage `json:"createdAt"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.CreatedAt = parseCreatedAt(aux.CreatedAt)
	return nil
}

// PortfolioItem is a published portfolio entry as served by the admin API.
type PortfolioItem struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UnmarshalJSON decodes a portfolio item with the same timestamp
// tolerance as Contact.
func (p *PortfolioItem) UnmarshalJSON(data []byte) error {
	type plain PortfolioItem
	aux := struct {
		*plain
		CreatedAt json.RawMessage `json:"createdAt"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.CreatedAt = parseCreatedAt(aux.CreatedAt)
	return nil
}

// createdAtLayouts are tried in order for string timestamps.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// parseCreatedAt accepts an RFC 3339 string, a few common variants, or
// epoch milliseconds. Anything else yields the zero time.
func parseCreatedAt(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return time.Time{}
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Snapshot is the last observed state of one watched collection. Items
// holds the typed records re-encoded, so fields the backend sends beyond
// those declared on Contact and PortfolioItem are not kept. Every
// successful poll replaces it wholesale.
type Snapshot struct {
	ResourceType ResourceType    `json:"resourceType"`
	Items        json.RawMessage `json:"items"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
