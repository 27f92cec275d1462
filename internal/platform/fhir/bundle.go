package fhir

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Bundle is the FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
	Search   *BundleSearch   `json:"search,omitempty"`
	Request  *BundleRequest  `json:"request,omitempty"`
	Response *BundleResponse `json:"response,omitempty"`
}

type BundleSearch struct {
	Mode string `json:"mode,omitempty"`
}

type BundleRequest struct {
	Method  string `json:"method"`
	URL     string `json:"url"`
	IfMatch string `json:"ifMatch,omitempty"`
}

type BundleResponse struct {
	Status       string      `json:"status"`
	Location     string      `json:"location,omitempty"`
	ETag         string      `json:"etag,omitempty"`
	LastModified *time.Time  `json:"lastModified,omitempty"`
	Outcome      interface{} `json:"outcome,omitempty"`
}

// Search entry modes.
const (
	SearchModeMatch   = "match"
	SearchModeInclude = "include"
)

// SearchPage describes the result window of a search, used to build the
// searchset Bundle and its navigation links.
type SearchPage struct {
	BaseURL      string     // server base, e.g. "https://host/fhir"
	ResourceType string     // searched type, for the link path
	Params       url.Values // original request parameters
	Count        int
	Offset       int
	Total        int
}

// NewSearchBundle wraps converted resources into a searchset Bundle. Every
// entry gets a fullUrl of {base}/{type}/{id} and search.mode=match. The self
// link is always present; next appears only while offset+count < total and
// previous only while offset > 0.
func NewSearchBundle(resources []interface{}, page SearchPage) *Bundle {
	now := time.Now().UTC()
	entries := make([]BundleEntry, len(resources))
	for i, r := range resources {
		raw, _ := json.Marshal(r)
		entries[i] = BundleEntry{
			FullURL:  fullURLFor(raw, page.BaseURL),
			Resource: raw,
			Search:   &BundleSearch{Mode: SearchModeMatch},
		}
	}

	total := page.Total
	return &Bundle{
		ResourceType: "Bundle",
		Type:         "searchset",
		Total:        &total,
		Timestamp:    &now,
		Link:         page.links(),
		Entry:        entries,
	}
}

// links clones the original parameter set with _offset replaced per page.
func (p SearchPage) links() []BundleLink {
	links := []BundleLink{
		{Relation: "self", URL: p.pageURL(p.Offset)},
	}
	if p.Offset+p.Count < p.Total {
		links = append(links, BundleLink{Relation: "next", URL: p.pageURL(p.Offset + p.Count)})
	}
	if p.Offset > 0 {
		prev := p.Offset - p.Count
		if prev < 0 {
			prev = 0
		}
		links = append(links, BundleLink{Relation: "previous", URL: p.pageURL(prev)})
	}
	return links
}

func (p SearchPage) pageURL(offset int) string {
	values := url.Values{}
	for k, vs := range p.Params {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	values.Set("_count", strconv.Itoa(p.Count))
	values.Set("_offset", strconv.Itoa(offset))
	return fmt.Sprintf("%s/%s?%s", p.BaseURL, p.ResourceType, values.Encode())
}

// fullURLFor reads resourceType and id back out of the marshaled resource.
func fullURLFor(raw json.RawMessage, baseURL string) string {
	var envelope struct {
		ResourceType string `json:"resourceType"`
		ID           string `json:"id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if envelope.ResourceType == "" || envelope.ID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", baseURL, envelope.ResourceType, envelope.ID)
}

// NewTransactionResponse assembles the transaction-response envelope.
func NewTransactionResponse(entries []BundleEntry) *Bundle {
	now := time.Now().UTC()
	return &Bundle{
		ResourceType: "Bundle",
		Type:         "transaction-response",
		Timestamp:    &now,
		Entry:        entries,
	}
}

// NewBatchResponse assembles the batch-response envelope.
func NewBatchResponse(entries []BundleEntry) *Bundle {
	now := time.Now().UTC()
	return &Bundle{
		ResourceType: "Bundle",
		Type:         "batch-response",
		Entry:        entries,
		Timestamp:    &now,
	}
}
