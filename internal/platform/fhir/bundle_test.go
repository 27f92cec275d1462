package fhir

import (
	"net/url"
	"strings"
	"testing"
)

func linkByRelation(links []BundleLink, relation string) (BundleLink, bool) {
	for _, l := range links {
		if l.Relation == relation {
			return l, true
		}
	}
	return BundleLink{}, false
}

func TestSearchBundleLinksMiddlePage(t *testing.T) {
	page := SearchPage{
		BaseURL:      "http://localhost/fhir",
		ResourceType: "Patient",
		Params:       url.Values{"name": []string{"Maria"}},
		Count:        20,
		Offset:       20,
		Total:        45,
	}

	b := NewSearchBundle(nil, page)

	if b.Type != "searchset" {
		t.Fatalf("type = %q", b.Type)
	}
	if b.Total == nil || *b.Total != 45 {
		t.Errorf("total = %v", b.Total)
	}

	self, ok := linkByRelation(b.Link, "self")
	if !ok || !strings.Contains(self.URL, "_offset=20") {
		t.Errorf("self = %+v", self)
	}
	next, ok := linkByRelation(b.Link, "next")
	if !ok || !strings.Contains(next.URL, "_offset=40") {
		t.Errorf("next = %+v", next)
	}
	prev, ok := linkByRelation(b.Link, "previous")
	if !ok || !strings.Contains(prev.URL, "_offset=0") {
		t.Errorf("previous = %+v", prev)
	}
	if !strings.Contains(self.URL, "name=Maria") {
		t.Errorf("self link dropped the search params: %q", self.URL)
	}
}

func TestSearchBundleLinksLastPage(t *testing.T) {
	page := SearchPage{
		BaseURL:      "http://localhost/fhir",
		ResourceType: "Patient",
		Count:        20,
		Offset:       40,
		Total:        45,
	}

	b := NewSearchBundle(nil, page)

	if _, ok := linkByRelation(b.Link, "next"); ok {
		t.Error("last page must not carry a next link")
	}
	if prev, ok := linkByRelation(b.Link, "previous"); !ok || !strings.Contains(prev.URL, "_offset=20") {
		t.Errorf("previous = %+v", prev)
	}
}

func TestSearchBundleLinksFirstPage(t *testing.T) {
	page := SearchPage{
		BaseURL:      "http://localhost/fhir",
		ResourceType: "Patient",
		Count:        20,
		Offset:       0,
		Total:        45,
	}

	b := NewSearchBundle(nil, page)

	if _, ok := linkByRelation(b.Link, "previous"); ok {
		t.Error("first page must not carry a previous link")
	}
	if next, ok := linkByRelation(b.Link, "next"); !ok || !strings.Contains(next.URL, "_offset=20") {
		t.Errorf("next = %+v", next)
	}
}

func TestSearchBundleEntries(t *testing.T) {
	type fake struct {
		ResourceType string `json:"resourceType"`
		ID           string `json:"id"`
	}
	resources := []interface{}{
		fake{ResourceType: "Patient", ID: "abc"},
		fake{ResourceType: "Patient", ID: "def"},
	}

	b := NewSearchBundle(resources, SearchPage{
		BaseURL:      "http://localhost/fhir",
		ResourceType: "Patient",
		Count:        20,
		Total:        2,
	})

	if len(b.Entry) != 2 {
		t.Fatalf("entries = %d", len(b.Entry))
	}
	if b.Entry[0].FullURL != "http://localhost/fhir/Patient/abc" {
		t.Errorf("fullUrl = %q", b.Entry[0].FullURL)
	}
	if b.Entry[0].Search == nil || b.Entry[0].Search.Mode != SearchModeMatch {
		t.Errorf("search = %+v", b.Entry[0].Search)
	}
}
