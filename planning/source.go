// Package planning is a tool-calling agent for Israeli planning and zoning
// questions, bound to a planning-document search source and two fixture
// lookup tables.
package planning

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// PlanQuery narrows a planning-document search. All fields are optional.
type PlanQuery struct {
	// Block and Lot identify a parcel (gush/chelka).
	Block    string `json:"block"`
	Lot      string `json:"lot"`
	Plan     string `json:"plan"`
	Locality string `json:"locality"`
}

// Plan is one search hit.
type Plan struct {
	Number string
	Name   string
}

// DataSource finds urban building plans. The production implementation
// scrapes tabainfo.co.il; keeping it behind this interface lets the agent
// swap in a structured API without changing any tool logic.
type DataSource interface {
	SearchPlans(ctx context.Context, q PlanQuery) ([]Plan, error)
}

const tabaInfoSearchURL = "https://www.tabainfo.co.il/תבע/חיפוש"

// NewTabaInfo returns a DataSource backed by the tabainfo.co.il search page.
func NewTabaInfo(client *http.Client) *TabaInfo {
	return &TabaInfo{
		client:    client,
		searchURL: tabaInfoSearchURL,
	}
}

type TabaInfo struct {
	client    *http.Client
	searchURL string
}

// SearchPlans runs the search and extracts result titles from the page.
// The selectors mirror the site's markup and will break if it changes.
func (t *TabaInfo) SearchPlans(ctx context.Context, q PlanQuery) ([]Plan, error) {
	params := url.Values{}
	if q.Plan != "" {
		params.Set("number", q.Plan)
	}
	if q.Locality != "" {
		params.Set("locality", q.Locality)
	}
	if q.Block != "" {
		params.Set("block", q.Block)
		params.Set("__Invariant", "Block")
	}
	if q.Lot != "" {
		params.Set("lot", q.Lot)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	items := doc.Find("div.plan-item")
	if items.Length() == 0 {
		items = doc.Find("a.plan-link")
	}

	var plans []Plan
	items.Each(func(_ int, s *goquery.Selection) {
		number := s.Find("span.plan-number").Text()
		if number == "" {
			number = "לא ידוע"
		}
		name := s.Find("h4").Text()
		if name == "" {
			name = "שם לא ידוע"
		}
		plans = append(plans, Plan{Number: number, Name: name})
	})
	return plans, nil
}
