package jellyfin

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// TagEntry is one row from a tags listing endpoint. Jellyfin reports the
// usage count as ItemCount, Emby as Count.
type TagEntry struct {
	Name      string `json:"Name"`
	ItemCount *int   `json:"ItemCount,omitempty"`
	Count     *int   `json:"Count,omitempty"`
}

// Uses returns the entry's usage count, whichever field carried it.
// Entries without a count report one use; negative counts clamp to zero.
func (e TagEntry) Uses() int {
	for _, c := range []*int{e.ItemCount, e.Count} {
		if c != nil {
			if *c < 0 {
				return 0
			}
			return *c
		}
	}
	return 1
}

// TagsPage is one page from a tags listing endpoint.
type TagsPage struct {
	Items            []TagEntry `json:"Items"`
	TotalRecordCount *int       `json:"TotalRecordCount,omitempty"`
	TotalCount       *int       `json:"TotalCount,omitempty"`
}

// Total returns the reported total row count, under either field name.
func (p *TagsPage) Total() (int, bool) {
	for _, c := range []*int{p.TotalRecordCount, p.TotalCount} {
		if c != nil {
			if *c < 0 {
				return 0, true
			}
			return *c, true
		}
	}
	return 0, false
}

// TagsOptions scopes one tags page request.
type TagsOptions struct {
	ParentID     string
	IncludeTypes []string
	StartIndex   int
	Limit        int
}

func (o TagsOptions) values() url.Values {
	v := url.Values{}
	if o.ParentID != "" {
		v.Set("ParentId", o.ParentID)
	}
	if len(o.IncludeTypes) > 0 {
		v.Set("IncludeItemTypes", strings.Join(o.IncludeTypes, ","))
	}
	v.Set("StartIndex", strconv.Itoa(o.StartIndex))
	v.Set("Limit", strconv.Itoa(o.Limit))
	return v
}

// Tags fetches one page from the tags listing endpoint. With a user ID
// the user-scoped endpoint is used; not every server version implements
// both, which is why callers fall back between them.
func (c *Client) Tags(userID string, opts TagsOptions) (*TagsPage, error) {
	endpoint := c.url("Items", "Tags")
	if userID != "" {
		endpoint = c.url("Users", userID, "Items", "Tags")
	}
	var page TagsPage
	if err := c.sendJSON(http.MethodGet, endpoint, opts.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
