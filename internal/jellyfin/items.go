package jellyfin

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/blackwell-systems/tagctl/internal/tagutil"
)

// SearchFields is the field set requested for search, export and tag
// aggregation. TagItems and InheritedTags are not sent by default, so
// they must be asked for explicitly.
var SearchFields = []string{
	"TagItems",
	"InheritedTags",
	"Name",
	"Path",
	"ProviderIds",
	"Type",
	"Tags",
	"SortName",
	"PremiereDate",
	"ProductionYear",
}

// TagItem is a structured tag entry on an item.
type TagItem struct {
	Name string `json:"Name"`
}

// Person is a cast or crew credit carried through metadata updates.
type Person struct {
	Name string `json:"Name,omitempty"`
	Type string `json:"Type,omitempty"`
	Role string `json:"Role,omitempty"`
}

// Studio is a production studio reference.
type Studio struct {
	Name string `json:"Name,omitempty"`
}

// Item carries the fields requested for search plus the metadata that
// must be echoed back on update. Jellyfin's update endpoint replaces the
// whole metadata record, so omitting a populated field would wipe it.
type Item struct {
	ID              string            `json:"Id"`
	Name            string            `json:"Name,omitempty"`
	SortName        string            `json:"SortName,omitempty"`
	Type            string            `json:"Type,omitempty"`
	Path            string            `json:"Path,omitempty"`
	Overview        string            `json:"Overview,omitempty"`
	Genres          []string          `json:"Genres,omitempty"`
	Tags            []string          `json:"Tags,omitempty"`
	TagItems        []TagItem         `json:"TagItems,omitempty"`
	InheritedTags   []string          `json:"InheritedTags,omitempty"`
	ProviderIDs     map[string]string `json:"ProviderIds,omitempty"`
	CommunityRating float64           `json:"CommunityRating,omitempty"`
	CriticRating    float64           `json:"CriticRating,omitempty"`
	OfficialRating  string            `json:"OfficialRating,omitempty"`
	ProductionYear  int               `json:"ProductionYear,omitempty"`
	PremiereDate    string            `json:"PremiereDate,omitempty"`
	EndDate         string            `json:"EndDate,omitempty"`
	Taglines        []string          `json:"Taglines,omitempty"`
	People          []Person          `json:"People,omitempty"`
	Studios         []Studio          `json:"Studios,omitempty"`
}

// AllTags merges TagItems, Tags and InheritedTags into one list,
// deduplicated case-insensitively with the first-seen casing kept.
func (it *Item) AllTags() []string {
	names := make([]string, 0, len(it.TagItems))
	for _, t := range it.TagItems {
		names = append(names, t.Name)
	}
	return tagutil.Merge(names, it.Tags, it.InheritedTags)
}

// UpdatePayload returns the metadata fields to echo with an item update.
// Empty values are dropped so sparse fetches do not blank server data.
// Tags is left out; the caller sets the final list.
func (it *Item) UpdatePayload() map[string]any {
	p := make(map[string]any)
	if it.ID != "" {
		p["Id"] = it.ID
	}
	if it.Name != "" {
		p["Name"] = it.Name
	}
	if it.SortName != "" {
		p["SortName"] = it.SortName
	}
	if it.Overview != "" {
		p["Overview"] = it.Overview
	}
	if len(it.Genres) > 0 {
		p["Genres"] = it.Genres
	}
	if len(it.ProviderIDs) > 0 {
		p["ProviderIds"] = it.ProviderIDs
	}
	if it.CommunityRating != 0 {
		p["CommunityRating"] = it.CommunityRating
	}
	if it.CriticRating != 0 {
		p["CriticRating"] = it.CriticRating
	}
	if it.OfficialRating != "" {
		p["OfficialRating"] = it.OfficialRating
	}
	if it.ProductionYear != 0 {
		p["ProductionYear"] = it.ProductionYear
	}
	if it.PremiereDate != "" {
		p["PremiereDate"] = it.PremiereDate
	}
	if it.EndDate != "" {
		p["EndDate"] = it.EndDate
	}
	if len(it.Taglines) > 0 {
		p["Taglines"] = it.Taglines
	}
	if len(it.People) > 0 {
		p["People"] = it.People
	}
	if len(it.Studios) > 0 {
		p["Studios"] = it.Studios
	}
	return p
}

// ItemsPage is one page of an items listing.
type ItemsPage struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
	StartIndex       int    `json:"StartIndex"`
}

// ItemsOptions controls one page request against the items endpoint.
type ItemsOptions struct {
	ParentID     string
	IncludeTypes []string
	ExcludeTypes []string
	Fields       []string
	SearchTerm   string
	SortBy       string
	SortOrder    string
	StartIndex   int
	Limit        int
}

func (o ItemsOptions) values() url.Values {
	v := url.Values{}
	v.Set("ParentId", o.ParentID)
	v.Set("Recursive", "true")
	v.Set("Fields", strings.Join(o.Fields, ","))
	v.Set("StartIndex", strconv.Itoa(o.StartIndex))
	v.Set("Limit", strconv.Itoa(o.Limit))
	if len(o.IncludeTypes) > 0 {
		v.Set("IncludeItemTypes", strings.Join(o.IncludeTypes, ","))
	}
	if s := strings.TrimSpace(o.SearchTerm); s != "" {
		v.Set("SearchTerm", s)
	}
	if len(o.ExcludeTypes) > 0 {
		v.Set("ExcludeItemTypes", strings.Join(o.ExcludeTypes, ","))
	}
	if o.SortBy != "" {
		v.Set("SortBy", o.SortBy)
		v.Set("SortOrder", o.SortOrder)
	}
	return v
}

// Items fetches one page of library items. With a user ID the user-scoped
// endpoint is used so per-user access rules apply.
func (c *Client) Items(userID string, opts ItemsOptions) (*ItemsPage, error) {
	endpoint := c.url("Items")
	if userID != "" {
		endpoint = c.url("Users", userID, "Items")
	}
	var page ItemsPage
	if err := c.sendJSON(http.MethodGet, endpoint, opts.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Item fetches a single item with full metadata.
func (c *Client) Item(userID, itemID string) (*Item, error) {
	endpoint := c.url("Items", itemID)
	if userID != "" {
		endpoint = c.url("Users", userID, "Items", itemID)
	}
	var it Item
	if err := c.sendJSON(http.MethodGet, endpoint, nil, nil, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// UpdateItem pushes a metadata payload for one item.
func (c *Client) UpdateItem(itemID string, payload map[string]any) error {
	return c.putWithFallback(c.url("Items", itemID), payload)
}
