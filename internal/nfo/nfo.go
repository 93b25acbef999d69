// Package nfo renders Kodi-style .nfo sidecar documents for library
// items. Media managers re-read these files on scan, so tag updates are
// mirrored into them to survive a metadata refresh.
package nfo

import (
	"encoding/xml"
	"sort"
	"strconv"
	"strings"
)

// Person is one cast or crew credit.
type Person struct {
	Name string
	Type string
	Role string
}

// Metadata is the subset of item metadata that lands in a sidecar.
type Metadata struct {
	Title           string
	SortTitle       string
	Plot            string
	Taglines        []string
	CommunityRating float64
	CriticRating    float64
	MPAA            string
	Year            int
	Premiered       string
	Ended           string
	Genres          []string
	Tags            []string
	People          []Person
	Studios         []string
	ProviderIDs     map[string]string
}

// Render produces the sidecar XML. Element order is fixed: scanners key
// on the first tagline, so the opening tagline precedes the ratings and
// any further taglines trail the tag list. Provider ids are emitted in
// key order to keep the output deterministic.
func Render(m Metadata) (string, error) {
	var b strings.Builder
	w := docWriter{enc: xml.NewEncoder(&b)}

	w.open("item")
	w.text("title", m.Title)
	w.text("sorttitle", m.SortTitle)
	w.text("plot", m.Plot)
	if len(m.Taglines) > 0 {
		w.text("tagline", m.Taglines[0])
	}
	w.text("communityrating", formatRating(m.CommunityRating))
	w.text("criticrating", formatRating(m.CriticRating))
	w.text("mpaa", m.MPAA)
	if m.Year != 0 {
		w.text("year", strconv.Itoa(m.Year))
	}
	w.text("premiered", m.Premiered)
	w.text("ended", m.Ended)
	for _, genre := range m.Genres {
		w.text("genre", genre)
	}
	for _, tag := range m.Tags {
		w.text("tag", tag)
	}
	for i, tagline := range m.Taglines {
		if i == 0 {
			continue
		}
		w.text("tagline", tagline)
	}
	if len(m.People) > 0 {
		w.open("people")
		for _, p := range m.People {
			w.open("person")
			w.text("name", p.Name)
			w.text("type", p.Type)
			w.text("role", p.Role)
			w.close("person")
		}
		w.close("people")
	}
	for _, studio := range m.Studios {
		w.text("studio", studio)
	}
	for _, key := range sortedKeys(m.ProviderIDs) {
		if value := m.ProviderIDs[key]; value != "" {
			w.attrText("uniqueid", value, "type", key)
		}
	}
	w.close("item")

	if w.err == nil {
		w.err = w.enc.Flush()
	}
	return b.String(), w.err
}

// docWriter wraps an xml.Encoder with sticky error handling so Render
// reads as a flat element list.
type docWriter struct {
	enc *xml.Encoder
	err error
}

func (w *docWriter) token(t xml.Token) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(t)
	}
}

func (w *docWriter) open(name string) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}})
}

func (w *docWriter) close(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

// text writes <name>value</name>, skipping blank values.
func (w *docWriter) text(name, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	w.open(name)
	w.token(xml.CharData(trimmed))
	w.close(name)
}

func (w *docWriter) attrText(name, value, attrName, attrValue string) {
	w.token(xml.StartElement{
		Name: xml.Name{Local: name},
		Attr: []xml.Attr{{Name: xml.Name{Local: attrName}, Value: attrValue}},
	})
	w.token(xml.CharData(value))
	w.close(name)
}

// formatRating renders a rating without trailing zeros, empty when the
// rating is unset.
func formatRating(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
