package providers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/i474232898/nwac-weather/internal/weather"
)

// groupTableMarker identifies the script block that builds a site's data table.
const groupTableMarker = "new soGroupTable"

var (
	pageTokenPattern   = regexp.MustCompile(`const token = "(\w+)"`)
	scriptTokenPattern = regexp.MustCompile(`const token = "(\w+)";`)
	tableConfigPattern = regexp.MustCompile(`const table_config = (\[.*\]);`)
)

// TokenExtractor pulls an access token out of page or script text.
type TokenExtractor interface {
	ExtractToken(text string) (weather.AccessToken, error)
}

// RegexpTokenExtractor matches a pattern whose first group is the token. The
// pattern must match exactly once.
type RegexpTokenExtractor struct {
	Pattern *regexp.Regexp
}

func (e RegexpTokenExtractor) ExtractToken(text string) (weather.AccessToken, error) {
	tok, err := matchOne(e.Pattern, text, "token")
	if err != nil {
		return "", err
	}
	return weather.AccessToken(tok), nil
}

// matchOne returns the first capture group of pattern, failing unless the
// pattern matched exactly once.
func matchOne(pattern *regexp.Regexp, text, what string) (string, error) {
	matches := pattern.FindAllStringSubmatch(text, -1)
	switch len(matches) {
	case 0:
		return "", weather.FormatErrorf("%s pattern not found", what)
	case 1:
		return matches[0][1], nil
	default:
		return "", weather.FormatErrorf("%s pattern matched %d times", what, len(matches))
	}
}

// siteScript holds what a site's "now" page reveals about its stations.
type siteScript struct {
	Token      weather.AccessToken
	StationIDs []string
}

// parseSiteScript locates the single group-table script in page and extracts
// the token and station ids from it.
func parseSiteScript(page string, tokens TokenExtractor) (siteScript, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return siteScript{}, weather.FormatErrorf("parse site page: %v", err)
	}

	var scripts []string
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "script" {
			return
		}
		if text := textContent(n); strings.Contains(text, groupTableMarker) {
			scripts = append(scripts, text)
		}
	})
	if len(scripts) != 1 {
		return siteScript{}, weather.FormatErrorf("expected one %q script, found %d", groupTableMarker, len(scripts))
	}
	script := scripts[0]

	token, err := tokens.ExtractToken(script)
	if err != nil {
		return siteScript{}, err
	}

	config, err := matchOne(tableConfigPattern, script, "table_config")
	if err != nil {
		return siteScript{}, err
	}
	ids, err := stationIDs(config)
	if err != nil {
		return siteScript{}, err
	}

	return siteScript{Token: token, StationIDs: ids}, nil
}

// stationIDs reads the station id (first element) of each table_config entry,
// dropping duplicates and keeping first-seen order.
func stationIDs(config string) ([]string, error) {
	var entries [][]json.RawMessage
	if err := json.Unmarshal([]byte(config), &entries); err != nil {
		return nil, weather.FormatErrorf("decode table_config: %v", err)
	}

	seen := make(map[string]bool, len(entries))
	ids := make([]string, 0, len(entries))
	for i, entry := range entries {
		if len(entry) == 0 {
			return nil, weather.FormatErrorf("table_config entry %d is empty", i)
		}
		id, err := stationID(entry[0])
		if err != nil {
			return nil, weather.FormatErrorf("table_config entry %d: %v", i, err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, weather.FormatErrorf("table_config lists no stations")
	}
	return ids, nil
}

func stationID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "" {
		return n.String(), nil
	}
	return "", fmt.Errorf("station id %s is neither string nor number", raw)
}

// parseSiteList reads the directory page's station cells in page order.
func parseSiteList(page string) ([]weather.Site, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, weather.FormatErrorf("parse directory page: %v", err)
	}

	var (
		sites  []weather.Site
		seen   = make(map[string]bool)
		cells  int
		badErr error
	)
	walk(doc, func(n *html.Node) {
		if badErr != nil || !isElement(n, "li", "station-title-cell") {
			return
		}
		cells++

		site, err := parseSiteCell(n)
		if err != nil {
			badErr = err
			return
		}
		if !seen[site.ID] {
			seen[site.ID] = true
			sites = append(sites, site)
		}
	})
	if badErr != nil {
		return nil, badErr
	}
	if cells == 0 {
		return nil, weather.FormatErrorf("no station-title-cell entries on directory page")
	}
	return sites, nil
}

func parseSiteCell(cell *html.Node) (weather.Site, error) {
	var link *html.Node
	walk(cell, func(n *html.Node) {
		if link == nil && isElement(n, "a", "station-link") {
			link = n
		}
	})
	if link == nil {
		return weather.Site{}, weather.FormatErrorf("station cell without station-link anchor")
	}

	href := attr(link, "href")
	u, err := url.Parse(href)
	if err != nil {
		return weather.Site{}, weather.FormatErrorf("station link %q: %v", href, err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[1] == "" {
		return weather.Site{}, weather.FormatErrorf("station link %q has no site segment", href)
	}

	name := displayName(textContent(cell))
	if name == "" {
		return weather.Site{}, weather.FormatErrorf("station cell %q without display name", segments[1])
	}
	return weather.Site{ID: segments[1], Name: name}, nil
}

// displayName takes the second line of a station cell's text, which is where
// the directory page puts the site name. Cells rendered on fewer lines fall back
// to the first non-blank line.
func displayName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 1 {
		if name := strings.TrimSpace(lines[1]); name != "" {
			return name
		}
	}
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			return name
		}
	}
	return ""
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isElement(n *html.Node, tag, class string) bool {
	if n.Type != html.ElementNode || n.Data != tag {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
