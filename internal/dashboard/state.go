package dashboard

import (
	"net/url"
	"strings"

	"github.com/i474232898/nwac-weather/internal/common"
)

// PageState is the dashboard selection carried in the page URL.
type PageState struct {
	Sites []string
}

// Encode renders the state as a query string, e.g. "sites=alpental%2Csnoqualmie".
func (s PageState) Encode() string {
	return url.Values{"sites": {strings.Join(s.Sites, ",")}}.Encode()
}

// PageStateFromURL reads the state back from a full URL or a bare query
// string. A missing sites parameter yields an empty selection.
func PageStateFromURL(raw string) (PageState, error) {
	query := raw
	if strings.Contains(raw, "?") || !strings.Contains(raw, "=") {
		u, err := url.Parse(raw)
		if err != nil {
			return PageState{}, err
		}
		query = u.RawQuery
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return PageState{}, err
	}
	return PageState{Sites: common.SplitList(values.Get("sites"))}, nil
}

// SelectedOr returns the selected sites, or the first site of the directory
// when nothing is selected.
func (s PageState) SelectedOr(directory []string) []string {
	if len(s.Sites) > 0 || len(directory) == 0 {
		return s.Sites
	}
	return directory[:1]
}
