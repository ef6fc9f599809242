package httpapi

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/nwac-weather/internal/dashboard"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type siteOption struct {
	ID       string
	Name     string
	Selected bool
}

type indexData struct {
	Title string
	Sites []siteOption
}

// renderIndex serves the dashboard page with the selection taken from the URL.
// With no selection the first site of the directory is shown.
func renderIndex(c *fiber.Ctx, service Service) error {
	state, err := dashboard.PageStateFromURL(c.OriginalURL())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sites, err := service.Sites(c.UserContext())
	if err != nil {
		return serviceError(err)
	}

	ids := make([]string, len(sites))
	for i, s := range sites {
		ids[i] = s.ID
	}
	selected := make(map[string]bool)
	for _, id := range state.SelectedOr(ids) {
		selected[id] = true
	}

	data := indexData{Title: "NWAC Weather Data"}
	for _, s := range sites {
		data.Sites = append(data.Sites, siteOption{ID: s.ID, Name: s.Name, Selected: selected[s.ID]})
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
