package web

import (
	"bytes"
	"embed"
	"html/template"

	"urbfisc/internal/mapview"
)

//go:embed templates/map.html
var templateFS embed.FS

var mapPage = template.Must(template.ParseFS(templateFS, "templates/map.html"))

type mapPageData struct {
	View         mapview.View
	Total        int
	EmptyMessage string
}

// renderMapPage executes the Leaflet page. Marker data is emitted into the
// script as JSON by html/template's contextual escaping.
func renderMapPage(view mapview.View, total int) ([]byte, error) {
	var buf bytes.Buffer
	err := mapPage.Execute(&buf, mapPageData{
		View:         view,
		Total:        total,
		EmptyMessage: mapview.EmptyMessage,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
