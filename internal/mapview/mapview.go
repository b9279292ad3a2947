// Package mapview builds the occurrence map: Leaflet markers for the home
// page and a GeoJSON feed of the same points.
package mapview

import (
	"encoding/json"

	"urbfisc/internal/occurrence"
)

// Marker colours, by status.
const (
	ColorPending = "red"
	ColorOther   = "green"
)

// EmptyMessage is shown when no record has coordinates.
const EmptyMessage = "Nenhuma coordenada registrada ainda."

// DefaultZoom is the initial Leaflet zoom level.
const DefaultZoom = 13

// Marker is one pin on the map.
type Marker struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Color   string  `json:"color"`
	Popup   string  `json:"popup"`
	Tooltip string  `json:"tooltip"`
}

// View is everything the map page needs.
type View struct {
	Markers   []Marker `json:"markers"`
	CenterLat float64  `json:"center_lat"`
	CenterLon float64  `json:"center_lon"`
	Zoom      int      `json:"zoom"`
	Empty     bool     `json:"empty"`
}

// Build places one marker per located record and centres the map on the
// mean coordinate.
func Build(records []occurrence.Record) View {
	view := View{Zoom: DefaultZoom}
	var sumLat, sumLon float64

	for _, rec := range records {
		if !rec.HasLocation() {
			continue
		}
		lat, lon := *rec.Latitude, *rec.Longitude
		view.Markers = append(view.Markers, Marker{
			Lat:     lat,
			Lon:     lon,
			Color:   color(rec.Status),
			Popup:   "OS: " + rec.ExternalID,
			Tooltip: rec.Neighborhood + " - " + rec.Status,
		})
		sumLat += lat
		sumLon += lon
	}

	if len(view.Markers) == 0 {
		view.Empty = true
		return view
	}
	n := float64(len(view.Markers))
	view.CenterLat = sumLat / n
	view.CenterLon = sumLon / n
	return view
}

func color(status string) string {
	if status == occurrence.StatusPending {
		return ColorPending
	}
	return ColorOther
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// GeoJSON encodes located records as a FeatureCollection of points.
// Coordinates follow GeoJSON order: longitude first.
func GeoJSON(records []occurrence.Record) ([]byte, error) {
	fc := featureCollection{Type: "FeatureCollection", Features: []feature{}}
	for _, rec := range records {
		if !rec.HasLocation() {
			continue
		}
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Geometry: geometry{
				Type:        "Point",
				Coordinates: [2]float64{*rec.Longitude, *rec.Latitude},
			},
			Properties: map[string]any{
				"external_id": rec.ExternalID,
				"bairro":      rec.Neighborhood,
				"zona":        rec.Zone,
				"status":      rec.Status,
				"color":       color(rec.Status),
			},
		})
	}
	return json.Marshal(fc)
}
