// Package occurrence provides the citizen complaint ("ocorrência") model.
package occurrence

import (
	"encoding/json"
	"strings"
	"time"
)

// Status values used by the inspection sector.
const (
	StatusPending    = "Pendente"
	StatusInProgress = "Em andamento"
	StatusDone       = "Concluída"
)

// Statuses lists the accepted lifecycle tags.
var Statuses = []string{StatusPending, StatusInProgress, StatusDone}

// Timestamp holds a creation instant as stored.
//
// Records read from Postgres carry Time. Records imported from spreadsheets
// may only have the original text in Raw, which is parsed lazily at render
// time and may not be a date at all.
type Timestamp struct {
	Time time.Time
	Raw  string
}

// At wraps a parsed instant.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// RawTimestamp wraps an unparsed value.
func RawTimestamp(s string) Timestamp {
	return Timestamp{Raw: s}
}

// IsZero reports whether no creation instant was recorded.
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero() && strings.TrimSpace(t.Raw) == ""
}

// MarshalJSON writes the instant in RFC 3339, the raw text when unparsed,
// or null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case !t.Time.IsZero():
		return json.Marshal(t.Time.Format(time.RFC3339))
	case t.Raw != "":
		return json.Marshal(t.Raw)
	default:
		return []byte("null"), nil
	}
}

// Record represents one complaint row.
//
// Fields:
//   - ExternalID: Protocol number shown to citizens (e.g., "001/2026")
//   - Origin: Channel the complaint came through (phone, WhatsApp, ombudsman)
//   - Latitude/Longitude: nil or 0.0 means "not provided"
//   - Observations: Administrative notes, printed only when present
//   - ReceivedBy: Staff member who took the complaint
type Record struct {
	ID             int64     `json:"id"`
	ExternalID     string    `json:"external_id"`
	CreatedAt      Timestamp `json:"created_at"`
	Origin         string    `json:"origem"`
	Type           string    `json:"tipo"`
	ReferralNumber string    `json:"num_encaminhamento"`
	Street         string    `json:"rua"`
	Number         string    `json:"numero"`
	Neighborhood   string    `json:"bairro"`
	Zone           string    `json:"zona"`
	ReferencePoint string    `json:"ponto_referencia"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	MapsLink       string    `json:"link_maps"`
	Description    string    `json:"descricao"`
	Observations   string    `json:"observacoes"`
	ReceivedBy     string    `json:"quem_recebeu"`
	Status         string    `json:"status"`
	NightAction    bool      `json:"acao_noturna"`
}

// HasLocation reports whether both coordinates were provided.
// 0.0 is the form's "empty" value and counts as not provided.
func (r Record) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil &&
		*r.Latitude != 0 && *r.Longitude != 0
}

// IsPending reports whether the record still awaits inspection.
func (r Record) IsPending() bool {
	return r.Status == "" || r.Status == StatusPending
}

// Float returns a pointer to v, for building records in code.
func Float(v float64) *float64 {
	return &v
}

// ValidStatus reports whether s is a known lifecycle tag.
func ValidStatus(s string) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}
