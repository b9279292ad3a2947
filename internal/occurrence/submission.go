package occurrence

import (
	"strings"

	apperrors "urbfisc/internal/errors"
)

// Submission carries the fields typed into the "Nova Denúncia" form.
type Submission struct {
	Origin         string   `json:"origem"`
	Type           string   `json:"tipo"`
	ReferralNumber string   `json:"num_encaminhamento"`
	Street         string   `json:"rua"`
	Number         string   `json:"numero"`
	Neighborhood   string   `json:"bairro"`
	Zone           string   `json:"zona"`
	ReferencePoint string   `json:"ponto_referencia"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	MapsLink       string   `json:"link_maps"`
	Description    string   `json:"descricao"`
	Observations   string   `json:"observacoes"`
	ReceivedBy     string   `json:"quem_recebeu"`
	NightAction    bool     `json:"acao_noturna"`
}

// Normalize trims every text field and maps 0.0 coordinates to nil.
func (s Submission) Normalize() Submission {
	for _, f := range []*string{
		&s.Origin, &s.Type, &s.ReferralNumber, &s.Street, &s.Number,
		&s.Neighborhood, &s.Zone, &s.ReferencePoint, &s.MapsLink,
		&s.Description, &s.Observations, &s.ReceivedBy,
	} {
		*f = strings.TrimSpace(*f)
	}
	if s.Latitude != nil && *s.Latitude == 0 {
		s.Latitude = nil
	}
	if s.Longitude != nil && *s.Longitude == 0 {
		s.Longitude = nil
	}
	return s
}

// Validate checks the required fields (street and neighborhood) and the
// coordinate ranges.
func (s Submission) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(s.Street) == "" {
		fields["rua"] = "obrigatório"
	}
	if strings.TrimSpace(s.Neighborhood) == "" {
		fields["bairro"] = "obrigatório"
	}
	if s.Latitude != nil && (*s.Latitude < -90 || *s.Latitude > 90) {
		fields["latitude"] = "fora do intervalo [-90, 90]"
	}
	if s.Longitude != nil && (*s.Longitude < -180 || *s.Longitude > 180) {
		fields["longitude"] = "fora do intervalo [-180, 180]"
	}

	if len(fields) > 0 {
		return apperrors.NewValidationError(fields)
	}
	return nil
}

// Record builds the stored representation. Id, protocol and creation time
// are assigned by the store.
func (s Submission) Record() Record {
	return Record{
		Origin:         s.Origin,
		Type:           s.Type,
		ReferralNumber: s.ReferralNumber,
		Street:         s.Street,
		Number:         s.Number,
		Neighborhood:   s.Neighborhood,
		Zone:           s.Zone,
		ReferencePoint: s.ReferencePoint,
		Latitude:       s.Latitude,
		Longitude:      s.Longitude,
		MapsLink:       s.MapsLink,
		Description:    s.Description,
		Observations:   s.Observations,
		ReceivedBy:     s.ReceivedBy,
		Status:         StatusPending,
		NightAction:    s.NightAction,
	}
}
