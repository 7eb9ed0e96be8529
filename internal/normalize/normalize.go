// Package normalize maps raw feed rows into the canonical seller shape
// and merges duplicates discovered across the list and detail sources.
package normalize

import (
	"strings"

	"sellersync/internal/states"

	"github.com/gosimple/slug"
)

// Seller is the canonical, source-agnostic form of one seller record.
// It lives only for the duration of a sync run; the store keeps its own
// entity keyed by Slug.
type Seller struct {
	Name        string
	Slug        string
	StateCode   string
	StateName   string
	StateSlug   string
	City        string
	Website     string
	ProfileURL  string
	LogoURL     string
	Description string
	Raw         map[string]interface{}
}

// Hook lets a caller adjust a canonical record after normalization,
// for example to derive extra fields from the raw payload.
type Hook func(*Seller, map[string]interface{})

// Normalize maps a raw row into a canonical seller. Returns nil when
// the row has no name. Each logical field accepts the key variants the
// feeds are known to use; the first present wins. The state is always
// taken from the job context, never from the payload, so a source that
// misreports a state cannot misfile a seller.
func Normalize(record map[string]interface{}, stateCode string, hooks ...Hook) *Seller {
	name := stringField(record, "name")
	if name == "" {
		return nil
	}

	code := strings.ToUpper(strings.TrimSpace(stateCode))
	stateName, stateSlug := states.Resolve(code)

	identity := stringField(record, "slug")
	if identity == "" {
		identity = slug.Make(name)
	}

	city := stringField(record, "city")
	if city == "" {
		if addr, ok := record["address"].(map[string]interface{}); ok {
			city = stringField(addr, "city")
		}
	}

	s := &Seller{
		Name:        name,
		Slug:        identity,
		StateCode:   code,
		StateName:   stateName,
		StateSlug:   stateSlug,
		City:        city,
		Website:     stringField(record, "website", "url", "domain"),
		ProfileURL:  stringField(record, "profileUrl", "profile_url"),
		LogoURL:     stringField(record, "logo", "logo_file", "logoUrl"),
		Description: stringField(record, "description", "Desc", "desc", "about"),
		Raw:         record,
	}

	for _, hook := range hooks {
		hook(s, record)
	}

	return s
}

// ForceState stamps the job's authoritative state fields onto a record,
// overwriting whatever merging carried over.
func (s *Seller) ForceState(code, name, stateSlug string) {
	s.StateCode = code
	s.StateName = name
	s.StateSlug = stateSlug
}

func stringField(record map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if str, ok := value.(string); ok && str != "" {
				return str
			}
		}
	}
	return ""
}
