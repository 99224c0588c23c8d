package store

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// DefaultReferencePrefix is used for journeys without a configured prefix.
const DefaultReferencePrefix = "REF"

var crockford = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// References generates human readable case references of the form
// <PREFIX>-<disambiguator>.
type References struct {
	prefixes      map[string]string
	defaultPrefix string
	random        func() uuid.UUID
}

// NewReferences maps journey slugs to reference prefixes.
func NewReferences(prefixes map[string]string, defaultPrefix string) *References {
	p := make(map[string]string, len(prefixes))
	for slug, prefix := range prefixes {
		p[slug] = strings.ToUpper(strings.TrimSpace(prefix))
	}
	if strings.TrimSpace(defaultPrefix) == "" {
		defaultPrefix = DefaultReferencePrefix
	}
	return &References{prefixes: p, defaultPrefix: strings.ToUpper(defaultPrefix), random: uuid.New}
}

// Prefix returns the prefix configured for slug.
func (r *References) Prefix(slug string) string {
	if p := r.prefixes[slug]; p != "" {
		return p
	}
	return r.defaultPrefix
}

// Generate returns a reference for slug. An existing caseRef is reused as the
// disambiguator, otherwise an eight character token is drawn.
func (r *References) Generate(slug, caseRef string) string {
	disambiguator := strings.ToUpper(strings.TrimSpace(caseRef))
	if disambiguator == "" {
		id := r.random()
		disambiguator = crockford.EncodeToString(id[:5])
	}
	return r.Prefix(slug) + "-" + disambiguator
}
