// Package naming derives environment-variable identifiers and FQDNs from
// service keys. Resolved domains are passed around as an explicit map, never
// through the process environment.
package naming

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/diyhub/homelabctl/internal/config"
)

// DuplicateDomainError reports one FQDN claimed by more than one service.
type DuplicateDomainError struct {
	Domain   string
	Services []string
}

func (e *DuplicateDomainError) Error() string {
	return fmt.Sprintf("domain %q is claimed by services %v", e.Domain, e.Services)
}

// MissingBaseDomainError reports web-exposed services whose FQDN cannot be
// formed because no base domain is configured and their domain field is not
// absolute.
type MissingBaseDomainError struct {
	Services []string
}

func (e *MissingBaseDomainError) Error() string {
	return fmt.Sprintf("no base domain configured, required by services %v", e.Services)
}

// NormalizeEnvName uppercases a service key and maps every non-alphanumeric
// rune to an underscore. It is idempotent: normalizing an already-normalized
// name returns it unchanged.
func NormalizeEnvName(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ExpandDomain returns the FQDN for a service: its explicit domain field if
// present, otherwise <key>.<baseDomain>.
func ExpandDomain(svc *config.Service, key, baseDomain string) string {
	if svc.Domain != "" {
		if strings.Contains(svc.Domain, ".") {
			return svc.Domain
		}
		return svc.Domain + "." + baseDomain
	}
	return key + "." + baseDomain
}

// Mapping is one service's resolved naming.
type Mapping struct {
	EnvName string // DOMAIN_<NORMALIZED_KEY>
	FQDN    string
}

// Domains is the immutable resolved-domains map, keyed by service key.
type Domains struct {
	BaseDomain string
	byService  map[string]Mapping
}

// Lookup returns the mapping for a service key.
func (d Domains) Lookup(key string) (Mapping, bool) {
	m, ok := d.byService[key]
	return m, ok
}

// Keys returns the mapped service keys, sorted.
func (d Domains) Keys() []string {
	keys := make([]string, 0, len(d.byService))
	for k := range d.byService {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve computes the domain mapping for every web-exposed service and
// validates FQDN uniqueness. It must run before any artifact generation that
// consumes domains; all collisions are reported at once.
func Resolve(cfg *config.Config) (Domains, error) {
	base := cfg.BaseDomain()
	d := Domains{BaseDomain: base, byService: map[string]Mapping{}}

	claimed := map[string][]string{}
	var unresolvable []string
	for _, key := range cfg.ServiceKeys() {
		svc := cfg.Services[key]
		if !svc.WebExposed() {
			continue
		}
		if base == "" && !strings.Contains(svc.Domain, ".") {
			unresolvable = append(unresolvable, key)
			continue
		}
		fqdn := ExpandDomain(svc, key, base)
		d.byService[key] = Mapping{
			EnvName: "DOMAIN_" + NormalizeEnvName(key),
			FQDN:    fqdn,
		}
		claimed[fqdn] = append(claimed[fqdn], key)
	}

	var merr *multierror.Error
	if len(unresolvable) > 0 {
		merr = multierror.Append(merr, &MissingBaseDomainError{Services: unresolvable})
	}
	fqdns := make([]string, 0, len(claimed))
	for fqdn := range claimed {
		fqdns = append(fqdns, fqdn)
	}
	sort.Strings(fqdns)
	for _, fqdn := range fqdns {
		if owners := claimed[fqdn]; len(owners) > 1 {
			sort.Strings(owners)
			merr = multierror.Append(merr, &DuplicateDomainError{Domain: fqdn, Services: owners})
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return Domains{}, err
	}
	return d, nil
}

// EnvFile renders the .domains-style artifact body. The BASE_DOMAIN line is
// guaranteed to come before every service line; service lines are sorted.
func (d Domains) EnvFile() []byte {
	var b strings.Builder
	b.WriteString("BASE_DOMAIN=" + d.BaseDomain + "\n")
	lines := make([]string, 0, len(d.byService))
	for _, m := range d.byService {
		lines = append(lines, m.EnvName+"="+m.FQDN)
	}
	sort.Strings(lines)
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	return []byte(b.String())
}
