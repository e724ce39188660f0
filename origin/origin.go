// Package origin normalizes and matches the allowed-origin patterns of keys
// and datasets. A pattern is `scheme://host[:port]` where `*` stands for one
// or more of [a-zA-Z0-9_-] inside the host or the port.
package origin

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	Wildcard     = "*"
	wildcardExpr = `[a-zA-Z0-9_-]+`

	defaultScheme = "https"
)

var ErrEmpty = errors.New("empty origin")

// Origin is a parsed origin or origin pattern.
type Origin struct {
	Scheme string
	Host   string
	Port   string
}

func (o Origin) String() string {
	s := o.Scheme + "://" + o.Host
	if o.Port != "" {
		s += ":" + o.Port
	}
	return s
}

// Parse splits raw into scheme, host and port. Path, query and fragment
// are dropped, a missing scheme defaults to https.
func Parse(raw string) (Origin, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Origin{}, ErrEmpty
	}

	o := Origin{Scheme: defaultScheme}
	if i := strings.Index(raw, "://"); i >= 0 {
		o.Scheme = strings.ToLower(raw[:i])
		raw = raw[i+3:]
	}
	if o.Scheme == "" {
		return Origin{}, errors.Errorf("invalid origin %q: empty scheme", raw)
	}

	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		raw = raw[:i]
	}

	hostPort := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(hostPort, "["):
		end := strings.Index(hostPort, "]")
		if end < 0 {
			return Origin{}, errors.Errorf("invalid origin %q: unterminated ipv6 host", raw)
		}
		o.Host = hostPort[:end+1]
		rest := hostPort[end+1:]
		if strings.HasPrefix(rest, ":") {
			o.Port = rest[1:]
		}
	default:
		if i := strings.LastIndex(hostPort, ":"); i >= 0 {
			o.Host, o.Port = hostPort[:i], hostPort[i+1:]
		} else {
			o.Host = hostPort
		}
	}

	if o.Host == "" {
		return Origin{}, errors.Errorf("invalid origin %q: empty host", raw)
	}
	if strings.Contains(raw, ":") && o.Port == "" && !strings.HasSuffix(o.Host, "]") {
		return Origin{}, errors.Errorf("invalid origin %q: empty port", raw)
	}

	return o, nil
}

// Normalize returns the canonical form of raw. Inputs that can not be
// parsed are returned trimmed so the backend can reject them.
func Normalize(raw string) string {
	o, err := Parse(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return o.String()
}

// ParseList turns newline separated text into normalized, de-duplicated
// origins. Blank lines are skipped.
func ParseList(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	seen := make(map[string]struct{}, len(lines))
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		normalized := Normalize(line)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}

	return result
}

// JoinList is the inverse of ParseList for display in a text area.
func JoinList(origins []string) string {
	return strings.Join(origins, "\n")
}

type Pattern struct {
	raw    string
	scheme string
	expr   *regexp.Regexp
}

func Compile(pattern string) (*Pattern, error) {
	o, err := Parse(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse pattern")
	}

	expr := "^" + wildcardToExpr(o.Host)
	if o.Port != "" {
		expr += ":" + wildcardToExpr(o.Port)
	}
	expr += "$"

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to compile pattern %q", pattern)
	}

	return &Pattern{raw: o.String(), scheme: o.Scheme, expr: re}, nil
}

func (p *Pattern) String() string { return p.raw }

// Match reports whether origin is allowed by the pattern. A pattern
// without a port only matches origins without a port.
func (p *Pattern) Match(origin string) bool {
	o, err := Parse(origin)
	if err != nil || o.Scheme != p.scheme {
		return false
	}

	hostPort := o.Host
	if o.Port != "" {
		hostPort += ":" + o.Port
	}
	return p.expr.MatchString(hostPort)
}

// Allowed reports whether origin matches any of patterns. Patterns that
// do not compile are ignored.
func Allowed(patterns []string, origin string) bool {
	for _, raw := range patterns {
		p, err := Compile(raw)
		if err != nil {
			continue
		}
		if p.Match(origin) {
			return true
		}
	}
	return false
}

func wildcardToExpr(s string) string {
	parts := strings.Split(s, Wildcard)
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	return strings.Join(parts, wildcardExpr)
}
