package server

import (
	"errors"
	"net/http"
	"path"
	"strings"
)

var errOriginNotAllowed = errors.New("origin not allowed")

// originPolicy decides which browser origins may call the API and open the
// websocket. Entries come from server.origins and take three forms:
// "*" for any origin, an exact origin such as "http://localhost:5173", or a
// host glob such as "http://localhost:*".
type originPolicy struct {
	any   bool
	exact map[string]struct{}
	globs []originGlob
}

type originGlob struct {
	scheme string
	host   string
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = normalizeOrigin(o)
		switch {
		case o == "":
		case o == "*":
			p.any = true
		case strings.ContainsAny(o, "*?["):
			if scheme, host, ok := splitOrigin(o); ok {
				p.globs = append(p.globs, originGlob{scheme: scheme, host: host})
			}
		default:
			p.exact[o] = struct{}{}
		}
	}
	return p
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")
}

// splitOrigin splits "scheme://host[:port]". url.Parse is not used because it
// rejects glob ports.
func splitOrigin(o string) (scheme, host string, ok bool) {
	scheme, rest, found := strings.Cut(o, "://")
	if !found || scheme == "" {
		return "", "", false
	}
	host, _, _ = strings.Cut(rest, "/")
	return scheme, host, host != ""
}

func (p originPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	origin = normalizeOrigin(origin)
	if _, ok := p.exact[origin]; ok {
		return true
	}
	if len(p.globs) == 0 {
		return false
	}
	scheme, host, ok := splitOrigin(origin)
	if !ok {
		return false
	}
	for _, g := range p.globs {
		if g.scheme != scheme {
			continue
		}
		if ok, _ := path.Match(g.host, host); ok {
			return true
		}
	}
	return false
}

// hostPatterns converts the policy into websocket.AcceptOptions
// OriginPatterns, which match on host only.
func (p originPolicy) hostPatterns() []string {
	if p.any {
		return []string{"*"}
	}
	patterns := make([]string, 0, len(p.exact)+len(p.globs))
	for o := range p.exact {
		if _, host, ok := splitOrigin(o); ok {
			patterns = append(patterns, host)
		}
	}
	for _, g := range p.globs {
		patterns = append(patterns, g.host)
	}
	return patterns
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && s.origins.allows(origin)
		if origin != "" {
			w.Header().Add("Vary", "Origin")
		}
		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "600")
		}

		if r.Method == http.MethodOptions {
			if origin != "" && !allowed {
				writeError(w, http.StatusForbidden, errOriginNotAllowed)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
