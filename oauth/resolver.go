package oauth

import "net/url"

// ArgResolver maps parameter names to values. The table it reads is fixed
// when the ProviderConfig is built.
type ArgResolver struct {
	all map[string]string
}

// NewArgResolver builds a resolver over an explicit table.
func NewArgResolver(all map[string]string) ArgResolver {
	return ArgResolver{all: all}
}

// Resolve looks each name up in the configured values and, for "code" only,
// in the callback query. Names that resolve nowhere are left out. A nil
// names slice returns ErrMalformedArgs.
func (r ArgResolver) Resolve(names []string, query url.Values) (map[string]string, error) {
	if names == nil {
		return nil, ErrMalformedArgs
	}

	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := r.all[name]; ok {
			out[name] = v
			continue
		}
		if name == "code" && query.Has("code") {
			out[name] = query.Get("code")
		}
	}
	return out, nil
}

// withManual merges manual values over resolved ones.
func withManual(resolved, manual map[string]string) url.Values {
	out := make(url.Values, len(resolved)+len(manual))
	for k, v := range resolved {
		out.Set(k, v)
	}
	for k, v := range manual {
		out.Set(k, v)
	}
	return out
}
