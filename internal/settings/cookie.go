package settings

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
)

// CookieName carries per-browser overrides of editable settings.
const CookieName = "vardump-settings"

// ErrNotEditable is returned when a cookie tries to change a fixed setting.
var ErrNotEditable = fmt.Errorf("%w: not editable", ErrInvalidValue)

// ParseCookie decodes a cookie value of URL encoded key=value pairs. Only
// editable settings are accepted.
func ParseCookie(value string) (map[string]any, error) {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings cookie: %w", err)
	}
	query, err := url.ParseQuery(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings cookie: %w", err)
	}

	out := make(map[string]any, len(query))
	for key, vals := range query {
		def, ok := Lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
		}
		if !def.Editable {
			return nil, fmt.Errorf("%w: %s", ErrNotEditable, key)
		}
		if len(vals) == 0 {
			continue
		}
		out[key] = vals[len(vals)-1]
	}
	return out, nil
}

// EncodeCookie is the inverse of ParseCookie.
func EncodeCookie(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	query := url.Values{}
	for _, k := range keys {
		query.Set(k, fmt.Sprint(values[k]))
	}
	return url.QueryEscape(query.Encode())
}

// FromRequest applies the settings cookie of r on top of s. A missing
// cookie returns s unchanged.
func (s *Settings) FromRequest(r *http.Request) (*Settings, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return s, nil
	}
	overrides, err := ParseCookie(c.Value)
	if err != nil {
		return s, err
	}
	return s.With(overrides, SourceCookie)
}
