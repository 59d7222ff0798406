package cache

import (
	"net/url"
	"strings"
)

// Key identifies a cached response: the request path plus its query
// parameters in canonical (key-sorted, URL-encoded) form. Key is comparable
// and used directly as a map key.
type Key struct {
	Path  string
	Query string
}

// NewKey builds a Key. Query parameters embedded in path are merged into params.
func NewKey(path string, params url.Values) Key {
	p, inline := SplitPath(path)
	merged := url.Values{}
	for k, vs := range inline {
		merged[k] = append(merged[k], vs...)
	}
	for k, vs := range params {
		merged[k] = append(merged[k], vs...)
	}
	return Key{Path: p, Query: merged.Encode()}
}

func (k Key) String() string {
	if k.Query == "" {
		return k.Path
	}
	return k.Path + "?" + k.Query
}

// SplitPath normalizes path to a leading slash and separates any inline query.
func SplitPath(path string) (string, url.Values) {
	var q url.Values
	if i := strings.IndexByte(path, '?'); i >= 0 {
		q, _ = url.ParseQuery(path[i+1:])
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, q
}

// ParentCollection returns the collection path a resource path belongs to:
// "/properties/5/" -> "/properties/". Top-level paths have no parent.
func ParentCollection(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndexByte(trimmed, '/')
	if i <= 0 {
		return ""
	}
	return trimmed[:i+1]
}

// affects reports whether a mutation of mutated invalidates a cached read of path.
func affects(mutated, parent, path string) bool {
	m := strings.TrimSuffix(mutated, "/")
	p := strings.TrimSuffix(path, "/")
	if p == m || strings.HasPrefix(p, m+"/") {
		return true
	}
	return parent != "" && p == strings.TrimSuffix(parent, "/")
}
