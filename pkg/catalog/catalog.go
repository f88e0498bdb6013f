// Package catalog resolves named engine operations against versioned
// API documents. The documents are embedded OpenAPI specs, one per
// engine API version, indexed by category (tag) and operation ID.
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/sync/singleflight"
)

//go:embed specs/*.yaml
var specFS embed.FS

// ParamKind classifies where a parameter travels in the HTTP request.
type ParamKind string

// Parameter kinds.
const (
	ParamPath   ParamKind = "path"
	ParamQuery  ParamKind = "query"
	ParamHeader ParamKind = "header"
	// ParamBody is a JSON-encoded request body.
	ParamBody ParamKind = "body"
	// ParamStream is a raw byte-stream request body, sent verbatim.
	ParamStream ParamKind = "stream"
)

// Param describes one parameter an operation accepts.
type Param struct {
	Name     string    `json:"name"`
	Kind     ParamKind `json:"kind"`
	Required bool      `json:"required"`
	Doc      string    `json:"doc,omitempty"`
}

// Operation is one named remote procedure within a category.
type Operation struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Method       string  `json:"method"`
	PathTemplate string  `json:"path"`
	Doc          string  `json:"doc,omitempty"`
	Params       []Param `json:"params"`
}

// Param returns the descriptor for the named parameter, or nil.
func (o *Operation) Param(name string) *Param {
	for i := range o.Params {
		if o.Params[i].Name == name {
			return &o.Params[i]
		}
	}
	return nil
}

// index is the fully built lookup table for one API version. It is
// immutable once published in the catalog.
type index struct {
	categories map[string]map[string]*Operation
}

// Catalog memoizes per-version operation indexes. Loads are
// single-flight per version key, so concurrent first lookups of the
// same version parse the document once and readers never observe a
// partially built index.
type Catalog struct {
	mu       sync.RWMutex
	versions map[string]*index
	group    singleflight.Group
}

// New returns an empty catalog. Versions are parsed on first use.
func New() *Catalog {
	return &Catalog{versions: make(map[string]*index)}
}

var defaultCatalog = New()

// Default returns the process-wide shared catalog.
func Default() *Catalog { return defaultCatalog }

// Versions lists the embedded API versions, oldest first.
func Versions() []string {
	entries, err := specFS.ReadDir("specs")
	if err != nil {
		return nil
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Slice(versions, func(i, j int) bool {
		return versionLess(versions[i], versions[j])
	})
	return versions
}

// Latest returns the newest embedded API version.
func Latest() string {
	versions := Versions()
	if len(versions) == 0 {
		return ""
	}
	return versions[len(versions)-1]
}

// Resolve maps the empty string and "latest" to the newest embedded
// version; anything else is returned unchanged.
func Resolve(version string) string {
	if version == "" || version == "latest" {
		return Latest()
	}
	return version
}

// Versions lists the embedded API versions, oldest first.
func (c *Catalog) Versions() []string { return Versions() }

// Categories lists the operation categories of a version.
func (c *Catalog) Categories(version string) ([]string, error) {
	idx, _, err := c.load(version)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(idx.categories))
	for name := range idx.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Operations lists the operation names of a category.
func (c *Catalog) Operations(category, version string) ([]string, error) {
	idx, resolved, err := c.load(version)
	if err != nil {
		return nil, err
	}
	ops, ok := idx.categories[category]
	if !ok {
		return nil, &UnknownCategoryError{Category: category, Version: resolved}
	}
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Describe returns the full definition of one operation.
func (c *Catalog) Describe(category, version, name string) (*Operation, error) {
	idx, resolved, err := c.load(version)
	if err != nil {
		return nil, err
	}
	ops, ok := idx.categories[category]
	if !ok {
		return nil, &UnknownCategoryError{Category: category, Version: resolved}
	}
	op, ok := ops[name]
	if !ok {
		return nil, &UnknownOperationError{Operation: name, Category: category, Version: resolved}
	}
	return op, nil
}

// load returns the index for a version, parsing and caching it on
// first use.
func (c *Catalog) load(version string) (*index, string, error) {
	resolved := Resolve(version)

	c.mu.RLock()
	idx, ok := c.versions[resolved]
	c.mu.RUnlock()
	if ok {
		return idx, resolved, nil
	}

	v, err, _ := c.group.Do(resolved, func() (any, error) {
		c.mu.RLock()
		idx, ok := c.versions[resolved]
		c.mu.RUnlock()
		if ok {
			return idx, nil
		}
		built, err := buildIndex(resolved)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.versions[resolved] = built
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, resolved, err
	}
	return v.(*index), resolved, nil
}

// buildIndex parses the embedded document for one version.
func buildIndex(version string) (*index, error) {
	data, err := specFS.ReadFile("specs/" + version + ".yaml")
	if err != nil {
		return nil, &UnknownVersionError{Version: version}
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse API document %s: %w", version, err)
	}

	idx := &index{categories: make(map[string]map[string]*Operation)}
	for path, pathItem := range doc.Paths.Map() {
		for method, op := range pathItem.Operations() {
			if op.OperationID == "" || len(op.Tags) == 0 {
				continue
			}
			category := op.Tags[0]
			entry := &Operation{
				Name:         op.OperationID,
				Category:     category,
				Method:       method,
				PathTemplate: path,
				Doc:          opDoc(op),
				Params:       opParams(pathItem, op),
			}
			if idx.categories[category] == nil {
				idx.categories[category] = make(map[string]*Operation)
			}
			idx.categories[category][entry.Name] = entry
		}
	}
	return idx, nil
}

func opDoc(op *openapi3.Operation) string {
	if op.Summary != "" {
		return op.Summary
	}
	return op.Description
}

// opParams flattens path-level and operation-level parameters plus the
// request body into Param descriptors.
func opParams(pathItem *openapi3.PathItem, op *openapi3.Operation) []Param {
	var params []Param
	add := func(refs openapi3.Parameters) {
		for _, ref := range refs {
			p := ref.Value
			if p == nil {
				continue
			}
			params = append(params, Param{
				Name:     p.Name,
				Kind:     ParamKind(p.In),
				Required: p.Required,
				Doc:      p.Description,
			})
		}
	}
	add(pathItem.Parameters)
	add(op.Parameters)

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		rb := op.RequestBody.Value
		kind := ParamBody
		name := "body"
		for mediaType := range rb.Content {
			switch mediaType {
			case "application/x-tar", "application/octet-stream":
				kind = ParamStream
				name = "inputStream"
			}
		}
		if ext, ok := rb.Extensions["x-param-name"].(string); ok && ext != "" {
			name = ext
		}
		params = append(params, Param{
			Name:     name,
			Kind:     kind,
			Required: rb.Required,
			Doc:      rb.Description,
		})
	}
	return params
}

// versionLess orders versions like v1.40 numerically by major.minor.
func versionLess(a, b string) bool {
	amaj, amin := splitVersion(a)
	bmaj, bmin := splitVersion(b)
	if amaj != bmaj {
		return amaj < bmaj
	}
	return amin < bmin
}

func splitVersion(v string) (int, int) {
	v = strings.TrimPrefix(v, "v")
	parts := strings.SplitN(v, ".", 2)
	major, _ := strconv.Atoi(parts[0])
	minor := 0
	if len(parts) == 2 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}
