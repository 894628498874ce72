// Package route maps concrete request paths onto the path templates declared
// in an OpenAPI document.
package route

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yougroupteam/openapi-validator-proxy/spec"
)

//
// Public types
//

// Match is the result of a successful lookup.
type Match struct {
	// Template is the matched path template, usable as a key into
	// spec.Spec.Paths.
	Template spec.Path

	// Parameters holds the extracted path parameters in template order.
	Parameters []Parameter
}

// Parameter is one path parameter extracted from a request path.
type Parameter struct {
	Name  string
	Value string
}

// Table is a routing table built once from a document's path templates. It's
// read-only after construction and safe for concurrent use.
type Table struct {
	routes []tableRoute
}

//
// Public functions
//

// NewTable compiles every path template in doc.
func NewTable(doc *spec.Spec) *Table {
	table := &Table{}
	if doc == nil {
		return table
	}

	for path := range doc.Paths {
		table.routes = append(table.routes, compilePath(path))
	}

	// Templates with more literal text are tried first so that /pets/mine
	// wins over /pets/{id}. Ties fall back to the template string to keep
	// lookups deterministic.
	sort.Slice(table.routes, func(i, j int) bool {
		a, b := table.routes[i], table.routes[j]
		if a.numParams != b.numParams {
			return a.numParams < b.numParams
		}
		if a.literalLen != b.literalLen {
			return a.literalLen > b.literalLen
		}
		return a.template < b.template
	})

	return table
}

// RelativePath strips basePath from requestPath. A request path that doesn't
// start with basePath is returned unmodified. The result always starts with a
// slash.
func RelativePath(basePath, requestPath string) string {
	relative, ok := strings.CutPrefix(requestPath, basePath)
	if !ok {
		return requestPath
	}
	if !strings.HasPrefix(relative, "/") {
		relative = "/" + relative
	}
	return relative
}

//
// Public methods
//

// Len returns the number of registered templates.
func (t *Table) Len() int {
	return len(t.routes)
}

// Match looks up path, which should already be relative to the upstream's
// base path. It returns nil if no template matches.
func (t *Table) Match(path string) *Match {
	for _, route := range t.routes {
		submatches := route.pattern.FindStringSubmatch(path)
		if submatches == nil {
			continue
		}

		match := &Match{Template: route.template}
		for i, name := range route.paramNames {
			match.Parameters = append(match.Parameters,
				Parameter{Name: name, Value: submatches[i+1]})
		}
		return match
	}
	return nil
}

//
// Private types
//

// tableRoute is a single compiled template in a Table.
type tableRoute struct {
	template   spec.Path
	pattern    *regexp.Regexp
	paramNames []string
	numParams  int
	literalLen int
}

//
// Private functions
//

var pathParameterPattern = regexp.MustCompile(`\{([^{}/]+)\}`)

// compilePath turns a template like /pets/{id}/photo.{ext} into an anchored
// regular expression. Parameter names are kept aside instead of becoming
// named groups because OpenAPI allows names Go's regexp syntax doesn't.
func compilePath(path spec.Path) tableRoute {
	route := tableRoute{template: path}

	pattern := `\A`
	template := string(path)
	last := 0
	for _, loc := range pathParameterPattern.FindAllStringSubmatchIndex(template, -1) {
		literal := template[last:loc[0]]
		pattern += regexp.QuoteMeta(literal)
		route.literalLen += len(literal)

		pattern += `([^/]+)`
		route.paramNames = append(route.paramNames, template[loc[2]:loc[3]])
		last = loc[1]
	}
	pattern += regexp.QuoteMeta(template[last:])
	route.literalLen += len(template) - last
	route.numParams = len(route.paramNames)

	route.pattern = regexp.MustCompile(pattern + `\z`)
	return route
}
