package testcase

import (
	"sort"
	"time"
)

// Names of the properties recorded for every exchange. Path parameters are
// recorded as PathParameterPrefix + name.
const (
	PropertyCorrelationID       = "correlationId"
	PropertyMethod              = "method"
	PropertyOperationID         = "operationId"
	PropertyPath                = "path"
	PropertyRequestContentType  = "requestContentType"
	PropertyResponseContentType = "responseContentType"
	PropertyStatusCode          = "statusCode"
	PropertyUpstreamError       = "upstreamError"

	PathParameterPrefix = "pathParameter-"
)

// Property is an observed fact about an exchange.
type Property struct {
	Name  string
	Value string
}

// SortProperties orders properties by name, then value, in place.
func SortProperties(properties []Property) {
	sort.SliceStable(properties, func(i, j int) bool {
		if properties[i].Name != properties[j].Name {
			return properties[i].Name < properties[j].Name
		}
		return properties[i].Value < properties[j].Value
	})
}

// Testcase is the full validation outcome of one proxied request. It's built
// once both sides have been validated and isn't changed afterwards.
type Testcase struct {
	Name       string
	Properties []Property
	Failures   []Failure

	// Elapsed is the upstream round trip time.
	Elapsed time.Duration
}

// New assembles a testcase, sorting its properties so reports are
// deterministic.
func New(name string, properties []Property, failures []Failure, elapsed time.Duration) Testcase {
	sorted := make([]Property, len(properties))
	copy(sorted, properties)
	SortProperties(sorted)

	return Testcase{
		Name:       name,
		Properties: sorted,
		Failures:   failures,
		Elapsed:    elapsed,
	}
}

// Failed reports whether the testcase recorded at least one failure.
func (t Testcase) Failed() bool {
	return len(t.Failures) != 0
}

// Property returns the value of the first property with the given name.
func (t Testcase) Property(name string) (string, bool) {
	for _, property := range t.Properties {
		if property.Name == name {
			return property.Value, true
		}
	}
	return "", false
}
