// Package junit renders recorded testcases as a JUnit XML report so CI
// systems can display conformance problems like failing tests.
package junit

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/yougroupteam/openapi-validator-proxy/ledger"
	"github.com/yougroupteam/openapi-validator-proxy/testcase"
)

// ContentType is the media type of a rendered report.
const ContentType = "application/xml"

// SuiteName names the single test suite in every report.
const SuiteName = "openapi-validator-proxy"

//
// Private types
//

type testSuites struct {
	XMLName  xml.Name    `xml:"testsuites"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Time     string      `xml:"time,attr"`
	Suites   []testSuite `xml:"testsuite"`
}

type testSuite struct {
	Name      string         `xml:"name,attr"`
	Tests     int            `xml:"tests,attr"`
	Failures  int            `xml:"failures,attr"`
	Time      string         `xml:"time,attr"`
	Testcases []testcaseNode `xml:"testcase"`
}

type testcaseNode struct {
	Name       string          `xml:"name,attr"`
	Time       string          `xml:"time,attr"`
	Properties *propertiesNode `xml:"properties,omitempty"`
	Failures   []failureNode   `xml:"failure"`
}

type propertiesNode struct {
	Properties []propertyNode `xml:"property"`
}

type propertyNode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type failureNode struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message,attr"`
	Pointer string `xml:",chardata"`
}

//
// Public functions
//

// Write renders testcases to w as a JUnit document. The failures attribute
// counts testcases with at least one failure, not individual failures.
func Write(w io.Writer, testcases []testcase.Testcase) error {
	summary := ledger.Summarize(testcases)

	var total time.Duration
	suite := testSuite{
		Name:      SuiteName,
		Tests:     summary.Tests,
		Failures:  summary.Failures,
		Testcases: make([]testcaseNode, 0, len(testcases)),
	}
	for _, tc := range testcases {
		total += tc.Elapsed
		suite.Testcases = append(suite.Testcases, buildTestcase(tc))
	}
	suite.Time = formatSeconds(total)

	doc := testSuites{
		Name:     SuiteName,
		Tests:    summary.Tests,
		Failures: summary.Failures,
		Time:     suite.Time,
		Suites:   []testSuite{suite},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "error writing report")
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrap(err, "error encoding report")
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return errors.Wrap(err, "error writing report")
	}
	return nil
}

//
// Private functions
//

func buildTestcase(tc testcase.Testcase) testcaseNode {
	node := testcaseNode{
		Name: tc.Name,
		Time: formatSeconds(tc.Elapsed),
	}

	if len(tc.Properties) != 0 {
		properties := make([]testcase.Property, len(tc.Properties))
		copy(properties, tc.Properties)
		testcase.SortProperties(properties)

		node.Properties = &propertiesNode{}
		for _, property := range properties {
			node.Properties.Properties = append(node.Properties.Properties,
				propertyNode{Name: property.Name, Value: property.Value})
		}
	}

	for _, failure := range tc.Failures {
		node.Failures = append(node.Failures, failureNode{
			Type:    failure.Type(),
			Message: failure.Text,
			Pointer: failure.Pointer,
		})
	}

	return node
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}
