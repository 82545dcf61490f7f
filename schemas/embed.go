// Package schemas holds the JSON Schemas of the documents the tool produces.
package schemas

import _ "embed"

// ReportSchemaFile is the file name of the report schema in this directory.
const ReportSchemaFile = "report.schema.json"

// Report is the JSON Schema of an analysis report.
//
//go:embed report.schema.json
var Report []byte
