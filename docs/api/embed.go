// Package api embeds the OpenAPI description of the HTTP interface.
package api

import _ "embed"

// OpenAPI is docs/api/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
