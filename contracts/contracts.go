// Package contracts embeds the OpenAPI description of the CRM API.
package contracts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed crm.yaml
var CRMYAML []byte

// Load parses and validates the embedded contract. Every call returns a fresh
// document so callers may mutate it.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(CRMYAML)
	if err != nil {
		return nil, fmt.Errorf("load crm contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate crm contract: %w", err)
	}
	return doc, nil
}
