package services

import (
	"math"

	"shopshield-service/models"
)

// Rule codes for legal metrology compliance findings
const (
	RulePriceMissing      = "price-missing"
	RuleWeightMissing     = "weight-missing"
	RuleWeightNonstandard = "weight-nonstandard"
	RulePackagingMissing  = "packaging-missing"
)

// StandardWeightIncrement is the catalog's standard unit increment in grams.
// Declared weights must be a whole multiple of it.
const StandardWeightIncrement = 50.0

// Finding is one rule violation detected on a product
type Finding struct {
	RuleCode    string
	Description string
}

// EvaluateProduct checks one product snapshot against the compliance rule
// set and returns every finding in rule order. It performs no I/O and is
// deterministic for a given snapshot.
func EvaluateProduct(p models.Product) []Finding {
	var findings []Finding

	if p.Price == nil || *p.Price <= 0 {
		findings = append(findings, Finding{
			RuleCode:    RulePriceMissing,
			Description: "Product price is missing or invalid.",
		})
	}

	if p.Weight == nil || *p.Weight <= 0 {
		findings = append(findings, Finding{
			RuleCode:    RuleWeightMissing,
			Description: "Product weight is missing or invalid.",
		})
	} else if math.Mod(*p.Weight, StandardWeightIncrement) != 0 {
		findings = append(findings, Finding{
			RuleCode:    RuleWeightNonstandard,
			Description: "Non-standard weight detected. Weight should be in standard units.",
		})
	}

	if isBlank(p.PackagingInfo) {
		findings = append(findings, Finding{
			RuleCode:    RulePackagingMissing,
			Description: "Packaging information is missing.",
		})
	}

	return findings
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
