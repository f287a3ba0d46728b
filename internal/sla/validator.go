package sla

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Validator validates SLA and Alert definitions against their JSON schemas
// plus a handful of cross-document rules.
type Validator struct {
	slaSchema   *jsonschema.Schema
	alertSchema *jsonschema.Schema
}

// NewValidator creates a validator from the schema directory, which must
// contain sla_v1.json and alert_v1.json.
func NewValidator(schemaDir string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	slaSchema, err := compiler.Compile(filepath.Join(schemaDir, "sla_v1.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile SLA schema: %w", err)
	}

	alertSchema, err := compiler.Compile(filepath.Join(schemaDir, "alert_v1.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile Alert schema: %w", err)
	}

	return &Validator{slaSchema: slaSchema, alertSchema: alertSchema}, nil
}

// ValidateDirectory loads and validates all definition files in a directory.
func (v *Validator) ValidateDirectory(dirPath string) []ValidationError {
	defs, loadErrors := LoadFromDirectory(dirPath)

	var allErrors []ValidationError
	allErrors = append(allErrors, loadErrors...)

	if defs == nil {
		return allErrors
	}

	for _, sw := range defs.SLAs {
		allErrors = append(allErrors, v.validateSchema(sw.File, v.slaSchema, sw.SLA)...)
		allErrors = append(allErrors, validateSLARules(sw.File, sw.SLA)...)
	}
	for _, aw := range defs.Alerts {
		allErrors = append(allErrors, v.validateSchema(aw.File, v.alertSchema, aw.Alert)...)
	}

	allErrors = append(allErrors, validateUniqueIDs(defs)...)

	return allErrors
}

// validateSchema validates a single definition against a JSON schema by
// round-tripping it through YAML into plain maps.
func (v *Validator) validateSchema(file string, schema *jsonschema.Schema, def interface{}) []ValidationError {
	var errors []ValidationError

	yamlBytes, err := yaml.Marshal(def)
	if err != nil {
		errors = append(errors, ValidationError{
			File:    file,
			Message: fmt.Sprintf("failed to marshal definition: %v", err),
		})
		return errors
	}

	var jsonData interface{}
	if err := yaml.Unmarshal(yamlBytes, &jsonData); err != nil {
		errors = append(errors, ValidationError{
			File:    file,
			Message: fmt.Sprintf("failed to convert to JSON: %v", err),
		})
		return errors
	}

	if err := schema.Validate(jsonData); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			errors = append(errors, extractSchemaErrors(file, validationErr)...)
		} else {
			errors = append(errors, ValidationError{
				File:    file,
				Message: err.Error(),
			})
		}
	}

	return errors
}

// extractSchemaErrors converts JSON schema validation errors to ValidationErrors
func extractSchemaErrors(file string, err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	path := strings.Join(err.InstanceLocation, ".")
	if path == "" {
		path = "(root)"
	}

	errors = append(errors, ValidationError{
		File:    file,
		Path:    path,
		Message: err.Error(),
	})

	for _, cause := range err.Causes {
		errors = append(errors, extractSchemaErrors(file, cause)...)
	}

	return errors
}

// validateSLARules applies rules the schema cannot express.
func validateSLARules(file string, def *SLA) []ValidationError {
	var errors []ValidationError

	if def.Spec.EvaluationPeriod.Days() == 0 {
		errors = append(errors, ValidationError{
			File:    file,
			Path:    "spec.evaluationPeriod",
			Message: fmt.Sprintf("unknown period %q (expected weekly, monthly or quarterly)", def.Spec.EvaluationPeriod),
		})
	}

	if def.Spec.EvaluationInterval != "" {
		if _, err := ParseDuration(def.Spec.EvaluationInterval); err != nil {
			errors = append(errors, ValidationError{
				File:    file,
				Path:    "spec.evaluationInterval",
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		}
	}

	if def.Spec.ResponseTime.TargetMs > 0 {
		switch def.Spec.ResponseTime.Percentile {
		case "p50", "p95", "p99":
		default:
			errors = append(errors, ValidationError{
				File:    file,
				Path:    "spec.responseTime.percentile",
				Message: fmt.Sprintf("unknown percentile %q (expected p50, p95 or p99)", def.Spec.ResponseTime.Percentile),
			})
		}
	}

	return errors
}

// validateUniqueIDs checks for duplicate IDs across all loaded definitions.
func validateUniqueIDs(defs *Definitions) []ValidationError {
	var errors []ValidationError

	idSeen := make(map[string]string)
	check := func(file, id, path string) {
		if prevFile, exists := idSeen[id]; exists {
			errors = append(errors, ValidationError{
				File:    file,
				Path:    path,
				Message: fmt.Sprintf("duplicate ID %q (also in %s)", id, filepath.Base(prevFile)),
			})
		} else {
			idSeen[id] = file
		}
	}

	for _, sw := range defs.SLAs {
		check(sw.File, sw.SLA.Metadata.ID, "metadata.id")
	}
	for _, aw := range defs.Alerts {
		check(aw.File, aw.Alert.Metadata.ID, "metadata.id")
	}

	return errors
}
