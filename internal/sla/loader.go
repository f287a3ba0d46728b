package sla

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Definitions groups the documents loaded from a definitions directory.
type Definitions struct {
	SLAs   []SLAWithFile
	Alerts []AlertWithFile
}

// kindProbe reads just enough of a document to dispatch on its kind.
type kindProbe struct {
	Kind string `yaml:"kind"`
}

// LoadFromDirectory discovers and loads all SLA and Alert files from a
// directory.
func LoadFromDirectory(dirPath string) (*Definitions, []ValidationError) {
	var defs Definitions
	var errors []ValidationError

	files, err := discoverYAMLFiles(dirPath)
	if err != nil {
		errors = append(errors, ValidationError{
			File:    dirPath,
			Message: fmt.Sprintf("failed to read directory: %v", err),
		})
		return nil, errors
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			errors = append(errors, ValidationError{
				File:    file,
				Message: fmt.Sprintf("failed to read file: %v", err),
			})
			continue
		}

		var probe kindProbe
		if err := yaml.Unmarshal(data, &probe); err != nil {
			errors = append(errors, ValidationError{
				File:    file,
				Message: fmt.Sprintf("failed to parse YAML: %v", err),
			})
			continue
		}

		switch probe.Kind {
		case "SLA":
			var def SLA
			if err := yaml.Unmarshal(data, &def); err != nil {
				errors = append(errors, ValidationError{
					File:    file,
					Message: fmt.Sprintf("failed to parse SLA: %v", err),
				})
				continue
			}
			defs.SLAs = append(defs.SLAs, SLAWithFile{SLA: &def, File: file})

		case "Alert":
			var def Alert
			if err := yaml.Unmarshal(data, &def); err != nil {
				errors = append(errors, ValidationError{
					File:    file,
					Message: fmt.Sprintf("failed to parse Alert: %v", err),
				})
				continue
			}
			defs.Alerts = append(defs.Alerts, AlertWithFile{Alert: &def, File: file})

		default:
			errors = append(errors, ValidationError{
				File:    file,
				Path:    "kind",
				Message: fmt.Sprintf("unknown kind %q (expected SLA or Alert)", probe.Kind),
			})
		}
	}

	return &defs, errors
}

// discoverYAMLFiles finds all *.yaml and *.yml files in a directory
func discoverYAMLFiles(dirPath string) ([]string, error) {
	var files []string

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}
