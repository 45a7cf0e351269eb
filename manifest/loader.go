// manifest/loader.go
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/supportdesk/category"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"gopkg.in/yaml.v3"
)

// Format represents the manifest file format
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatUnknown Format = "unknown"
)

// LoadFromFile loads manifest from a file (auto-detects format)
func (r *Registry) LoadFromFile(path string) error {
	data, err := readManifestFile(path)
	if err != nil {
		return err
	}
	if err := r.LoadFromBytes(data, DetectFormat(path, data)); err != nil {
		return err
	}

	manifest := r.GetManifest()
	logx.WithFields(logx.Fields{
		"path":       path,
		"version":    manifest.Version,
		"categories": len(manifest.Categories),
	}).Info("Keyword manifest loaded")
	return nil
}

// LoadFromBytes loads manifest from bytes with specified format
func (r *Registry) LoadFromBytes(data []byte, format Format) error {
	manifest, err := ParseManifest(data, format)
	if err != nil {
		return err
	}
	return r.Load(manifest)
}

// LoadManifest reads, parses and validates a manifest file
func LoadManifest(path string) (*Manifest, error) {
	data, err := readManifestFile(path)
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest(data, DetectFormat(path, data))
	if err != nil {
		return nil, err
	}

	if err := ValidateManifest(manifest); err != nil {
		return nil, err
	}

	return manifest, nil
}

func readManifestFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewFileNotFoundError(path)
		}
		return nil, NewFileReadError(path, err)
	}
	return data, nil
}

// ParseManifest parses manifest from bytes with specified format
func ParseManifest(data []byte, format Format) (*Manifest, error) {
	var manifest Manifest

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, NewInvalidYAMLError(err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, NewInvalidJSONError(err)
		}
	default:
		// Try JSON first, then YAML
		if err := json.Unmarshal(data, &manifest); err != nil {
			if err := yaml.Unmarshal(data, &manifest); err != nil {
				return nil, NewInvalidFormatError(format)
			}
		}
	}

	return &manifest, nil
}

// DetectFormat detects the format from file extension or content
func DetectFormat(path string, data []byte) Format {
	if format := GetFormatFromPath(path); format != FormatUnknown {
		return format
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}

	return FormatYAML
}

// GetFormatFromPath returns format based on file path
func GetFormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// ValidateManifest checks the version, that every category is a known domain
// category listed once, and that keywords are present and non-blank
func ValidateManifest(manifest *Manifest) error {
	if manifest.Version == "" {
		return NewMissingVersionError()
	}

	if len(manifest.Categories) == 0 {
		return NewMissingCategoriesError()
	}

	seen := make(map[category.Category]bool)
	validationErrors := make([]error, 0)

	for _, entry := range manifest.Categories {
		c, err := entry.Category()
		if err != nil || !c.IsDomain() {
			validationErrors = append(validationErrors, NewUnknownCategoryError(entry.Name))
			continue
		}

		if seen[c] {
			validationErrors = append(validationErrors, NewDuplicateCategoryError(entry.Name))
		}
		seen[c] = true

		if len(entry.Keywords) == 0 {
			validationErrors = append(validationErrors, NewMissingKeywordsError(entry.Name))
		}
		for i, kw := range entry.Keywords {
			if strings.TrimSpace(kw) == "" {
				validationErrors = append(validationErrors, NewEmptyKeywordError(entry.Name, i))
			}
		}
	}

	if len(validationErrors) > 0 {
		return NewMultipleValidationErrors(validationErrors)
	}

	return nil
}

// SaveManifest saves manifest to a file; the format follows the extension
func SaveManifest(manifest *Manifest, path string) error {
	var data []byte
	var err error

	if GetFormatFromPath(path) == FormatJSON {
		data, err = manifest.ToJSON()
		if err != nil {
			return NewInvalidJSONError(err)
		}
	} else {
		data, err = manifest.ToYAML()
		if err != nil {
			return NewInvalidYAMLError(err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return NewFileWriteError(path, err)
	}

	return nil
}
