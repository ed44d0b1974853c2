package backup

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// requiredFields must be present at the top level of every snapshot.
var requiredFields = []string{"exportedAt"}

// collectionFields are the array fields a snapshot may carry.
var collectionFields = []string{
	"services",
	"team",
	"testimonials",
	"jobs",
	"users",
	"contacts",
	"newsletter",
	"applications",
	"activityLogs",
}

// ValidationResult describes whether a payload can be imported. Warnings never
// make a payload invalid.
type ValidationResult struct {
	IsValid  bool      `json:"isValid"`
	Errors   []string  `json:"errors"`
	Warnings []string  `json:"warnings"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Metadata summarizes a valid payload before it is restored.
type Metadata struct {
	Version    string         `json:"version,omitempty"`
	AppVersion string         `json:"appVersion,omitempty"`
	BackupID   string         `json:"backupId,omitempty"`
	ExportedAt string         `json:"exportedAt,omitempty"`
	Counts     map[string]int `json:"counts"`
}

// ValidateJSON parses data and validates the result.
func ValidateJSON(data []byte) ValidationResult {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return ValidationResult{
			Errors:   []string{fmt.Sprintf("backup is not valid JSON: %v", err)},
			Warnings: []string{},
		}
	}
	return Validate(v)
}

// Validate checks an arbitrary decoded payload: structure, format version
// compatibility, collection types and a spot check of services. It never
// fails; problems are reported in the result.
func Validate(input any) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	obj, ok := toObject(input)
	if !ok {
		res.Errors = append(res.Errors, "backup must be a JSON object")
		return res
	}

	for _, f := range requiredFields {
		if _, ok := obj[f]; !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("missing required field %q", f))
		}
	}

	checkVersion(obj, &res)

	for _, f := range collectionFields {
		v, ok := obj[f]
		if !ok {
			continue
		}
		if _, isArray := v.([]any); !isArray {
			res.Errors = append(res.Errors, fmt.Sprintf("field %q must be an array", f))
		}
	}

	if services, ok := obj["services"].([]any); ok {
		for i, item := range services {
			if !hasIdentity(item) {
				res.Errors = append(res.Errors, fmt.Sprintf("services[%d] is missing an id or title", i))
			}
		}
	}

	if len(res.Errors) > 0 {
		return res
	}

	// Field types and timestamps are only checked by decoding.
	if err := decodeObject(obj); err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	res.IsValid = true
	res.Metadata = &Metadata{
		Version:    stringField(obj, "version"),
		AppVersion: stringField(obj, "appVersion"),
		BackupID:   stringField(obj, "backupId"),
		ExportedAt: stringField(obj, "exportedAt"),
		Counts:     make(map[string]int),
	}
	for _, f := range collectionFields {
		if arr, ok := obj[f].([]any); ok {
			res.Metadata.Counts[f] = len(arr)
		}
	}
	return res
}

func checkVersion(obj map[string]any, res *ValidationResult) {
	raw, ok := obj["version"]
	if !ok {
		res.Warnings = append(res.Warnings, "backup has no version; importing with limited compatibility")
		return
	}

	s, isString := raw.(string)
	v, err := semver.NewVersion(s)
	if !isString || err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unrecognized backup version %v; compatibility cannot be checked", raw))
		return
	}

	current := semver.MustParse(FormatVersion)
	switch {
	case v.Major() != current.Major():
		res.Errors = append(res.Errors, fmt.Sprintf(
			"incompatible backup version %s: major version differs from supported %s", s, FormatVersion))
	case v.Minor() != current.Minor() || v.Patch() != current.Patch():
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"backup version %s differs from current %s; some fields may be ignored", s, FormatVersion))
	}
}

// toObject normalizes input to a JSON object, round-tripping typed values.
func toObject(input any) (map[string]any, bool) {
	if m, ok := input.(map[string]any); ok {
		return m, true
	}
	if input == nil {
		return nil, false
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func decodeObject(obj map[string]any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("backup cannot be encoded: %w", err)
	}
	if _, err := Decode(data); err != nil {
		return fmt.Errorf("backup has malformed fields: %w", err)
	}
	return nil
}

func hasIdentity(item any) bool {
	m, ok := item.(map[string]any)
	if !ok {
		return false
	}
	if id, _ := m["id"].(string); id == "" {
		return false
	}
	for _, f := range []string{"title", "name"} {
		if s, _ := m[f].(string); s != "" {
			return true
		}
	}
	return false
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// MarshalResult renders a validation result for display.
func MarshalResult(res ValidationResult) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}
