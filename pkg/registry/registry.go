// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"counsel-workers/internal/common/validation"
)

const DefaultPath = "configs/activity-registry.json"

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	seen := make(map[string]bool, len(reg.Activities))
	for _, a := range reg.Activities {
		if a.TaskType == "" {
			return nil, fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if seen[a.TaskType] {
			return nil, fmt.Errorf("duplicate taskType %q", a.TaskType)
		}
		seen[a.TaskType] = true
	}
	return &reg, nil
}

// Find returns the activity for taskType, or false.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists the registered task types in sorted order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	sort.Strings(out)
	return out
}

// Missing returns the task types that are not registered.
func (r *ActivityRegistry) Missing(taskTypes []string) []string {
	var out []string
	for _, t := range taskTypes {
		if _, ok := r.Find(t); !ok {
			out = append(out, t)
		}
	}
	return out
}

// TimeoutDuration parses Timeout, returning def when it is empty or invalid.
func (a *Activity) TimeoutDuration(def time.Duration) time.Duration {
	if a.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func (a *Activity) ValidateInput(doc interface{}) (*validation.Result, error) {
	return validation.Validate(a.InputSchema, doc)
}

func (a *Activity) ValidateOutput(doc interface{}) (*validation.Result, error) {
	return validation.Validate(a.OutputSchema, doc)
}

// Check reports the first activity missing a required field or carrying an
// unparseable timeout.
func (r *ActivityRegistry) Check() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	ids := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true
		if a.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		}
		if a.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout %q", a.ID, a.Timeout)
			}
		}
	}
	return nil
}

// Update sets one scalar field on the activity with the given ID.
func (r *ActivityRegistry) Update(id, field, value string) error {
	var a *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			a = &r.Activities[i]
			break
		}
	}
	if a == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("invalid retries value %q", value)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

// Save writes the registry as indented JSON, stamping LastUpdated.
func (r *ActivityRegistry) Save(path string, now time.Time) error {
	r.LastUpdated = now.Format("2006-01-02")
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
