package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of a project import document.
// Every entity is addressed by a document-local ref; refs are replaced with
// generated ids on conversion.
type ImportSchema struct {
	Project    ProjectImport     `json:"project" yaml:"project"`
	Phases     []PhaseImport     `json:"phases,omitempty" yaml:"phases,omitempty"`
	Milestones []MilestoneImport `json:"milestones,omitempty" yaml:"milestones,omitempty"`
	Tasks      []TaskImport      `json:"tasks" yaml:"tasks"`
}

// ProjectImport defines the project-level fields in the import file.
type ProjectImport struct {
	ShortID    string  `json:"short_id" yaml:"short_id"`
	Name       string  `json:"name" yaml:"name"`
	StartDate  string  `json:"start_date" yaml:"start_date"`
	TargetDate *string `json:"target_date,omitempty" yaml:"target_date,omitempty"`
}

type PhaseImport struct {
	Ref   string `json:"ref" yaml:"ref"`
	Title string `json:"title" yaml:"title"`
	Order int    `json:"order" yaml:"order"`
}

type MilestoneImport struct {
	Ref      string  `json:"ref" yaml:"ref"`
	PhaseRef *string `json:"phase_ref,omitempty" yaml:"phase_ref,omitempty"`
	Title    string  `json:"title" yaml:"title"`
	Order    int     `json:"order" yaml:"order"`
}

// TaskImport defines a task row. DependsOn entries use the
// "<ref>:<kind>:<lagDays>" encoding, e.g. "design:FS:2" or "review:SS:-1".
type TaskImport struct {
	Ref            string   `json:"ref" yaml:"ref"`
	MilestoneRef   *string  `json:"milestone_ref,omitempty" yaml:"milestone_ref,omitempty"`
	ParentRef      *string  `json:"parent_ref,omitempty" yaml:"parent_ref,omitempty"`
	Title          string   `json:"title" yaml:"title"`
	Duration       *int     `json:"duration,omitempty" yaml:"duration,omitempty"`
	StartDate      *string  `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate        *string  `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Progress       *int     `json:"progress,omitempty" yaml:"progress,omitempty"`
	Status         string   `json:"status,omitempty" yaml:"status,omitempty"`
	Priority       string   `json:"priority,omitempty" yaml:"priority,omitempty"`
	ManualOverride bool     `json:"manual_override,omitempty" yaml:"manual_override,omitempty"`
	DependsOn      []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension. Anything that is
// not .yaml or .yml is read as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadImportSchema reads and parses a project import file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data, FormatForPath(path))
}

// ParseImportSchema decodes an import document in the given format.
func ParseImportSchema(data []byte, format Format) (*ImportSchema, error) {
	var schema ImportSchema
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	}
	return &schema, nil
}
