package datasource

// RateCard prices one model for one data source, in dollars per million tokens.
type RateCard struct {
	Model         string  `yaml:"model" json:"model"`
	InputPerMTok  float64 `yaml:"input_per_mtok" json:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok" json:"output_per_mtok"`
}

// Descriptor parameterizes the generic turn pipeline for one data source.
// Prompt instruction text is domain configuration carried opaquely; the
// pipeline never inspects it.
type Descriptor struct {
	// Name is the lowercase data source key (set during YAML unmarshaling).
	Name string `yaml:"-" json:"name"`

	ApplicationName string `yaml:"application_name" json:"application_name"`
	Description     string `yaml:"description" json:"description"`

	// Structured is true for warehouse-backed sources that run the
	// rephrase/column/query stage chain. The research corpus is the one
	// non-structured source.
	Structured bool `yaml:"structured" json:"structured"`

	// Stage instruction templates (opaque prompt content).
	RephraseInstructions string `yaml:"rephrase_instructions" json:"-"`
	ColumnInstructions   string `yaml:"column_instructions" json:"-"`
	QueryInstructions    string `yaml:"query_instructions" json:"-"`

	// HierarchyInstructions drive the hierarchy-mapping loop that resolves
	// denominator populations. Only set for sources with
	// classify_denominator.
	HierarchyInstructions string `yaml:"hierarchy_instructions" json:"-"`

	// ClassifyDenominator enables the year-scope and denominator classifier
	// calls plus the optional hierarchy-mapping loop (survey sources whose
	// percentage questions need a denominator population).
	ClassifyDenominator bool `yaml:"classify_denominator" json:"classify_denominator"`

	// ForcedEmptyFields lists summary fields forced to their empty values
	// regardless of model output ("sqlCode", "visualization",
	// "viewVisualization").
	ForcedEmptyFields []string `yaml:"forced_empty_fields" json:"forced_empty_fields"`

	// FollowupSamples seed the follow-up suggestion prompt.
	FollowupSamples []string `yaml:"followup_samples" json:"followup_samples"`

	// Search index names for column/document metadata retrieval.
	SearchIndex  string `yaml:"search_index" json:"search_index"`
	SectionIndex string `yaml:"section_index,omitempty" json:"section_index,omitempty"`

	// Warehouse layout used by the metadata service.
	Schema string            `yaml:"schema,omitempty" json:"schema,omitempty"`
	Tables map[string]string `yaml:"tables,omitempty" json:"tables,omitempty"`

	Rates RateCard `yaml:"rates" json:"rates"`
}

// ForcesEmpty reports whether the named summary field must be cleared for this
// data source.
func (d *Descriptor) ForcesEmpty(field string) bool {
	for _, f := range d.ForcedEmptyFields {
		if f == field {
			return true
		}
	}
	return false
}
