package llm

// ResumeSchemaName is sent as the json_schema name of resume structuring requests.
const ResumeSchemaName = "resume_data_structuring"

// BuildResumeJSONSchema returns the JSON Schema (draft 2020-12 subset) resumes are structured into.
// It is sent as the structured output constraint and used locally for loose validation.
func BuildResumeJSONSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }
	strList := func() map[string]any {
		return map[string]any{"type": "array", "items": str()}
	}

	experience := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"company":     str(),
			"title":       str(),
			"start_date":  str(),
			"end_date":    str(),
			"description": str(),
		},
		"required": []string{"company", "title"},
	}
	education := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"institution":     str(),
			"degree":          str(),
			"field_of_study":  str(),
			"graduation_year": map[string]any{"type": "integer"},
		},
		"required": []string{"institution"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":             map[string]any{"type": "string", "minLength": 1},
			"email":            str(),
			"phone":            str(),
			"location":         str(),
			"summary":          str(),
			"years_experience": map[string]any{"type": "number", "minimum": 0},
			"skills":           strList(),
			"languages":        strList(),
			"links":            strList(),
			"experience":       map[string]any{"type": "array", "items": experience},
			"education":        map[string]any{"type": "array", "items": education},
		},
		"required": []string{"name"},
	}
}
