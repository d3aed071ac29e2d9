package domain

type TemplateScope string

const (
	TemplateScopeUnified TemplateScope = "unified"
	TemplateScopePerUnit TemplateScope = "per-unit"
)

type AssignmentLevel string

const (
	AssignmentLevelBuilding AssignmentLevel = "building"
	AssignmentLevelUnit     AssignmentLevel = "unit"
)

func (l AssignmentLevel) Valid() bool {
	return l == AssignmentLevelBuilding || l == AssignmentLevelUnit
}

type TemplateField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
}

type ContractTemplate struct {
	ID            string          `json:"id"`
	Scope         TemplateScope   `json:"scope"`
	BodyPrimary   string          `json:"body_primary"`
	BodySecondary string          `json:"body_secondary,omitempty"`
	Fields        []TemplateField `json:"fields"`
}

// Assignment binds a template to a building or unit, optionally overriding field values.
type Assignment struct {
	Level          AssignmentLevel   `json:"level"`
	RefID          string            `json:"ref_id"`
	TemplateID     string            `json:"template_id"`
	FieldOverrides map[string]string `json:"field_overrides,omitempty"`
	Active         bool              `json:"active"`
}

type ResolvedTemplate struct {
	TemplateID       string            `json:"template_id,omitempty"`
	Body             string            `json:"body"`
	BodySecondary    string            `json:"body_secondary"`
	Fields           map[string]string `json:"fields"`
	Hash             string            `json:"hash,omitempty"`
	MissingRequired  []string          `json:"missing_required,omitempty"`
	UndeclaredFields []string          `json:"undeclared_fields,omitempty"`
	Resolved         bool              `json:"resolved"`
}
