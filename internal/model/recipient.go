// Package model defines data structures for the email generation service.
package model

// Recipient field names recognised in template placeholders.
const (
	FieldName      = "name"
	FieldCompany   = "company"
	FieldPosition  = "position"
	FieldEmail     = "email"
	FieldIndustry  = "industry"
	FieldPainPoint = "painPoint"
)

// RecipientFields is the fixed, ordered set of substitutable fields.
var RecipientFields = []string{
	FieldName,
	FieldCompany,
	FieldPosition,
	FieldEmail,
	FieldIndustry,
	FieldPainPoint,
}

// Recipient identifies the addressee of a generated email.
// Industry and PainPoint are optional; an empty string means absent.
type Recipient struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	Email     string `json:"email"`
	Industry  string `json:"industry,omitempty"`
	PainPoint string `json:"painPoint,omitempty"`
}

// Field returns the raw value stored for a placeholder field name.
// Unknown names report false.
func (r Recipient) Field(name string) (string, bool) {
	switch name {
	case FieldName:
		return r.Name, true
	case FieldCompany:
		return r.Company, true
	case FieldPosition:
		return r.Position, true
	case FieldEmail:
		return r.Email, true
	case FieldIndustry:
		return r.Industry, true
	case FieldPainPoint:
		return r.PainPoint, true
	default:
		return "", false
	}
}
