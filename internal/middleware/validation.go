package middleware

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/coldreach/email-generator/internal/model"
)

// Field length limits.
const (
	MaxFieldLength       = 256
	MaxContentLength     = 100000
	MaxInstructionLength = 4000
	MaxDescriptionLength = 2000
	MaxTags              = 20
)

// ValidateRecipient checks the required recipient fields and the address.
// Optional fields are only length-checked.
func ValidateRecipient(r model.Recipient) error {
	required := []struct {
		name, value string
	}{
		{model.FieldName, r.Name},
		{model.FieldCompany, r.Company},
		{model.FieldPosition, r.Position},
		{model.FieldEmail, r.Email},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("recipient %s is required", f.name)
		}
	}

	for _, field := range model.RecipientFields {
		v, _ := r.Field(field)
		if err := validateText("recipient "+field, v, MaxFieldLength); err != nil {
			return err
		}
	}

	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("recipient email is not a valid address")
	}
	return nil
}

// ValidateSettings validates optional generation settings.
func ValidateSettings(s *model.GenerationSettings) error {
	if s == nil {
		return nil
	}
	if s.Temperature < 0 || s.Temperature > 1 {
		return errors.New("temperature must be between 0 and 1")
	}
	if s.MaxTokens < 0 {
		return errors.New("maxTokens must be positive")
	}
	if len(s.APIKey) > MaxFieldLength {
		return errors.New("apiKey exceeds maximum length")
	}
	return nil
}

// ValidateGenerateRequest validates a generate email request.
func ValidateGenerateRequest(req *model.GenerateEmailRequest) error {
	if req.TemplateID == "" && req.Template == nil {
		return errors.New("templateId or template is required")
	}
	if req.TemplateID != "" {
		if err := ValidateTemplateID(req.TemplateID); err != nil {
			return err
		}
	}
	if req.Template != nil {
		if err := ValidateTemplateContent(req.Template.Content); err != nil {
			return err
		}
	}
	if err := ValidateRecipient(req.Recipient); err != nil {
		return err
	}
	if err := ValidateSettings(req.Settings); err != nil {
		return err
	}
	return validateText("customInstructions", req.CustomInstructions, MaxInstructionLength)
}

// ValidateCreateTemplate validates a template authoring request.
func ValidateCreateTemplate(req *model.CreateTemplateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if err := validateText("name", req.Name, MaxFieldLength); err != nil {
		return err
	}
	if err := ValidateTemplateContent(req.Content); err != nil {
		return err
	}
	if len(req.Tags) > MaxTags {
		return fmt.Errorf("at most %d tags are allowed", MaxTags)
	}
	for _, tag := range req.Tags {
		if err := validateText("tag", tag, 64); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTemplateContent validates template text.
func ValidateTemplateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content cannot be empty")
	}
	return validateText("content", content, MaxContentLength)
}

// ValidateTemplateID validates a template ID.
func ValidateTemplateID(id string) error {
	if id == "" {
		return errors.New("template ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("template ID exceeds maximum length")
	}
	if strings.ContainsAny(id, "/ \t\n") {
		return errors.New("invalid template ID format")
	}
	return nil
}

// ValidateSearch validates a template search request.
func ValidateSearch(req *model.SearchTemplatesRequest) error {
	if strings.TrimSpace(req.Description) == "" {
		return errors.New("description is required")
	}
	if req.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return validateText("description", req.Description, MaxDescriptionLength)
}

func validateText(field, value string, maxLen int) error {
	if len(value) > maxLen {
		return fmt.Errorf("%s exceeds maximum length", field)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%s must be valid UTF-8", field)
	}
	return nil
}
