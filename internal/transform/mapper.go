package transform

import (
	"fmt"
	"strings"

	"go-contact-pipeline/internal/model"
	"go-contact-pipeline/pkg/utils"
)

// MappingError reports why one raw record could not be mapped. It carries a
// snapshot of the offending record for the error log. Mapping errors are
// always per-record and never abort the batch.
type MappingError struct {
	Reason string
	Raw    model.RawRecord
}

func (e *MappingError) Error() string {
	return "mapping: " + e.Reason
}

// MapContact converts one raw record into a canonical contact. It is pure:
// no side effects, same output for same input. Validation order is fixed so
// the reported reason is deterministic: firstName presence, then lastName
// presence, then email presence and shape. The contact is never partially
// populated on failure.
func MapContact(raw model.RawRecord) (model.Contact, error) {
	firstName := utils.StringField(raw, "firstName")
	if firstName == "" {
		return model.Contact{}, &MappingError{Reason: "missing required field: firstName", Raw: raw}
	}

	lastName := utils.StringField(raw, "lastName")
	if lastName == "" {
		return model.Contact{}, &MappingError{Reason: "missing required field: lastName", Raw: raw}
	}

	email := utils.StringField(raw, "email")
	if email == "" {
		return model.Contact{}, &MappingError{Reason: "missing required field: email", Raw: raw}
	}
	if err := checkEmail(email); err != nil {
		return model.Contact{}, &MappingError{Reason: err.Error(), Raw: raw}
	}

	return model.Contact{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     utils.StringField(raw, "phone"),
	}, nil
}

// checkEmail requires exactly one "@" with non-empty local and domain parts.
func checkEmail(email string) error {
	if strings.Count(email, "@") != 1 {
		return fmt.Errorf("invalid email %q: must contain exactly one @", email)
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || domain == "" {
		return fmt.Errorf("invalid email %q: empty local or domain part", email)
	}
	return nil
}
