package model

// RawRecord is a schema-agnostic map for one record as received from the
// upstream source. It exists only within a single pipeline run.
type RawRecord map[string]interface{}

// Contact is the canonical, validated representation of one upstream record.
// It is never constructed with a missing firstName, lastName, or email;
// such input produces a mapping error instead.
type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}
