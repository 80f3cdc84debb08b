package authzmodel

import "time"

// TemplateLink records that a Policy was instantiated from a PolicyTemplate,
// with the placeholder bindings that were substituted.
type TemplateLink struct {
	TemplateId        string
	PrincipalBinding   *EntityIdentifier
	ResourceBinding    *EntityIdentifier
}

// Policy is a compiled, stored authorization rule.
type Policy struct {
	StoreId     string
	Id          string
	Statement   string
	Template    *TemplateLink
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PolicyTemplate is a reusable, parametric policy statement that must
// reference at least one of ?principal / ?resource.
type PolicyTemplate struct {
	StoreId     string
	Id          string
	Statement   string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
