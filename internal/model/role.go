package model

// Role represents a user's access level.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleResearcher Role = "researcher"
)

// Roles lists every role in declaration order.
var Roles = []Role{RoleAdmin, RoleStaff, RoleResearcher}

var roleLabels = map[Role]string{
	RoleAdmin:      "Admin",
	RoleStaff:      "Staff",
	RoleResearcher: "Researcher",
}

// RoleOption is a label/value pair for populating a role selector.
type RoleOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Label returns the display name of the role.
func (r Role) Label() string {
	return roleLabels[r]
}

// Value returns the canonical stored value of the role.
func (r Role) Value() string {
	return string(r)
}

// Valid checks if the role is one of the known values.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// RoleOptions returns all roles as selector options, in declaration order.
func RoleOptions() []RoleOption {
	options := make([]RoleOption, 0, len(Roles))
	for _, r := range Roles {
		options = append(options, RoleOption{Label: r.Label(), Value: r.Value()})
	}
	return options
}
