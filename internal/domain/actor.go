package domain

const RoleAdmin = "admin"

// Actor is the authenticated caller as resolved from the bearer token.
type Actor struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

func (a *Actor) HasRole(role string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a *Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}
