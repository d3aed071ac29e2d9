// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Valid bearer token required
	SecurityAdmin                       // Bearer token carrying the admin role
)

// Route names registered on the HTTP router.
const (
	RouteHealth          = "health"
	RouteGetSignatures   = "contracts.signatures.get"
	RoutePostSignatures  = "contracts.signatures.post"
	RouteIssueInvoice    = "invoices.issue"
	RouteGetInvoice      = "invoices.get"
	RouteMarkInvoicePaid = "invoices.mark_paid"
	RouteCancelInvoice   = "invoices.cancel"
	RouteResolveTemplate = "templates.resolve"
	RouteGetSequence     = "admin.sequences.get"
	RouteResetSequence   = "admin.sequences.reset"
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	RouteHealth: SecurityPublic,

	RouteGetSignatures:  SecurityAccess,
	RoutePostSignatures: SecurityAccess,

	RouteIssueInvoice:    SecurityAccess,
	RouteGetInvoice:      SecurityAccess,
	RouteMarkInvoicePaid: SecurityAccess,
	RouteCancelInvoice:   SecurityAccess,

	RouteResolveTemplate: SecurityAccess,

	RouteGetSequence:   SecurityAdmin,
	RouteResetSequence: SecurityAdmin,
}

// RequiredSecurity returns the level for a route. Unknown routes require a token.
func RequiredSecurity(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityAccess
}
