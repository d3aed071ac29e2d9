package domain

import "time"

type ContractState string

const (
	ContractStateDraft                  ContractState = "draft"
	ContractStateSentForSignatures      ContractState = "sent_for_signatures"
	ContractStatePendingTenantSignature ContractState = "pending_tenant_signature"
	ContractStatePendingOwnerSignature  ContractState = "pending_owner_signature"
	ContractStatePendingAdminApproval   ContractState = "pending_admin_approval"
	ContractStateActive                 ContractState = "active"
	ContractStateRejected               ContractState = "rejected"
)

type SignerRole string

const (
	SignerRoleTenant SignerRole = "tenant"
	SignerRoleOwner  SignerRole = "owner"
	SignerRoleAdmin  SignerRole = "admin"
)

// RequiredRoles lists every role whose signature is needed before a contract activates.
var RequiredRoles = []SignerRole{SignerRoleTenant, SignerRoleOwner, SignerRoleAdmin}

func (r SignerRole) Valid() bool {
	switch r {
	case SignerRoleTenant, SignerRoleOwner, SignerRoleAdmin:
		return true
	}
	return false
}

// Signature is immutable once recorded.
type Signature struct {
	Role          SignerRole `json:"role"`
	SignerName    string     `json:"signer_name"`
	SignerEmail   string     `json:"signer_email,omitempty"`
	SignedAt      time.Time  `json:"signed_at"`
	OriginAddress string     `json:"origin_address,omitempty"`
	ClientContext string     `json:"client_context,omitempty"`
}

type Contract struct {
	ID                  string        `json:"id"`
	PropertyID          string        `json:"property_id"`
	UnitID              *string       `json:"unit_id,omitempty"`
	State               ContractState `json:"state"`
	Signatures          []Signature   `json:"signatures"`
	TenantName          string        `json:"tenant_name"`
	TenantEmail         string        `json:"tenant_email"`
	CreatedBy           string        `json:"created_by"`
	CreatedAt           time.Time     `json:"created_at"`
	SentForSignaturesAt *time.Time    `json:"sent_for_signatures_at,omitempty"`
	SentForSignaturesBy string        `json:"sent_for_signatures_by,omitempty"`
	ActivatedAt         *time.Time    `json:"activated_at,omitempty"`
	RejectedAt          *time.Time    `json:"rejected_at,omitempty"`
	RejectedBy          string        `json:"rejected_by,omitempty"`
	RejectionReason     string        `json:"rejection_reason,omitempty"`
	TemplateID          string        `json:"template_id,omitempty"`
	RenderedHash        string        `json:"rendered_hash,omitempty"`
	Serial              string        `json:"serial,omitempty"`
	Version             int64         `json:"version"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (c *Contract) IsTerminal() bool {
	return c.State == ContractStateActive || c.State == ContractStateRejected
}

// HasSigned reports whether a signature for role is already recorded.
func (c *Contract) HasSigned(role SignerRole) bool {
	return c.SignatureFor(role) != nil
}

func (c *Contract) SignatureFor(role SignerRole) *Signature {
	for i := range c.Signatures {
		if c.Signatures[i].Role == role {
			return &c.Signatures[i]
		}
	}
	return nil
}

// DeriveState computes the post-send workflow state from the recorded signatures.
// An admin signature counts only once tenant and owner have both signed.
func DeriveState(signatures []Signature) ContractState {
	var tenant, owner, admin bool
	for _, s := range signatures {
		switch s.Role {
		case SignerRoleTenant:
			tenant = true
		case SignerRoleOwner:
			owner = true
		case SignerRoleAdmin:
			admin = true
		}
	}
	switch {
	case tenant && owner && admin:
		return ContractStateActive
	case tenant && owner:
		return ContractStatePendingAdminApproval
	case tenant:
		return ContractStatePendingOwnerSignature
	default:
		return ContractStatePendingTenantSignature
	}
}

// CheckConsistency verifies that the persisted state agrees with the recorded signatures.
func CheckConsistency(c *Contract) error {
	seen := make(map[SignerRole]bool, len(c.Signatures))
	for _, s := range c.Signatures {
		if seen[s.Role] {
			return &ConsistencyError{ContractID: c.ID, Reason: "duplicate signature for role " + string(s.Role)}
		}
		seen[s.Role] = true
	}

	switch c.State {
	case ContractStateDraft, ContractStateSentForSignatures:
		if len(c.Signatures) > 0 {
			return &ConsistencyError{ContractID: c.ID, Reason: "unsigned state " + string(c.State) + " carries signatures"}
		}
		return nil
	case ContractStateRejected:
		return nil
	}

	derived := DeriveState(c.Signatures)
	if derived != c.State {
		return &ConsistencyError{ContractID: c.ID, Reason: "state " + string(c.State) + " disagrees with signatures (" + string(derived) + ")"}
	}
	if c.State == ContractStateActive && c.ActivatedAt == nil {
		return &ConsistencyError{ContractID: c.ID, Reason: "active contract without activation time"}
	}
	return nil
}

// NextStep returns a human readable hint for the party expected to act next.
func NextStep(state ContractState) string {
	switch state {
	case ContractStateDraft:
		return "ready to send for signatures"
	case ContractStateSentForSignatures:
		return "awaiting signatures"
	case ContractStatePendingTenantSignature:
		return "awaiting tenant signature"
	case ContractStatePendingOwnerSignature:
		return "awaiting owner signature"
	case ContractStatePendingAdminApproval:
		return "awaiting admin approval"
	case ContractStateActive:
		return "contract active"
	case ContractStateRejected:
		return "document rejected"
	}
	return ""
}
