package types

import "strings"

// OwnerKind distinguishes the two identities a cart or wishlist can belong to.
type OwnerKind string

const (
	OwnerAnonymous     OwnerKind = "anonymous"
	OwnerAuthenticated OwnerKind = "authenticated"
)

// Owner identifies who a cart/wishlist belongs to: an anonymous guest
// session (opaque generated id) or an authenticated account (provider uid).
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

// AnonymousOwner wraps a guest session id.
func AnonymousOwner(guestID string) Owner {
	return Owner{Kind: OwnerAnonymous, ID: strings.TrimSpace(guestID)}
}

// AuthenticatedOwner wraps an authenticated user id.
func AuthenticatedOwner(userID string) Owner {
	return Owner{Kind: OwnerAuthenticated, ID: strings.TrimSpace(userID)}
}

// Authenticated reports whether the owner is a signed-in account.
func (o Owner) Authenticated() bool {
	return o.Kind == OwnerAuthenticated
}

// Valid reports whether the owner carries a usable identity.
func (o Owner) Valid() bool {
	if o.ID == "" {
		return false
	}
	return o.Kind == OwnerAnonymous || o.Kind == OwnerAuthenticated
}
