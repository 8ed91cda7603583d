package wallet

import "context"

// HostIdentity is the user identity exposed by an embedding social client.
type HostIdentity struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	CustodyAddress string `json:"custody_address,omitempty"`
}

// IdentityContext is the ambient identity of a compatible embedding host.
// Identity returns nil, nil when the host has no signed-in user.
type IdentityContext interface {
	Available() bool
	Identity(ctx context.Context) (*HostIdentity, error)
}

// NoIdentity is the context of standalone browsing.
type NoIdentity struct{}

func (NoIdentity) Available() bool { return false }

func (NoIdentity) Identity(context.Context) (*HostIdentity, error) { return nil, nil }

// StaticIdentity serves a fixed identity, e.g. one handed over by the host
// through configuration.
type StaticIdentity struct {
	User *HostIdentity
}

func (s StaticIdentity) Available() bool { return s.User != nil }

func (s StaticIdentity) Identity(context.Context) (*HostIdentity, error) {
	if s.User == nil {
		return nil, nil
	}
	u := *s.User
	return &u, nil
}
