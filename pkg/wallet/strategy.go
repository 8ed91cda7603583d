package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	"oasyspark/pkg/models"

	"github.com/ethereum/go-ethereum/common"
)

// Fallback identity used when no host identity is present.
const (
	DemoAddress     = "0xcd3b766ccdd6ae721141f452c550ca635964ce71"
	DemoFID         = 12345
	DemoUsername    = "oasys_fan"
	DemoDisplayName = "Oasys Gamer"

	DefaultSocialDelay = 1500 * time.Millisecond
)

// Connection is the outcome of a successful connection strategy.
type Connection struct {
	Address  string
	Method   models.ConnectionMethod
	Identity *models.SocialIdentity
}

// ConnectExtension asks the provider for account access and uses the first
// account returned.
func ConnectExtension(ctx context.Context, p AccountProvider) (Connection, error) {
	if p == nil || !p.Available() {
		return Connection{}, ErrProviderUnavailable
	}
	accounts, err := p.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return Connection{}, err
		}
		if errors.Is(err, ErrUserRejected) {
			return Connection{}, providerErr("request accounts", ErrUserRejected)
		}
		return Connection{}, providerErr("request accounts", err)
	}
	if len(accounts) == 0 {
		return Connection{}, providerErr("request accounts", errors.New("provider returned no accounts"))
	}
	addr := strings.TrimSpace(accounts[0])
	if !common.IsHexAddress(addr) {
		return Connection{}, providerErr("request accounts", errors.New("provider returned invalid account "+addr))
	}
	return Connection{
		Address: strings.ToLower(addr),
		Method:  models.MethodExtension,
	}, nil
}

// ConnectSocial resolves the identity of the embedding host. Outside a host
// it waits delay and falls back to the demo identity.
func ConnectSocial(ctx context.Context, ic IdentityContext, delay time.Duration) (Connection, error) {
	var user *HostIdentity
	if ic != nil && ic.Available() {
		u, err := ic.Identity(ctx)
		if err != nil {
			return Connection{}, providerErr("read host identity", err)
		}
		user = u
	}

	if user == nil {
		if err := sleepCtx(ctx, delay); err != nil {
			return Connection{}, providerErr("social fallback", err)
		}
		return Connection{
			Address: DemoAddress,
			Method:  models.MethodSocialFrame,
			Identity: &models.SocialIdentity{
				FID:         DemoFID,
				Username:    DemoUsername,
				DisplayName: DemoDisplayName,
			},
		}, nil
	}

	identity := &models.SocialIdentity{
		FID:         user.FID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	}
	if identity.Username == "" {
		identity.Username = DemoUsername
	}
	if identity.DisplayName == "" {
		identity.DisplayName = DemoDisplayName
	}

	addr := DemoAddress
	if common.IsHexAddress(user.CustodyAddress) {
		addr = strings.ToLower(user.CustodyAddress)
	}
	return Connection{Address: addr, Method: models.MethodSocialFrame, Identity: identity}, nil
}

// ConnectManual accepts address verbatim.
func ConnectManual(address string) Connection {
	return Connection{Address: address, Method: models.MethodManual}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
