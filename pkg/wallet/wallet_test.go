package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"oasyspark/pkg/models"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ethService is served in-process as the "eth" namespace.
type ethService struct {
	accounts []string
	err      error
}

func (s *ethService) RequestAccounts() ([]string, error) {
	return s.accounts, s.err
}

type codedError struct {
	code int
	msg  string
}

func (e codedError) Error() string  { return e.msg }
func (e codedError) ErrorCode() int { return e.code }

func newInProcProvider(t *testing.T, svc *ethService) *RPCProvider {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", svc))
	client := rpc.DialInProc(srv)
	p := NewRPCProviderWithClient(client)
	t.Cleanup(func() {
		p.Close()
		srv.Stop()
	})
	return p
}

type fakeProvider struct {
	available bool
	accounts  []string
	err       error
}

func (f fakeProvider) Available() bool { return f.available }

func (f fakeProvider) RequestAccounts(context.Context) ([]string, error) {
	return f.accounts, f.err
}

type fakeIdentity struct {
	user *HostIdentity
	err  error
}

func (f fakeIdentity) Available() bool { return true }

func (f fakeIdentity) Identity(context.Context) (*HostIdentity, error) {
	return f.user, f.err
}

func TestConnectExtension_RPCProvider(t *testing.T) {
	p := newInProcProvider(t, &ethService{accounts: []string{
		"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		"0x0000000000000000000000000000000000000001",
	}})

	conn, err := ConnectExtension(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", conn.Address)
	assert.Equal(t, models.MethodExtension, conn.Method)
	assert.Nil(t, conn.Identity)
}

func TestConnectExtension_UserRejected(t *testing.T) {
	p := newInProcProvider(t, &ethService{err: codedError{code: 4001, msg: "User rejected the request."}})

	_, err := ConnectExtension(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.ErrorIs(t, err, ErrProviderError)

	var pe *ProviderError
	assert.True(t, errors.As(err, &pe))
}

func TestConnectExtension_ProviderFailure(t *testing.T) {
	p := newInProcProvider(t, &ethService{err: codedError{code: -32603, msg: "internal"}})

	_, err := ConnectExtension(context.Background(), p)
	assert.ErrorIs(t, err, ErrProviderError)
	assert.NotErrorIs(t, err, ErrUserRejected)
}

func unreachableProvider() *RPCProvider {
	p := NewRPCProvider("ws://127.0.0.1:1")
	p.dial = func(context.Context, string) (*rpc.Client, error) {
		return nil, errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	}
	return p
}

func TestConnectExtension_Table(t *testing.T) {
	tests := []struct {
		name     string
		provider AccountProvider
		wantErr  error
		wantAddr string
	}{
		{"nil provider", nil, ErrProviderUnavailable, ""},
		{"no provider", NoProvider{}, ErrProviderUnavailable, ""},
		{"empty endpoint", NewRPCProvider(""), ErrProviderUnavailable, ""},
		{"unreachable endpoint", unreachableProvider(), ErrProviderUnavailable, ""},
		{"no accounts", fakeProvider{available: true}, ErrProviderError, ""},
		{"invalid account", fakeProvider{available: true, accounts: []string{"not-hex"}}, ErrProviderError, ""},
		{"transport error", fakeProvider{available: true, err: errors.New("connection refused")}, ErrProviderError, ""},
		{"ok", fakeProvider{available: true, accounts: []string{" 0x0000000000000000000000000000000000000ABC "}}, nil, "0x0000000000000000000000000000000000000abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := ConnectExtension(context.Background(), tt.provider)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, conn.Address)
		})
	}
}

func TestConnectSocial_HostIdentity(t *testing.T) {
	ic := StaticIdentity{User: &HostIdentity{
		FID:            42,
		Username:       "alice",
		DisplayName:    "Alice",
		CustodyAddress: "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
	}}

	start := time.Now()
	conn, err := ConnectSocial(context.Background(), ic, time.Hour)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "host identity must not wait for the fallback delay")

	assert.Equal(t, models.MethodSocialFrame, conn.Method)
	assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", conn.Address)
	require.NotNil(t, conn.Identity)
	assert.Equal(t, int64(42), conn.Identity.FID)
	assert.Equal(t, "alice", conn.Identity.Username)
	assert.Equal(t, "Alice", conn.Identity.DisplayName)
}

func TestConnectSocial_PartialIdentity(t *testing.T) {
	conn, err := ConnectSocial(context.Background(), fakeIdentity{user: &HostIdentity{FID: 7}}, 0)
	require.NoError(t, err)
	assert.Equal(t, DemoAddress, conn.Address)
	assert.Equal(t, int64(7), conn.Identity.FID)
	assert.Equal(t, DemoUsername, conn.Identity.Username)
	assert.Equal(t, DemoDisplayName, conn.Identity.DisplayName)
}

func TestConnectSocial_Fallback(t *testing.T) {
	start := time.Now()
	conn, err := ConnectSocial(context.Background(), NoIdentity{}, 20*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	assert.Equal(t, DemoAddress, conn.Address)
	assert.Equal(t, &models.SocialIdentity{FID: DemoFID, Username: DemoUsername, DisplayName: DemoDisplayName}, conn.Identity)
}

func TestConnectSocial_Errors(t *testing.T) {
	_, err := ConnectSocial(context.Background(), fakeIdentity{err: errors.New("frame sdk not ready")}, 0)
	assert.ErrorIs(t, err, ErrProviderError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ConnectSocial(ctx, NoIdentity{}, time.Hour)
	assert.ErrorIs(t, err, ErrProviderError)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnectManual(t *testing.T) {
	for _, addr := range []string{"0xabc", "", "vitalik.eth", "  spaced  "} {
		conn := ConnectManual(addr)
		assert.Equal(t, addr, conn.Address)
		assert.Equal(t, models.MethodManual, conn.Method)
		assert.Nil(t, conn.Identity)
	}
}
