package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 code for a request the user declined.
const codeUserRejected = 4001

// AccountProvider is an injected wallet capable of granting account access.
type AccountProvider interface {
	Available() bool
	RequestAccounts(ctx context.Context) ([]string, error)
}

// NoProvider is the capability of a host without a wallet.
type NoProvider struct{}

func (NoProvider) Available() bool { return false }

func (NoProvider) RequestAccounts(context.Context) ([]string, error) {
	return nil, ErrProviderUnavailable
}

// RPCProvider talks EIP-1193 over JSON-RPC to a wallet endpoint such as a
// local signer. The connection is opened lazily on first use.
type RPCProvider struct {
	endpoint string

	mu     sync.Mutex
	client *rpc.Client
	dial   func(ctx context.Context, endpoint string) (*rpc.Client, error)
}

// NewRPCProvider returns a provider for endpoint. An empty endpoint yields a
// provider that reports itself unavailable.
func NewRPCProvider(endpoint string) *RPCProvider {
	return &RPCProvider{endpoint: endpoint, dial: rpc.DialContext}
}

// NewRPCProviderWithClient wraps an already connected client.
func NewRPCProviderWithClient(client *rpc.Client) *RPCProvider {
	return &RPCProvider{endpoint: "inproc", client: client, dial: rpc.DialContext}
}

func (p *RPCProvider) Available() bool {
	return p != nil && p.endpoint != ""
}

func (p *RPCProvider) conn(ctx context.Context) (*rpc.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	c, err := p.dial(ctx, p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrProviderUnavailable, p.endpoint, err)
	}
	p.client = c
	return c, nil
}

// RequestAccounts calls eth_requestAccounts. An endpoint that cannot be
// dialed is reported as ErrProviderUnavailable.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if !p.Available() {
		return nil, ErrProviderUnavailable
	}
	c, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := c.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeUserRejected {
			return nil, ErrUserRejected
		}
		return nil, err
	}
	return accounts, nil
}

// Close releases the underlying connection.
func (p *RPCProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}
