package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"oasyspark/pkg/logging"
	"oasyspark/pkg/models"
	"oasyspark/pkg/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchAssets(ctx context.Context, address string) models.AssetResult {
	args := m.Called(ctx, address)
	return args.Get(0).(models.AssetResult)
}

// gatedFetcher blocks every fetch until its address is released.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan models.AssetResult
	started chan string
}

func newGatedFetcher(addrs ...string) *gatedFetcher {
	g := &gatedFetcher{gates: make(map[string]chan models.AssetResult), started: make(chan string, 10)}
	for _, a := range addrs {
		g.gates[a] = make(chan models.AssetResult, 1)
	}
	return g
}

func (g *gatedFetcher) FetchAssets(ctx context.Context, address string) models.AssetResult {
	g.mu.Lock()
	gate := g.gates[address]
	g.mu.Unlock()
	g.started <- address
	return <-gate
}

func (g *gatedFetcher) release(address string, res models.AssetResult) {
	g.gates[address] <- res
}

func (g *gatedFetcher) waitStarted(t *testing.T, address string) {
	t.Helper()
	select {
	case got := <-g.started:
		require.Equal(t, address, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch for %s never started", address)
	}
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

func assets(balance string, symbols ...string) models.AssetResult {
	res := models.AssetResult{NativeBalance: balance, NFTs: []models.NonFungibleHolding{}}
	res.Tokens = append(res.Tokens, models.FungibleHolding{Symbol: "OAS", Balance: balance})
	for _, s := range symbols {
		res.Tokens = append(res.Tokens, models.FungibleHolding{Symbol: s, ContractAddress: "0x" + s})
	}
	return res
}

func assertDefault(t *testing.T, s models.Session) {
	t.Helper()
	assert.Equal(t, models.DefaultSession(), s)
	assert.Nil(t, s.Address)
	assert.False(t, s.IsConnected)
	assert.Nil(t, s.ChainID)
	assert.Equal(t, models.MethodNone, s.ConnectionMethod)
	assert.Nil(t, s.SocialIdentity)
	assert.Empty(t, s.Tokens)
	assert.Empty(t, s.NFTs)
	assert.False(t, s.IsLoadingAssets)
}

func newStore(f AssetFetcher, opts Options) *Store {
	opts.Fetcher = f
	opts.Logger = logging.Discard()
	return NewStore(opts)
}

func TestNewStore(t *testing.T) {
	s := newStore(new(MockFetcher), Options{})
	assertDefault(t, s.Snapshot())
	assert.Equal(t, StateDisconnected, s.State())
}

func TestConnectManual(t *testing.T) {
	mf := new(MockFetcher)
	mf.On("FetchAssets", mock.Anything, "0xabc").Return(assets("1250.00", "USDC"))
	s := newStore(mf, Options{})

	require.NoError(t, s.ConnectManual(context.Background(), "0xabc"))
	mf.AssertExpectations(t)

	snap := s.Snapshot()
	require.NotNil(t, snap.Address)
	assert.Equal(t, "0xabc", *snap.Address)
	assert.Equal(t, models.MethodManual, snap.ConnectionMethod)
	assert.True(t, snap.IsConnected)
	require.NotNil(t, snap.ChainID)
	assert.Equal(t, DefaultChainID, *snap.ChainID)
	assert.False(t, snap.IsLoadingAssets)
	assert.Equal(t, "1250.00", snap.Balance)
	assert.Len(t, snap.Tokens, 2)
	assert.Nil(t, snap.SocialIdentity)
	assert.Equal(t, StateConnectedReady, s.State())
}

func TestConnect_CommitsBeforeFetch(t *testing.T) {
	g := newGatedFetcher("0xabc")
	s := newStore(g, Options{})

	done := make(chan error)
	go func() { done <- s.ConnectManual(context.Background(), "0xabc") }()
	g.waitStarted(t, "0xabc")

	snap := s.Snapshot()
	assert.True(t, snap.IsConnected)
	assert.True(t, snap.IsLoadingAssets)
	assert.Equal(t, "0xabc", *snap.Address)
	assert.Empty(t, snap.Tokens)
	assert.Equal(t, StateConnectedLoading, s.State())

	g.release("0xabc", assets("2.00"))
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().IsLoadingAssets)
}

func TestConnect_ClearsPreviousHoldings(t *testing.T) {
	g := newGatedFetcher("0xaaa", "0xbbb")
	s := newStore(g, Options{})

	go func() { _ = s.ConnectManual(context.Background(), "0xaaa") }()
	g.waitStarted(t, "0xaaa")
	g.release("0xaaa", assets("5.00", "USDC", "MCHC"))
	require.Eventually(t, func() bool { return !s.Snapshot().IsLoadingAssets }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() { _ = s.ConnectManual(context.Background(), "0xbbb"); close(done) }()
	g.waitStarted(t, "0xbbb")

	snap := s.Snapshot()
	assert.Equal(t, "0xbbb", *snap.Address)
	assert.Empty(t, snap.Tokens)
	assert.Empty(t, snap.NFTs)
	assert.True(t, snap.IsLoadingAssets)

	g.release("0xbbb", assets("1.00"))
	<-done
}

func TestConnectExtension_Unavailable(t *testing.T) {
	mf := new(MockFetcher)
	s := newStore(mf, Options{Provider: wallet.NoProvider{}})

	err := s.ConnectExtension(context.Background())
	assert.ErrorIs(t, err, wallet.ErrProviderUnavailable)
	assertDefault(t, s.Snapshot())
	assert.Equal(t, StateDisconnected, s.State())
	mf.AssertNotCalled(t, "FetchAssets", mock.Anything, mock.Anything)
}

func TestConnectExtension_ErrorKeepsPriorState(t *testing.T) {
	mf := new(MockFetcher)
	mf.On("FetchAssets", mock.Anything, "0xabc").Return(assets("1.00"))
	provider := &switchProvider{}
	s := newStore(mf, Options{Provider: provider})

	require.NoError(t, s.ConnectManual(context.Background(), "0xabc"))
	before := s.Snapshot()

	provider.err = errors.New("user closed the popup")
	err := s.ConnectExtension(context.Background())
	assert.ErrorIs(t, err, wallet.ErrProviderError)
	assert.Equal(t, before, s.Snapshot())
	mf.AssertNumberOfCalls(t, "FetchAssets", 1)
}

type switchProvider struct {
	err error
}

func (p *switchProvider) Available() bool { return true }

func (p *switchProvider) RequestAccounts(context.Context) ([]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []string{"0x0000000000000000000000000000000000000001"}, nil
}

func TestConnectExtension_Success(t *testing.T) {
	addr := "0xab5801a7d398351b8be11c439e05c5b3259aec9b"
	mf := new(MockFetcher)
	mf.On("FetchAssets", mock.Anything, addr).Return(assets("3.00"))
	s := newStore(mf, Options{Provider: fakeProvider{available: true, accounts: []string{"0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"}}})

	require.NoError(t, s.ConnectExtension(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, addr, *snap.Address)
	assert.Equal(t, models.MethodExtension, snap.ConnectionMethod)
	assert.Equal(t, "3.00", snap.Balance)
}

func TestConnectSocial(t *testing.T) {
	mf := new(MockFetcher)
	mf.On("FetchAssets", mock.Anything, wallet.DemoAddress).Return(assets("0.00"))
	s := newStore(mf, Options{SocialDelay: time.Millisecond})

	require.NoError(t, s.ConnectSocial(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, models.MethodSocialFrame, snap.ConnectionMethod)
	require.NotNil(t, snap.SocialIdentity)
	assert.Equal(t, int64(wallet.DemoFID), snap.SocialIdentity.FID)
	assert.Equal(t, wallet.DemoUsername, snap.SocialIdentity.Username)

	// identity does not survive a switch to another method
	mf.On("FetchAssets", mock.Anything, "0xabc").Return(assets("0.00"))
	require.NoError(t, s.ConnectManual(context.Background(), "0xabc"))
	assert.Nil(t, s.Snapshot().SocialIdentity)
}

func TestConnectSocial_FailureLeavesSession(t *testing.T) {
	mf := new(MockFetcher)
	s := newStore(mf, Options{SocialDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.ConnectSocial(ctx)
	assert.ErrorIs(t, err, wallet.ErrProviderError)
	assertDefault(t, s.Snapshot())
}

func TestDisconnect(t *testing.T) {
	mf := new(MockFetcher)
	mf.On("FetchAssets", mock.Anything, mock.Anything).Return(assets("9.00", "USDC"))
	s := newStore(mf, Options{SocialDelay: time.Millisecond})

	require.NoError(t, s.ConnectSocial(context.Background()))
	s.Disconnect()
	assertDefault(t, s.Snapshot())

	// idempotent on an already disconnected store
	s.Disconnect()
	assertDefault(t, s.Snapshot())
}

func TestDisconnect_MidLoad(t *testing.T) {
	for _, policy := range []StalePolicy{StaleDiscard, StaleLastWriterWins} {
		t.Run(string(policy), func(t *testing.T) {
			g := newGatedFetcher("0xabc")
			s := newStore(g, Options{StalePolicy: policy})

			done := make(chan struct{})
			go func() { _ = s.ConnectManual(context.Background(), "0xabc"); close(done) }()
			g.waitStarted(t, "0xabc")

			s.Disconnect()
			assertDefault(t, s.Snapshot())

			g.release("0xabc", assets("7.00", "USDC"))
			<-done
			assertDefault(t, s.Snapshot())
		})
	}
}

func TestDisconnect_ThenReconnectIgnoresOldFetch(t *testing.T) {
	g := newGatedFetcher("0xaaa", "0xbbb")
	s := newStore(g, Options{StalePolicy: StaleLastWriterWins})

	doneA := make(chan struct{})
	go func() { _ = s.ConnectManual(context.Background(), "0xaaa"); close(doneA) }()
	g.waitStarted(t, "0xaaa")
	s.Disconnect()

	doneB := make(chan struct{})
	go func() { _ = s.ConnectManual(context.Background(), "0xbbb"); close(doneB) }()
	g.waitStarted(t, "0xbbb")

	g.release("0xaaa", assets("1.00"))
	<-doneA
	assert.True(t, s.Snapshot().IsLoadingAssets)

	g.release("0xbbb", assets("2.00"))
	<-doneB
	assert.Equal(t, "2.00", s.Snapshot().Balance)
}

// Known race: A then B, B resolves first. With last-writer-wins the holdings
// end up being A's even though B is the current address.
func TestOverlappingConnects_LastWriterWins(t *testing.T) {
	g := newGatedFetcher("0xaaa", "0xbbb")
	s := newStore(g, Options{StalePolicy: StaleLastWriterWins})

	doneA := make(chan struct{})
	go func() { _ = s.ConnectManual(context.Background(), "0xaaa"); close(doneA) }()
	g.waitStarted(t, "0xaaa")

	doneB := make(chan struct{})
	go func() { _ = s.ConnectManual(context.Background(), "0xbbb"); close(doneB) }()
	g.waitStarted(t, "0xbbb")

	g.release("0xbbb", assets("2.00", "BBB"))
	<-doneB
	assert.Equal(t, "2.00", s.Snapshot().Balance)

	g.release("0xaaa", assets("1.00", "AAA"))
	<-doneA

	snap := s.Snapshot()
	assert.Equal(t, "0xbbb", *snap.Address)
	assert.Equal(t, "1.00", snap.Balance)
	assert.Equal(t, "AAA", snap.Tokens[1].Symbol)
	assert.False(t, snap.IsLoadingAssets)
}

func TestOverlappingConnects_Discard(t *testing.T) {
	g := newGatedFetcher("0xaaa", "0xbbb")
	s := newStore(g, Options{StalePolicy: StaleDiscard})

	doneA := make(chan struct{})
	go func() { _ = s.ConnectManual(context.Background(), "0xaaa"); close(doneA) }()
	g.waitStarted(t, "0xaaa")

	doneB := make(chan struct{})
	go func() { _ = s.ConnectManual(context.Background(), "0xbbb"); close(doneB) }()
	g.waitStarted(t, "0xbbb")

	// A resolving first while B is loading must not end the loading state
	g.release("0xaaa", assets("1.00", "AAA"))
	<-doneA
	assert.True(t, s.Snapshot().IsLoadingAssets)
	assert.Empty(t, s.Snapshot().Tokens)

	g.release("0xbbb", assets("2.00", "BBB"))
	<-doneB

	snap := s.Snapshot()
	assert.Equal(t, "0xbbb", *snap.Address)
	assert.Equal(t, "2.00", snap.Balance)
	assert.Equal(t, "BBB", snap.Tokens[1].Symbol)
}

func TestSnapshotIsACopy(t *testing.T) {
	mf := new(MockFetcher)
	mf.On("FetchAssets", mock.Anything, "0xabc").Return(assets("1.00", "USDC"))
	s := newStore(mf, Options{})
	require.NoError(t, s.ConnectManual(context.Background(), "0xabc"))

	snap := s.Snapshot()
	*snap.Address = "0xmutated"
	snap.Tokens[0].Symbol = "XXX"

	again := s.Snapshot()
	assert.Equal(t, "0xabc", *again.Address)
	assert.Equal(t, "OAS", again.Tokens[0].Symbol)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	s := newStore(new(MockFetcher), Options{})
	sub := s.Subscribe()
	assert.NotNil(t, sub)

	s.mu.RLock()
	assert.Equal(t, 1, len(s.subscribers))
	s.mu.RUnlock()

	s.Unsubscribe(sub)
	s.mu.RLock()
	assert.Equal(t, 0, len(s.subscribers))
	s.mu.RUnlock()
}

func TestEvents(t *testing.T) {
	mf := new(MockFetcher)
	mf.On("FetchAssets", mock.Anything, "0xabc").Return(assets("1.00"))
	s := newStore(mf, Options{})
	sub := s.Subscribe()

	require.NoError(t, s.ConnectManual(context.Background(), "0xabc"))
	s.Disconnect()
	_ = s.ConnectExtension(context.Background())

	want := []EventType{
		EventConnecting, EventSessionUpdated, EventAssetsLoaded,
		EventDisconnected,
		EventConnecting, EventConnectFailed,
	}
	var got []Event
	timeout := time.After(time.Second)
	for len(got) < len(want) {
		select {
		case ev := <-sub:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events", len(got))
		}
	}
	for i, ev := range got {
		assert.Equal(t, want[i], ev.Type, "event %d", i)
	}
	assert.Equal(t, got[0].ActionID, got[2].ActionID)
	assert.NotEqual(t, got[0].ActionID, got[4].ActionID)
	assert.Equal(t, "1.00", got[2].Session.Balance)
	assert.Contains(t, got[5].Error, wallet.ErrProviderUnavailable.Error())
}

func TestParseStalePolicy(t *testing.T) {
	assert.Equal(t, StaleLastWriterWins, ParseStalePolicy("last_writer_wins"))
	assert.Equal(t, StaleDiscard, ParseStalePolicy("discard"))
	assert.Equal(t, StaleDiscard, ParseStalePolicy(""))
}
