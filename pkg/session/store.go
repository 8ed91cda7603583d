package session

import (
	"context"
	"sync"
	"time"

	"oasyspark/pkg/logging"
	"oasyspark/pkg/models"
	"oasyspark/pkg/wallet"

	"github.com/google/uuid"
)

// DefaultChainID is the chain id assigned to every new connection.
const DefaultChainID int64 = 248

// AssetFetcher loads the holdings of an address. It must not fail; errors
// degrade to an empty result.
type AssetFetcher interface {
	FetchAssets(ctx context.Context, address string) models.AssetResult
}

// StalePolicy decides what happens to a fetch result that belongs to an
// older connect action.
type StalePolicy string

const (
	// StaleDiscard drops results of superseded connect actions.
	StaleDiscard StalePolicy = "discard"
	// StaleLastWriterWins applies whichever result resolves last.
	StaleLastWriterWins StalePolicy = "last_writer_wins"
)

// ParseStalePolicy maps a config value to a policy, defaulting to StaleDiscard.
func ParseStalePolicy(s string) StalePolicy {
	if StalePolicy(s) == StaleLastWriterWins {
		return StaleLastWriterWins
	}
	return StaleDiscard
}

// State is the derived position of the store in the connection state machine.
type State string

const (
	StateDisconnected     State = "DISCONNECTED"
	StateConnecting       State = "CONNECTING"
	StateConnectedLoading State = "CONNECTED_LOADING"
	StateConnectedReady   State = "CONNECTED_READY"
)

// Options configures a Store.
type Options struct {
	Fetcher     AssetFetcher
	Provider    wallet.AccountProvider
	Identity    wallet.IdentityContext
	SocialDelay time.Duration
	ChainID     int64
	StalePolicy StalePolicy
	Logger      *logging.Logger
}

// Store is the only writer of the session. It is safe for concurrent use.
type Store struct {
	fetcher     AssetFetcher
	provider    wallet.AccountProvider
	identity    wallet.IdentityContext
	socialDelay time.Duration
	chainID     int64
	policy      StalePolicy
	log         *logging.Logger

	mu          sync.RWMutex
	session     models.Session
	generation  uint64
	resetAt     uint64 // generation of the last disconnect
	inFlight    int
	subscribers []Subscriber
}

// NewStore creates a store holding the disconnected default session.
func NewStore(opts Options) *Store {
	s := &Store{
		fetcher:     opts.Fetcher,
		provider:    opts.Provider,
		identity:    opts.Identity,
		socialDelay: opts.SocialDelay,
		chainID:     opts.ChainID,
		policy:      opts.StalePolicy,
		log:         logging.OrDefault(opts.Logger).Component("session"),
		session:     models.DefaultSession(),
	}
	if s.provider == nil {
		s.provider = wallet.NoProvider{}
	}
	if s.identity == nil {
		s.identity = wallet.NoIdentity{}
	}
	if s.chainID == 0 {
		s.chainID = DefaultChainID
	}
	if s.policy == "" {
		s.policy = StaleDiscard
	}
	return s
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (s *Store) Subscribe() Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(Subscriber, 100)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (s *Store) Unsubscribe(ch Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (s *Store) notify(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		select {
		case sub <- event:
		default:
			// slow subscriber, drop
		}
	}
}

// Snapshot returns a deep copy of the current session.
func (s *Store) Snapshot() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// State returns the current state machine position.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.session.IsConnected && s.session.IsLoadingAssets:
		return StateConnectedLoading
	case s.session.IsConnected:
		return StateConnectedReady
	case s.inFlight > 0:
		return StateConnecting
	default:
		return StateDisconnected
	}
}

// ConnectExtension connects through the injected wallet provider. Provider
// failures are returned and leave the session untouched.
func (s *Store) ConnectExtension(ctx context.Context) error {
	return s.run(ctx, models.MethodExtension, func(ctx context.Context) (wallet.Connection, error) {
		return wallet.ConnectExtension(ctx, s.provider)
	})
}

// ConnectSocial connects with the host social identity, or the demo identity
// when running standalone.
func (s *Store) ConnectSocial(ctx context.Context) error {
	return s.run(ctx, models.MethodSocialFrame, func(ctx context.Context) (wallet.Connection, error) {
		return wallet.ConnectSocial(ctx, s.identity, s.socialDelay)
	})
}

// ConnectManual connects to address as typed. It always succeeds.
func (s *Store) ConnectManual(ctx context.Context, address string) error {
	return s.run(ctx, models.MethodManual, func(context.Context) (wallet.Connection, error) {
		return wallet.ConnectManual(address), nil
	})
}

// Disconnect resets the session to its default value. Fetches still in
// flight are ignored when they complete.
func (s *Store) Disconnect() {
	s.mu.Lock()
	s.generation++
	s.resetAt = s.generation
	s.session = models.DefaultSession()
	snap := s.session.Clone()
	s.mu.Unlock()

	s.log.Info("disconnected")
	s.notify(Event{Type: EventDisconnected, Session: snap})
}

func (s *Store) run(ctx context.Context, method models.ConnectionMethod, resolve func(context.Context) (wallet.Connection, error)) error {
	actionID := uuid.NewString()
	log := s.log.With("action", actionID, "method", method)

	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	s.notify(Event{Type: EventConnecting, ActionID: actionID, Method: method, Session: s.Snapshot()})

	conn, err := resolve(ctx)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if err != nil {
		log.Warn("connect failed", "error", err)
		s.notify(Event{Type: EventConnectFailed, ActionID: actionID, Method: method, Session: s.Snapshot(), Error: err.Error()})
		return err
	}

	gen := s.commit(conn)
	log.Info("connected", "address", conn.Address)
	s.notify(Event{Type: EventSessionUpdated, ActionID: actionID, Method: method, Session: s.Snapshot()})

	res := s.fetcher.FetchAssets(ctx, conn.Address)

	if s.apply(gen, res, log) {
		s.notify(Event{Type: EventAssetsLoaded, ActionID: actionID, Method: method, Session: s.Snapshot()})
	}
	return nil
}

// commit enters CONNECTED_LOADING for conn and returns the new generation.
func (s *Store) commit(conn wallet.Connection) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	addr := conn.Address
	chainID := s.chainID
	s.session = models.Session{
		Address:          &addr,
		IsConnected:      true,
		ChainID:          &chainID,
		ConnectionMethod: conn.Method,
		Balance:          models.DefaultSession().Balance,
		Tokens:           []models.FungibleHolding{},
		NFTs:             []models.NonFungibleHolding{},
		IsLoadingAssets:  true,
	}
	if conn.Method == models.MethodSocialFrame && conn.Identity != nil {
		id := *conn.Identity
		s.session.SocialIdentity = &id
	}
	return s.generation
}

// apply writes a fetch result into the session when the policy allows it.
func (s *Store) apply(gen uint64, res models.AssetResult, log *logging.Logger) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.IsConnected || gen < s.resetAt {
		log.Debug("dropping assets of a disconnected session")
		return false
	}
	if gen != s.generation && s.policy == StaleDiscard {
		log.Debug("dropping stale assets", "generation", gen, "current", s.generation)
		return false
	}

	s.session.Balance = res.NativeBalance
	s.session.Tokens = append([]models.FungibleHolding{}, res.Tokens...)
	s.session.NFTs = append([]models.NonFungibleHolding{}, res.NFTs...)
	s.session.IsLoadingAssets = false
	return true
}
