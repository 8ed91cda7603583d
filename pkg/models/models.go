package models

import (
	"strconv"
	"strings"
)

// ChainType names a chain or verse of the Oasys ecosystem.
type ChainType string

const (
	ChainOasysMainnet ChainType = "Oasys Mainnet"
	ChainHomeVerse    ChainType = "Home Verse"
	ChainTCGVerse     ChainType = "TCG Verse"
	ChainMCHVerse     ChainType = "MCH Verse"
)

// ConnectionMethod is the mechanism that established the session address.
type ConnectionMethod string

const (
	MethodNone        ConnectionMethod = "NONE"
	MethodExtension   ConnectionMethod = "EXTENSION"
	MethodSocialFrame ConnectionMethod = "SOCIAL_FRAME"
	MethodManual      ConnectionMethod = "MANUAL"
)

// TokenStandard is the asset standard of a non-fungible holding.
type TokenStandard string

const (
	StandardERC721  TokenStandard = "ERC-721"
	StandardERC1155 TokenStandard = "ERC-1155"
)

// SocialIdentity is the host identity attached to a social-frame session.
type SocialIdentity struct {
	FID         int64  `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// FungibleHolding is an owned quantity of an interchangeable token.
type FungibleHolding struct {
	Symbol          string    `json:"symbol"`
	Name            string    `json:"name"`
	Balance         string    `json:"balance"`
	Decimals        string    `json:"decimals"`
	ContractAddress string    `json:"contract_address,omitempty"` // empty for the native currency
	PriceUSD        float64   `json:"price_usd"`
	Change24h       float64   `json:"change_24h"`
	Chain           ChainType `json:"chain"`
	Icon            string    `json:"icon,omitempty"`
}

// ValueUSD returns balance * price. Unparsable balances count as zero.
func (h FungibleHolding) ValueUSD() float64 {
	bal, err := strconv.ParseFloat(strings.ReplaceAll(h.Balance, ",", ""), 64)
	if err != nil {
		return 0
	}
	return bal * h.PriceUSD
}

// IsNative reports whether the holding is the chain's native currency.
func (h FungibleHolding) IsNative() bool {
	return h.ContractAddress == ""
}

// NonFungibleHolding is an owned quantity of a collection item.
// Balance is an item count and is never run through the fixed-point formatter.
type NonFungibleHolding struct {
	ID              string        `json:"id"`
	CollectionName  string        `json:"collection_name"`
	ContractAddress string        `json:"contract_address"`
	Balance         string        `json:"balance"`
	TokenID         string        `json:"token_id,omitempty"`
	ImageURL        string        `json:"image_url"`
	Chain           ChainType     `json:"chain"`
	Standard        TokenStandard `json:"standard"`
}

// AssetResult is the normalized output of one asset fetch.
type AssetResult struct {
	NativeBalance string               `json:"native_balance"`
	Tokens        []FungibleHolding    `json:"tokens"`
	NFTs          []NonFungibleHolding `json:"nfts"`
}

// EmptyAssetResult is returned when a fetch fails as a whole.
func EmptyAssetResult() AssetResult {
	return AssetResult{
		NativeBalance: "0.00",
		Tokens:        []FungibleHolding{},
		NFTs:          []NonFungibleHolding{},
	}
}

// Session holds the current wallet connection and its derived holdings.
type Session struct {
	Address          *string              `json:"address"`
	IsConnected      bool                 `json:"is_connected"`
	ChainID          *int64               `json:"chain_id"`
	ConnectionMethod ConnectionMethod     `json:"connection_method"`
	Balance          string               `json:"balance"`
	SocialIdentity   *SocialIdentity      `json:"social_identity,omitempty"`
	Tokens           []FungibleHolding    `json:"tokens"`
	NFTs             []NonFungibleHolding `json:"nfts"`
	IsLoadingAssets  bool                 `json:"is_loading_assets"`
}

// DefaultSession returns the disconnected session.
func DefaultSession() Session {
	return Session{
		ConnectionMethod: MethodNone,
		Balance:          "0",
		Tokens:           []FungibleHolding{},
		NFTs:             []NonFungibleHolding{},
	}
}

// AddressOr returns the session address, or def when disconnected.
func (s Session) AddressOr(def string) string {
	if s.Address == nil {
		return def
	}
	return *s.Address
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	cp := s
	if s.Address != nil {
		a := *s.Address
		cp.Address = &a
	}
	if s.ChainID != nil {
		id := *s.ChainID
		cp.ChainID = &id
	}
	if s.SocialIdentity != nil {
		si := *s.SocialIdentity
		cp.SocialIdentity = &si
	}
	cp.Tokens = append([]FungibleHolding{}, s.Tokens...)
	cp.NFTs = append([]NonFungibleHolding{}, s.NFTs...)
	return cp
}

// PortfolioValueUSD sums the USD value of all fungible holdings.
func PortfolioValueUSD(tokens []FungibleHolding) float64 {
	var total float64
	for _, t := range tokens {
		total += t.ValueUSD()
	}
	return total
}

// Game is an entry of the static game catalog.
type Game struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Chain       ChainType `json:"chain"`
	ImageURL    string    `json:"image_url"`
	Link        string    `json:"link,omitempty"`
	Tags        []string  `json:"tags"`
	IsHot       bool      `json:"is_hot"`
}

// CheckResult holds the result of one configuration check.
type CheckResult struct {
	Name    string `json:"name"`
	Target  string `json:"target"`
	Status  string `json:"status"` // "ok" or "error"
	ChainID int64  `json:"chain_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TestReport holds the results of the configuration test.
type TestReport struct {
	ConfigPath      string        `json:"config_path"`
	ValidStructure  bool          `json:"valid_structure"`
	StructureErrors []string      `json:"structure_errors,omitempty"`
	Checks          []CheckResult `json:"checks,omitempty"`
	ConfigChainID   int64         `json:"config_chain_id"`
	ObservedChainID int64         `json:"observed_chain_id,omitempty"`
	ConfigUpdated   bool          `json:"config_updated"`
	SaveError       string        `json:"save_error,omitempty"`
	DryRun          bool          `json:"dry_run"`
}
