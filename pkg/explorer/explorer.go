package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"oasyspark/pkg/logging"
	"oasyspark/pkg/models"
	"oasyspark/pkg/utils"
)

var DefaultBaseURL = "https://explorer.oasys.games/api"

const (
	NativeSymbol   = "OAS"
	NativeName     = "Oasys Native Token"
	NativeDecimals = 18
	// Explorer does not provide prices; the native entry carries a fixed one.
	NativePriceUSD = 0.085
	NativeIcon     = "https://s2.coinmarketcap.com/static/img/coins/64x64/22265.png"

	placeholderImage = "https://picsum.photos/seed/%s/200/200"
	unknownName      = "Unknown Collection"
	statusOK         = "1"
)

// Token standards as reported by the tokenlist endpoint.
const (
	typeERC20   = "ERC-20"
	typeERC721  = "ERC-721"
	typeERC1155 = "ERC-1155"
)

type envelope[T any] struct {
	Message string `json:"message"`
	Result  T      `json:"result"`
	Status  string `json:"status"`
}

// RawToken is one entry of the tokenlist response.
type RawToken struct {
	Balance         string `json:"balance"`
	ContractAddress string `json:"contractAddress"`
	Decimals        string `json:"decimals"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Type            string `json:"type"`
}

// Client queries a Blockscout-compatible explorer API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logging.Logger
}

// NewClient creates a client. A zero timeout means no timeout.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logging.OrDefault(logger).Component("explorer"),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, action, address string, out interface{}) error {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", action)
	q.Set("address", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", action, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", action, err)
	}
	return nil
}

// FetchBalance returns the raw native balance in wei.
func (c *Client) FetchBalance(ctx context.Context, address string) (string, error) {
	var res envelope[string]
	if err := c.get(ctx, "balance", address, &res); err != nil {
		return "", err
	}
	if res.Status != statusOK {
		return "", fmt.Errorf("balance: explorer status %q: %s", res.Status, res.Message)
	}
	return res.Result, nil
}

// FetchTokenList returns the raw token entries held by address.
func (c *Client) FetchTokenList(ctx context.Context, address string) ([]RawToken, error) {
	var res envelope[json.RawMessage]
	if err := c.get(ctx, "tokenlist", address, &res); err != nil {
		return nil, err
	}
	if res.Status != statusOK {
		return nil, fmt.Errorf("tokenlist: explorer status %q: %s", res.Status, res.Message)
	}
	var tokens []RawToken
	if err := json.Unmarshal(res.Result, &tokens); err != nil {
		return nil, fmt.Errorf("tokenlist: decode result: %w", err)
	}
	return tokens, nil
}

// FetchAssets loads native balance, fungible and non-fungible holdings for
// address. It never fails: errors degrade to zero balances and empty lists.
func (c *Client) FetchAssets(ctx context.Context, address string) (result models.AssetResult) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("asset fetch aborted", "address", address, "panic", r)
			result = models.EmptyAssetResult()
		}
	}()

	raw, err := c.FetchBalance(ctx, address)
	if err != nil {
		c.log.Warn("balance query failed", "address", address, "error", err)
		raw = "0"
	}
	nativeBalance := utils.FormatUnits(raw, NativeDecimals)

	rawTokens, err := c.FetchTokenList(ctx, address)
	if err != nil {
		c.log.Warn("tokenlist query failed", "address", address, "error", err)
		rawTokens = nil
	}

	tokens, nfts := Normalize(nativeBalance, rawTokens)
	c.log.Debug("assets loaded", "address", address, "tokens", len(tokens), "nfts", len(nfts))
	return models.AssetResult{
		NativeBalance: nativeBalance,
		Tokens:        tokens,
		NFTs:          nfts,
	}
}

// NativeHolding is the synthetic entry for the chain's native currency.
func NativeHolding(balance string) models.FungibleHolding {
	return models.FungibleHolding{
		Symbol:    NativeSymbol,
		Name:      NativeName,
		Balance:   balance,
		Decimals:  fmt.Sprint(NativeDecimals),
		PriceUSD:  NativePriceUSD,
		Change24h: 0,
		Chain:     models.ChainOasysMainnet,
		Icon:      NativeIcon,
	}
}

// Normalize splits raw token entries into fungible and non-fungible holdings.
// The native entry always comes first; unknown token types are dropped.
func Normalize(nativeBalance string, raw []RawToken) ([]models.FungibleHolding, []models.NonFungibleHolding) {
	tokens := []models.FungibleHolding{NativeHolding(nativeBalance)}
	nfts := []models.NonFungibleHolding{}

	for i, t := range raw {
		switch t.Type {
		case typeERC20:
			tokens = append(tokens, models.FungibleHolding{
				Symbol:          t.Symbol,
				Name:            t.Name,
				Balance:         utils.FormatUnits(t.Balance, utils.ParseDecimals(t.Decimals)),
				Decimals:        t.Decimals,
				ContractAddress: t.ContractAddress,
				Chain:           models.ChainOasysMainnet,
			})
		case typeERC721, typeERC1155:
			name := t.Name
			if name == "" {
				name = unknownName
			}
			nfts = append(nfts, models.NonFungibleHolding{
				ID:              fmt.Sprintf("%s-%d", t.ContractAddress, i),
				CollectionName:  name,
				ContractAddress: t.ContractAddress,
				Balance:         t.Balance,
				ImageURL:        fmt.Sprintf(placeholderImage, t.ContractAddress),
				Chain:           models.ChainOasysMainnet,
				Standard:        models.TokenStandard(t.Type),
			})
		}
	}
	return tokens, nfts
}

// Ping checks that the explorer answers a balance query.
func (c *Client) Ping(ctx context.Context) error {
	var res envelope[json.RawMessage]
	return c.get(ctx, "balance", "0x0000000000000000000000000000000000000000", &res)
}
