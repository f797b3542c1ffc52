package entities

import "sort"

// Network selects which chain deployment addresses and endpoints are used.
// It is passed explicitly into every call that resolves addresses, never
// stored as mutable state on a shared service.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// Valid reports whether the network is a known deployment.
func (n Network) Valid() bool {
	return n == Mainnet || n == Testnet
}

// Token describes a coin type registered on the Aptos chain.
type Token struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Address     string `json:"address"` // full Move coin type tag
	Decimals    int32  `json:"decimals"`
	CoinGeckoID string `json:"coinGeckoId,omitempty"`
	Stable      bool   `json:"stable,omitempty"`
}

// NativeSymbol is the chain's gas token and the first bridge candidate
// for multi-hop routing.
const NativeSymbol = "APT"

// StablePreference is the fixed order in which stablecoins are tried as
// bridge tokens when routing through APT fails.
var StablePreference = []string{"USDC", "USDT"}

var mainnetTokens = []Token{
	{
		Symbol:      "APT",
		Name:        "Aptos Coin",
		Address:     "0x1::aptos_coin::AptosCoin",
		Decimals:    8,
		CoinGeckoID: "aptos",
	},
	{
		Symbol:      "USDC",
		Name:        "USD Coin (LayerZero)",
		Address:     "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC",
		Decimals:    6,
		CoinGeckoID: "usd-coin",
		Stable:      true,
	},
	{
		Symbol:      "USDT",
		Name:        "Tether USD (LayerZero)",
		Address:     "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDT",
		Decimals:    6,
		CoinGeckoID: "tether",
		Stable:      true,
	},
	{
		Symbol:      "WETH",
		Name:        "Wrapped Ether (LayerZero)",
		Address:     "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::WETH",
		Decimals:    6,
		CoinGeckoID: "weth",
	},
	{
		Symbol:      "CAKE",
		Name:        "PancakeSwap Token",
		Address:     "0x159df6b7689437016108a019fd5bef736bac692b6d4a1f10c941f6fbb9a74ca6::oft::CakeOFT",
		Decimals:    8,
		CoinGeckoID: "pancakeswap-token",
	},
	{
		Symbol:      "THL",
		Name:        "Thala Token",
		Address:     "0x7fd500c11216f0fe3095d0c4b8aa4d64a4e2e04f83758462f2b127255643615::thl_coin::THL",
		Decimals:    8,
		CoinGeckoID: "thala",
	},
}

var testnetTokens = []Token{
	{
		Symbol:      "APT",
		Name:        "Aptos Coin",
		Address:     "0x1::aptos_coin::AptosCoin",
		Decimals:    8,
		CoinGeckoID: "aptos",
	},
	{
		Symbol:      "USDC",
		Name:        "USD Coin (test)",
		Address:     "0x43417434fd869edee76cca2a4d2301e528a1551b1d719b75c350c3c97d15b8b9::coins::USDC",
		Decimals:    6,
		CoinGeckoID: "usd-coin",
		Stable:      true,
	},
	{
		Symbol:      "USDT",
		Name:        "Tether USD (test)",
		Address:     "0x43417434fd869edee76cca2a4d2301e528a1551b1d719b75c350c3c97d15b8b9::coins::USDT",
		Decimals:    6,
		CoinGeckoID: "tether",
		Stable:      true,
	},
	{
		Symbol:      "WETH",
		Name:        "Wrapped Ether (test)",
		Address:     "0x43417434fd869edee76cca2a4d2301e528a1551b1d719b75c350c3c97d15b8b9::coins::WETH",
		Decimals:    6,
		CoinGeckoID: "weth",
	},
}

// Registry holds the static token tables indexed by network and symbol.
type Registry struct {
	byNetwork map[Network]map[string]Token
}

// NewRegistry builds the registry from the static per-network tables.
func NewRegistry() *Registry {
	r := &Registry{byNetwork: make(map[Network]map[string]Token)}
	r.register(Mainnet, mainnetTokens)
	r.register(Testnet, testnetTokens)
	return r
}

func (r *Registry) register(net Network, tokens []Token) {
	m := make(map[string]Token, len(tokens))
	for _, t := range tokens {
		m[t.Symbol] = t
	}
	r.byNetwork[net] = m
}

// Get returns the descriptor for a symbol on a network. The error is a
// *ConfigurationError; it is the only fatal error kind in route resolution.
func (r *Registry) Get(net Network, symbol string) (Token, error) {
	tokens, ok := r.byNetwork[net]
	if !ok {
		return Token{}, &ConfigurationError{Symbol: symbol, Network: net}
	}
	t, ok := tokens[symbol]
	if !ok {
		return Token{}, &ConfigurationError{Symbol: symbol, Network: net}
	}
	return t, nil
}

// Address returns the on-chain coin type tag for a symbol on a network.
func (r *Registry) Address(net Network, symbol string) (string, error) {
	t, err := r.Get(net, symbol)
	if err != nil {
		return "", err
	}
	return t.Address, nil
}

// Stables returns the configured stablecoins in bridge-preference order.
func (r *Registry) Stables(net Network) []Token {
	var out []Token
	for _, sym := range StablePreference {
		if t, err := r.Get(net, sym); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// All returns every token configured for the network, sorted by symbol.
func (r *Registry) All(net Network) []Token {
	tokens := r.byNetwork[net]
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
