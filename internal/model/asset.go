package model

// AssetMeta is the ERC20 metadata of a pool asset, when it can be read.
type AssetMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
}
