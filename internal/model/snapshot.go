package model

// Token captures one pool token with its reserve at the snapshot block.
type Token struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Balance  string `json:"balance"`
}

// PoolSnapshot is an immutable view of a stable pool at a given block.
// Tokens and TokensList are index-aligned in on-chain storage order; join
// math and calldata encoding both depend on that order.
type PoolSnapshot struct {
	ID          string   `json:"id"`
	Address     string   `json:"address"`
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	BlockTime   uint64   `json:"block_time"`
	TokensList  []string `json:"tokens_list"`
	Tokens      []Token  `json:"tokens"`
	TotalShares string   `json:"total_shares"`
	SwapFee     string   `json:"swap_fee"`
	Amp         string   `json:"amp"`
}
