package model

// JoinResult is a ready-to-submit join transaction body. MinBPTOut is the
// floor the vault itself enforces as a revert condition; the encoded calldata
// carries the exact same value.
type JoinResult struct {
	To        string `json:"to"`
	Data      string `json:"data"`
	MinBPTOut string `json:"min_bpt_out"`
}

// JoinRecord is a built join payload persisted for audit.
type JoinRecord struct {
	ChainID     uint64   `json:"chain_id"`
	PoolID      string   `json:"pool_id"`
	PoolAddress string   `json:"pool_address"`
	Sender      string   `json:"sender"`
	AmountsIn   []string `json:"amounts_in"`
	Slippage    string   `json:"slippage"`
	MinBPTOut   string   `json:"min_bpt_out"`
	PriceImpact string   `json:"price_impact"`
	To          string   `json:"to"`
	Data        string   `json:"data"`
	CreatedAt   string   `json:"created_at"`
}
