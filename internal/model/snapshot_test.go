package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPoolSnapshotJSONRoundTrip(t *testing.T) {
	original := PoolSnapshot{
		ID:          "0x06df3b2bbb68adc8b0e302443692037ed9f91b42000000000000000000000063",
		Address:     "0x06Df3b2bbB68adc8B0e302443692037ED9f91b42",
		ChainID:     1,
		BlockNumber: 18500000,
		BlockTime:   1698800000,
		TokensList: []string{
			"0x6B175474E89094C44Da98b954EedeAC495271d0F",
			"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"0xdAC17F958D2ee523a2206206994597C13D831ec7",
		},
		Tokens: []Token{
			{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18, Balance: "25386245162441920127675699"},
			{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, Balance: "24911542643035"},
			{Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, Balance: "23934833729591"},
		},
		TotalShares: "73898457340269145656094096",
		SwapFee:     "100000000000000",
		Amp:         "1472000",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded PoolSnapshot
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}
