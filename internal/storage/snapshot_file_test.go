package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"stableJoin/internal/model"
)

func TestSnapshotFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "snapshot.json")
	store := NewSnapshotFileStore(path)

	original := model.PoolSnapshot{
		ID:          "0x06df3b2bbb68adc8b0e302443692037ed9f91b42000000000000000000000063",
		Address:     "0x06Df3b2bbB68adc8B0e302443692037ED9f91b42",
		ChainID:     1,
		BlockNumber: 18500000,
		BlockTime:   1698800000,
		TokensList: []string{
			"0x6B175474E89094C44Da98b954EedeAC495271d0F",
			"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		},
		Tokens: []model.Token{
			{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18, Balance: "25386245162441920127675699"},
			{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, Balance: "24911542643035"},
		},
		TotalShares: "73898457340269145656094096",
		SwapFee:     "100000000000000",
		Amp:         "1472000",
	}

	if err := store.Save(original); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ok {
		t.Fatalf("snapshot not found after save")
	}
	if !reflect.DeepEqual(original, loaded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, loaded)
	}
}

func TestSnapshotFileMissing(t *testing.T) {
	store := NewSnapshotFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("missing snapshot reported as present")
	}
}
