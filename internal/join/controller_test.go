package join

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"stableJoin/internal/model"
)

const (
	testPoolID   = "0x06df3b2bbb68adc8b0e302443692037ed9f91b42000000000000000000000063"
	testPoolAddr = "0x06Df3b2bbB68adc8B0e302443692037ED9f91b42"
	testVault    = "0xBA12222222228d8Ba445958a75a0704d566BF2C8"
	testSender   = "0x28C6c06298d514Db089934071355E5743bf21d60"

	daiAddr  = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	usdcAddr = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	usdtAddr = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
)

func newTestSnapshot() model.PoolSnapshot {
	return model.PoolSnapshot{
		ID:          testPoolID,
		Address:     testPoolAddr,
		ChainID:     1,
		BlockNumber: 18500000,
		TokensList:  []string{daiAddr, usdcAddr, usdtAddr},
		Tokens: []model.Token{
			{Address: daiAddr, Decimals: 18, Balance: "25386245162441920127675699"},
			{Address: usdcAddr, Decimals: 6, Balance: "24911542643035"},
			{Address: usdtAddr, Decimals: 6, Balance: "23934833729591"},
		},
		TotalShares: "73898457340269145656094096",
		SwapFee:     "100000000000000",
		Amp:         "1472000",
	}
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	controller, err := New(newTestSnapshot(), NetworkConfig{
		ChainID: 1,
		Vault:   common.HexToAddress(testVault),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("build controller: %v", err)
	}
	return controller
}

// testAmounts is roughly a 1/10000 proportional deposit in native units.
func testAmounts() []string {
	return []string{"2538624516244192012767", "2491154264", "2393483372"}
}

func testTokens() []string {
	return []string{daiAddr, usdcAddr, usdtAddr}
}

func TestBuildJoin(t *testing.T) {
	controller := newTestController(t)

	result, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.To != common.HexToAddress(testVault).Hex() {
		t.Fatalf("target address: %s != %s", result.To, testVault)
	}
	if result.MinBPTOut != "7389106748196624816070" {
		t.Fatalf("min bpt out: %s != 7389106748196624816070", result.MinBPTOut)
	}
	if !strings.HasPrefix(result.Data, "0x") {
		t.Fatalf("calldata is not 0x-prefixed: %s", result.Data)
	}

	// The encoded minimum must match the reported minimum.
	minBPT, _ := new(big.Int).SetString(result.MinBPTOut, 10)
	padded := fmt.Sprintf("%064x", minBPT)
	if !strings.Contains(result.Data, padded) {
		t.Fatalf("calldata does not embed min bpt out %s", result.MinBPTOut)
	}
}

func TestBuildJoinZeroSlippageIsExact(t *testing.T) {
	controller := newTestController(t)

	result, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), "0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MinBPTOut != "7389845732769901806251" {
		t.Fatalf("exact mint: %s != 7389845732769901806251", result.MinBPTOut)
	}
}

func TestBuildJoinSlippageMonotonic(t *testing.T) {
	controller := newTestController(t)

	mins := make([]*big.Int, 0, 3)
	for _, bps := range []string{"0", "1", "100"} {
		result, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), bps)
		if err != nil {
			t.Fatalf("unexpected error at %s bps: %v", bps, err)
		}
		min, ok := new(big.Int).SetString(result.MinBPTOut, 10)
		if !ok {
			t.Fatalf("min bpt out is not an integer: %s", result.MinBPTOut)
		}
		mins = append(mins, min)
	}

	if mins[1].Cmp(mins[0]) >= 0 || mins[2].Cmp(mins[1]) >= 0 {
		t.Fatalf("minimums not strictly decreasing: %s, %s, %s", mins[0], mins[1], mins[2])
	}
	if mins[2].String() != "7315947275442202788188" {
		t.Fatalf("min at 100 bps: %s != 7315947275442202788188", mins[2])
	}
}

func TestBuildJoinDeterministic(t *testing.T) {
	controller := newTestController(t)

	first, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Data != second.Data || first.MinBPTOut != second.MinBPTOut || first.To != second.To {
		t.Fatalf("repeated build diverged: %+v != %+v", first, second)
	}
}

func TestBuildJoinLengthMismatchFirst(t *testing.T) {
	controller := newTestController(t)

	// Cardinality wins over every other validation, including a bad sender.
	_, err := controller.BuildJoin("not-an-address", testTokens(), []string{"1"}, "0")
	if !errors.Is(err, ErrInputLengthMismatch) {
		t.Fatalf("expected input length mismatch, got %v", err)
	}

	_, err = controller.BuildJoin(testSender, []string{daiAddr}, testAmounts(), "0")
	if !errors.Is(err, ErrInputLengthMismatch) {
		t.Fatalf("expected input length mismatch, got %v", err)
	}
}

func TestBuildJoinTokenMismatch(t *testing.T) {
	controller := newTestController(t)

	shuffled := []string{daiAddr, usdtAddr, usdcAddr}
	_, err := controller.BuildJoin(testSender, shuffled, testAmounts(), "0")
	if !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected token mismatch, got %v", err)
	}
}

func TestBuildJoinTokenCaseInsensitive(t *testing.T) {
	controller := newTestController(t)

	lower := make([]string, 0, 3)
	for _, addr := range testTokens() {
		lower = append(lower, strings.ToLower(addr))
	}

	result, err := controller.BuildJoin(testSender, lower, testAmounts(), "0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	canonical, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), "0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Data != canonical.Data {
		t.Fatalf("lowercased token list produced different calldata")
	}
}

func TestBuildJoinInvalidSender(t *testing.T) {
	controller := newTestController(t)

	_, err := controller.BuildJoin("0x123", testTokens(), testAmounts(), "0")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}
}

func TestBuildJoinInvalidAmount(t *testing.T) {
	controller := newTestController(t)

	_, err := controller.BuildJoin(testSender, testTokens(), []string{"12.5", "1", "1"}, "0")
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}

	_, err = controller.BuildJoin(testSender, testTokens(), testAmounts(), "abc")
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid slippage, got %v", err)
	}

	_, err = controller.BuildJoin(testSender, testTokens(), testAmounts(), "10001")
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected out-of-range slippage, got %v", err)
	}
}

func TestBuildJoinLargeDeposit(t *testing.T) {
	controller := newTestController(t)

	// A tenth-of-a-percent-of-reserves deposit per token still converges.
	amounts := []string{"25386245162441920127675", "24911542643", "23934833729"}
	result, err := controller.BuildJoin(testSender, testTokens(), amounts, "0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MinBPTOut != "73898457339645886066886" {
		t.Fatalf("large deposit mint: %s != 73898457339645886066886", result.MinBPTOut)
	}
}

func TestBuildJoinOneSidedDeposit(t *testing.T) {
	controller := newTestController(t)

	// Double the USDC reserve deposited in USDC alone.
	amounts := []string{"0", "49823085286070", "0"}
	result, err := controller.BuildJoin(testSender, testTokens(), amounts, "0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MinBPTOut != "49579971060965051641024649" {
		t.Fatalf("one-sided mint: %s != 49579971060965051641024649", result.MinBPTOut)
	}
}

func TestCalcPriceImpact(t *testing.T) {
	controller := newTestController(t)

	result, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	impact, err := controller.CalcPriceImpact(testAmounts(), result.MinBPTOut, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if impact != "100000000010269" {
		t.Fatalf("price impact: %s != 100000000010269", impact)
	}
}

func TestCalcPriceImpactZeroSlippage(t *testing.T) {
	controller := newTestController(t)

	result, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), "0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	impact, err := controller.CalcPriceImpact(testAmounts(), result.MinBPTOut, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Near-proportional deposit against the frictionless valuation leaves
	// only rounding dust, never a negative impact.
	parsed, ok := new(big.Int).SetString(impact, 10)
	if !ok {
		t.Fatalf("impact is not an integer: %s", impact)
	}
	if parsed.Sign() < 0 {
		t.Fatalf("join impact is negative: %s", impact)
	}
	if impact != "10270" {
		t.Fatalf("zero-slippage impact: %s != 10270", impact)
	}
}

func TestCalcPriceImpactExitSign(t *testing.T) {
	controller := newTestController(t)

	result, err := controller.BuildJoin(testSender, testTokens(), testAmounts(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joinImpact, err := controller.CalcPriceImpact(testAmounts(), result.MinBPTOut, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exitImpact, err := controller.CalcPriceImpact(testAmounts(), result.MinBPTOut, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exitImpact != "-"+joinImpact {
		t.Fatalf("exit impact %s is not the negation of join impact %s", exitImpact, joinImpact)
	}
}

func TestCalcPriceImpactLengthMismatch(t *testing.T) {
	controller := newTestController(t)

	_, err := controller.CalcPriceImpact([]string{"1", "2"}, "1000", true)
	if !errors.Is(err, ErrInputLengthMismatch) {
		t.Fatalf("expected input length mismatch, got %v", err)
	}
}

func TestCalcPriceImpactInvalidMin(t *testing.T) {
	controller := newTestController(t)

	for _, input := range []string{"xyz", "-5", "1.5", ""} {
		if _, err := controller.CalcPriceImpact(testAmounts(), input, true); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected invalid amount for %q, got %v", input, err)
		}
	}
}

func TestNewRejectsBadSnapshots(t *testing.T) {
	network := NetworkConfig{ChainID: 1, Vault: common.HexToAddress(testVault)}

	snapshot := newTestSnapshot()
	snapshot.ID = "0x1234"
	if _, err := New(snapshot, network, nil); err == nil {
		t.Fatalf("expected error for short pool id")
	}

	snapshot = newTestSnapshot()
	snapshot.TokensList = snapshot.TokensList[:2]
	if _, err := New(snapshot, network, nil); err == nil {
		t.Fatalf("expected error for token list length mismatch")
	}

	snapshot = newTestSnapshot()
	snapshot.SwapFee = "1000000000000000000"
	if _, err := New(snapshot, network, nil); err == nil {
		t.Fatalf("expected error for swap fee of 1")
	}

	snapshot = newTestSnapshot()
	snapshot.Amp = "0"
	if _, err := New(snapshot, network, nil); err == nil {
		t.Fatalf("expected error for zero amp")
	}

	snapshot = newTestSnapshot()
	snapshot.Tokens[0].Balance = "not-a-number"
	if _, err := New(snapshot, network, nil); err == nil {
		t.Fatalf("expected error for malformed balance")
	}
}

func TestBuildJoinZeroSupplySnapshot(t *testing.T) {
	snapshot := newTestSnapshot()
	snapshot.TotalShares = "0"
	controller, err := New(snapshot, NetworkConfig{ChainID: 1, Vault: common.HexToAddress(testVault)}, nil)
	if err != nil {
		t.Fatalf("build controller: %v", err)
	}

	_, err = controller.BuildJoin(testSender, testTokens(), testAmounts(), "0")
	if !errors.Is(err, ErrMath) {
		t.Fatalf("expected mathematical error, got %v", err)
	}
}
