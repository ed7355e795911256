package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/clients/swaprouter"
	"github.com/packlabs/packvault-backend/internal/guard"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

func TestDepositBootstrapMintsOneToOne(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	result, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID:      "core",
		Amount:      decimal.NewFromInt(1000),
		Beneficiary: "alice",
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	wantDecimal(t, "shares minted", result.SharesMinted, decimal.NewFromInt(1000))

	pack, err := f.packs.GetPack(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	wantDecimal(t, "total shares", pack.TotalShares, decimal.NewFromInt(1000))
	wantDecimal(t, "tvl", pack.TotalValueLocked, decimal.NewFromInt(1000))

	balances := map[string]decimal.Decimal{}
	for _, alloc := range pack.Allocations {
		balances[alloc.Asset] = alloc.CurrentBalance
	}
	wantDecimal(t, "btc balance", balances["BTC"], decimal.NewFromInt(6))
	wantDecimal(t, "eth balance", balances["ETH"], decimal.NewFromInt(40))
}

func TestDepositMintsProportionalToValue(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(1000), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("bootstrap deposit: %v", err)
	}

	// Basket doubles in BTC terms: 6*200 + 40*10 = 1600.
	f.oracle.SetPrice("BTC", decimal.NewFromInt(200))

	result, err := f.vault.Deposit(depositorCtx("bob"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(800), Beneficiary: "bob",
	})
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	// 800 * 1000 / 1600
	wantDecimal(t, "shares minted", result.SharesMinted, decimal.NewFromInt(500))
}

func TestDepositSequenceWithStablePrices(t *testing.T) {
	f := newTestFixture(t)
	f.oracle.SetPrice("W", decimal.NewFromInt(50))
	f.oracle.SetPrice("X", decimal.NewFromInt(20))
	f.oracle.SetPrice("Y", decimal.NewFromInt(5))

	if _, err := f.packs.CreatePack(adminCtx(), "bluechip", "Blue Chip", []AllocationSpec{
		{Asset: "W", WeightBps: 4000},
		{Asset: "X", WeightBps: 3000},
		{Asset: "Y", WeightBps: 3000},
	}); err != nil {
		t.Fatalf("create pack: %v", err)
	}

	first, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "bluechip", Amount: decimal.NewFromInt(5000), Beneficiary: "alice",
	})
	if err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	wantDecimal(t, "first shares", first.SharesMinted, decimal.NewFromInt(5000))

	// Prices unchanged, so the second depositor mints 1:1 as well.
	second, err := f.vault.Deposit(depositorCtx("bob"), DepositInput{
		PackID: "bluechip", Amount: decimal.NewFromInt(3000), Beneficiary: "bob",
	})
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	wantDecimal(t, "second shares", second.SharesMinted, decimal.NewFromInt(3000))

	if !first.SharesMinted.GreaterThan(second.SharesMinted) {
		t.Fatalf("share ordering: %s should exceed %s", first.SharesMinted, second.SharesMinted)
	}

	// Each position's value is its share of the basket.
	aliceValue, err := f.packs.GetUserValue(depositorCtx("alice"), "bluechip", "alice")
	if err != nil {
		t.Fatalf("alice value: %v", err)
	}
	wantDecimal(t, "alice value", aliceValue, decimal.NewFromInt(5000))
	bobValue, err := f.packs.GetUserValue(depositorCtx("bob"), "bluechip", "bob")
	if err != nil {
		t.Fatalf("bob value: %v", err)
	}
	wantDecimal(t, "bob value", bobValue, decimal.NewFromInt(3000))
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	_, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.Zero, Beneficiary: "alice",
	})
	wantKind(t, err, vaulterr.KindValidation)
}

func TestDepositRejectsUnknownPack(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "ghost", Amount: decimal.NewFromInt(100), Beneficiary: "alice",
	})
	wantKind(t, err, vaulterr.KindNotFound)
}

func TestDepositRejectsActingForAnotherDepositor(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	_, err := f.vault.Deposit(depositorCtx("bob"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100), Beneficiary: "alice",
	})
	wantKind(t, err, vaulterr.KindAuthorization)
}

func TestDepositRejectsSlippageOverrideAboveCeiling(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	_, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100), Beneficiary: "alice", SlippageBps: 500,
	})
	wantKind(t, err, vaulterr.KindValidation)
}

func TestDepositFailedConversionLeavesNoState(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	// A 3% execution fee undershoots every minimum output at the 2%
	// slippage ceiling, so the conversion leg fails.
	f.router.SetFeeBps(300)
	_, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(1000), Beneficiary: "alice",
	})
	wantKind(t, err, vaulterr.KindSlippageExceeded)

	pack, err := f.packs.GetPack(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	wantDecimal(t, "total shares after abort", pack.TotalShares, decimal.Zero)
	wantDecimal(t, "tvl after abort", pack.TotalValueLocked, decimal.Zero)
	for _, alloc := range pack.Allocations {
		wantDecimal(t, "balance after abort "+alloc.Asset, alloc.CurrentBalance, decimal.Zero)
	}

	// The failed attempt must not have consumed rate-limit quota either:
	// the full window cap still fits.
	f.router.SetFeeBps(0)
	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100000), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit after aborted attempt: %v", err)
	}
}

// rotatingRouter swaps the active oracle out from under the vault on its
// first conversion, mimicking an admin rotation landing mid-deposit.
type rotatingRouter struct {
	inner        swaprouter.SwapRouter
	capabilities *Capabilities
	replacement  oracle.PriceOracle
	rotated      bool
}

func (r *rotatingRouter) ExecuteSwap(ctx context.Context, req swaprouter.SwapRequest) (decimal.Decimal, error) {
	if !r.rotated {
		r.rotated = true
		r.capabilities.RotateOracle(r.replacement)
	}
	return r.inner.ExecuteSwap(ctx, req)
}

func (r *rotatingRouter) SimulateRoute(ctx context.Context, fromAsset, toAsset string, amountIn decimal.Decimal) (swaprouter.Quote, error) {
	return r.inner.SimulateRoute(ctx, fromAsset, toAsset, amountIn)
}

func (r *rotatingRouter) GetSupportedBridges(ctx context.Context) ([]string, error) {
	return r.inner.GetSupportedBridges(ctx)
}

func TestDepositUsesOneOracleDespiteMidFlightRotation(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	// The replacement oracle knows nothing beyond the settlement asset, so
	// any pricing against it after the first conversion would fail.
	replacement := oracle.NewStaticOracle(map[string]decimal.Decimal{
		testSettlement: decimal.NewFromInt(1),
	}, guard.DefaultDeviationBps)
	f.capabilities.RotateRouter(&rotatingRouter{
		inner:        f.router,
		capabilities: f.capabilities,
		replacement:  replacement,
	})

	result, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(1000), Beneficiary: "alice",
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	wantDecimal(t, "shares minted", result.SharesMinted, decimal.NewFromInt(1000))

	pack, err := f.packs.GetPack(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	for _, alloc := range pack.Allocations {
		switch alloc.Asset {
		case "BTC":
			wantDecimal(t, "btc balance", alloc.CurrentBalance, decimal.NewFromInt(6))
		case "ETH":
			wantDecimal(t, "eth balance", alloc.CurrentBalance, decimal.NewFromInt(40))
		}
	}

	// The rotation itself still landed for the next operation.
	if f.capabilities.Oracle() != replacement {
		t.Fatalf("expected rotated oracle to be active after the deposit")
	}
}

func TestDepositRateLimitWindow(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	base := time.Now()
	f.setNow(base)

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(60000), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("first deposit: %v", err)
	}

	_, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(50000), Beneficiary: "alice",
	})
	wantKind(t, err, vaulterr.KindLimitExceeded)

	// Another depositor has an independent window.
	if _, err := f.vault.Deposit(depositorCtx("bob"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(50000), Beneficiary: "bob",
	}); err != nil {
		t.Fatalf("other depositor: %v", err)
	}

	// Once the window expires the quota resets.
	f.setNow(base.Add(25 * time.Hour))
	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(50000), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit after window rollover: %v", err)
	}
}

func TestDepositRejectedWhilePaused(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if err := f.admin.Pause(adminCtx(), "incident"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	_, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100), Beneficiary: "alice",
	})
	wantKind(t, err, vaulterr.KindPaused)

	if err := f.admin.Unpause(adminCtx()); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit after unpause: %v", err)
	}
}

func TestDepositRejectsReentrantCall(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	ctx, release, err := f.callGuard.Enter(depositorCtx("alice"))
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	defer release()

	_, err = f.vault.Deposit(ctx, DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100), Beneficiary: "alice",
	})
	wantKind(t, err, vaulterr.KindReentrancy)
}

func TestWithdrawInKindProportional(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(1000), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	result, err := f.vault.Withdraw(depositorCtx("alice"), WithdrawInput{
		PackID:       "core",
		SharesToBurn: decimal.NewFromInt(250),
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	returned := map[string]decimal.Decimal{}
	for _, amount := range result.AmountsReturned {
		returned[amount.Asset] = amount.Amount
	}
	wantDecimal(t, "btc returned", returned["BTC"], decimal.NewFromFloat(1.5))
	wantDecimal(t, "eth returned", returned["ETH"], decimal.NewFromInt(10))

	pack, err := f.packs.GetPack(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	wantDecimal(t, "total shares", pack.TotalShares, decimal.NewFromInt(750))
	for _, alloc := range pack.Allocations {
		switch alloc.Asset {
		case "BTC":
			wantDecimal(t, "btc remaining", alloc.CurrentBalance, decimal.NewFromFloat(4.5))
		case "ETH":
			wantDecimal(t, "eth remaining", alloc.CurrentBalance, decimal.NewFromInt(30))
		}
	}
}

func TestWithdrawConvertToSettlement(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(1000), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	result, err := f.vault.Withdraw(depositorCtx("alice"), WithdrawInput{
		PackID:              "core",
		SharesToBurn:        decimal.NewFromInt(250),
		ConvertToSettlement: true,
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// 1.5 BTC * 100 + 10 ETH * 10 = 250 settlement units.
	wantDecimal(t, "settlement value", result.Record.SettlementValue, decimal.NewFromInt(250))
	if len(result.AmountsReturned) != 1 || result.AmountsReturned[0].Asset != testSettlement {
		t.Fatalf("expected single settlement payout, got %+v", result.AmountsReturned)
	}

	pack, err := f.packs.GetPack(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	wantDecimal(t, "tvl", pack.TotalValueLocked, decimal.NewFromInt(750))
}

func TestWithdrawFailedConversionLeavesNoState(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(1000), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// A 3% execution fee undershoots the minimum proceeds at the 2%
	// slippage ceiling, so the conversion leg fails and nothing burns.
	f.router.SetFeeBps(300)
	_, err := f.vault.Withdraw(depositorCtx("alice"), WithdrawInput{
		PackID:              "core",
		SharesToBurn:        decimal.NewFromInt(250),
		ConvertToSettlement: true,
	})
	wantKind(t, err, vaulterr.KindSlippageExceeded)

	pack, err := f.packs.GetPack(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("get pack: %v", err)
	}
	wantDecimal(t, "total shares after abort", pack.TotalShares, decimal.NewFromInt(1000))
	for _, alloc := range pack.Allocations {
		switch alloc.Asset {
		case "BTC":
			wantDecimal(t, "btc balance after abort", alloc.CurrentBalance, decimal.NewFromInt(6))
		case "ETH":
			wantDecimal(t, "eth balance after abort", alloc.CurrentBalance, decimal.NewFromInt(40))
		}
	}

	value, err := f.packs.GetUserValue(depositorCtx("alice"), "core", "alice")
	if err != nil {
		t.Fatalf("get user value: %v", err)
	}
	wantDecimal(t, "position after abort", value, decimal.NewFromInt(1000))
}

func TestWithdrawRejectsInsufficientShares(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	_, err := f.vault.Withdraw(depositorCtx("alice"), WithdrawInput{
		PackID:       "core",
		SharesToBurn: decimal.NewFromInt(101),
	})
	wantKind(t, err, vaulterr.KindValidation)

	_, err = f.vault.Withdraw(depositorCtx("bob"), WithdrawInput{
		PackID:       "core",
		SharesToBurn: decimal.NewFromInt(1),
	})
	wantKind(t, err, vaulterr.KindValidation)
}

func TestWithdrawRejectedWhilePaused(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := f.admin.Pause(adminCtx(), "incident"); err != nil {
		t.Fatalf("pause: %v", err)
	}

	_, err := f.vault.Withdraw(depositorCtx("alice"), WithdrawInput{
		PackID:       "core",
		SharesToBurn: decimal.NewFromInt(10),
	})
	wantKind(t, err, vaulterr.KindPaused)
}

func TestOperatorCanWithdrawForDepositor(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(100), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	result, err := f.vault.Withdraw(ctxFor("desk-operator", "operator"), WithdrawInput{
		PackID:       "core",
		SharesToBurn: decimal.NewFromInt(50),
		Depositor:    "alice",
	})
	if err != nil {
		t.Fatalf("operator withdraw: %v", err)
	}
	if result.Record.Depositor != "alice" {
		t.Fatalf("record depositor: want=alice got=%s", result.Record.Depositor)
	}
}
