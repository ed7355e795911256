package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

func TestCreatePackRejectsBadWeights(t *testing.T) {
	f := newTestFixture(t)

	cases := []struct {
		name        string
		allocations []AllocationSpec
		code        string
	}{
		{
			name:        "empty",
			allocations: nil,
			code:        "empty_allocations",
		},
		{
			name: "sum below scale",
			allocations: []AllocationSpec{
				{Asset: "BTC", WeightBps: 5000},
				{Asset: "ETH", WeightBps: 4000},
			},
			code: "invalid_weight_sum",
		},
		{
			name: "sum above scale",
			allocations: []AllocationSpec{
				{Asset: "BTC", WeightBps: 6000},
				{Asset: "ETH", WeightBps: 5000},
			},
			code: "invalid_weight_sum",
		},
		{
			name: "zero weight",
			allocations: []AllocationSpec{
				{Asset: "BTC", WeightBps: 10000},
				{Asset: "ETH", WeightBps: 0},
			},
			code: "invalid_weight",
		},
		{
			name: "duplicate asset",
			allocations: []AllocationSpec{
				{Asset: "BTC", WeightBps: 5000},
				{Asset: "BTC", WeightBps: 5000},
			},
			code: "duplicate_asset",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.packs.CreatePack(adminCtx(), "bad", "Bad Pack", tc.allocations)
			wantKind(t, err, vaulterr.KindValidation)
			if got := vaulterr.CodeOf(err); got != tc.code {
				t.Fatalf("code: want=%s got=%s", tc.code, got)
			}
		})
	}

	// A rejected creation leaves nothing behind, so the same id is free
	// for a corrected retry.
	if _, err := f.packs.CreatePack(adminCtx(), "bad", "Fixed Pack", []AllocationSpec{
		{Asset: "BTC", WeightBps: 6000},
		{Asset: "ETH", WeightBps: 4000},
	}); err != nil {
		t.Fatalf("retry after rejection: %v", err)
	}
}

func TestCreatePackRejectsDuplicateID(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	_, err := f.packs.CreatePack(adminCtx(), "core", "Again", []AllocationSpec{
		{Asset: "BTC", WeightBps: 10000},
	})
	wantKind(t, err, vaulterr.KindValidation)
	if got := vaulterr.CodeOf(err); got != "pack_exists" {
		t.Fatalf("code: want=pack_exists got=%s", got)
	}
}

func TestCreatePackRequiresAdmin(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.packs.CreatePack(depositorCtx("alice"), "core", "Test", []AllocationSpec{
		{Asset: "BTC", WeightBps: 10000},
	})
	wantKind(t, err, vaulterr.KindAuthorization)
}

func TestGetPackValuePricesHoldings(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	value, err := f.packs.GetPackValue(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("empty pack value: %v", err)
	}
	wantDecimal(t, "empty pack value", value, decimal.Zero)

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(1000), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	value, err = f.packs.GetPackValue(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("pack value: %v", err)
	}
	wantDecimal(t, "pack value", value, decimal.NewFromInt(1000))

	// Holdings are repriced at current quotes: 6*150 + 40*10 = 1300.
	f.oracle.SetPrice("BTC", decimal.NewFromInt(150))
	value, err = f.packs.GetPackValue(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("pack value after move: %v", err)
	}
	wantDecimal(t, "pack value after move", value, decimal.NewFromInt(1300))
}

func TestGetUserValueIsShareProportional(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(750), Beneficiary: "alice",
	}); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if _, err := f.vault.Deposit(depositorCtx("bob"), DepositInput{
		PackID: "core", Amount: decimal.NewFromInt(250), Beneficiary: "bob",
	}); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}

	aliceValue, err := f.packs.GetUserValue(depositorCtx("alice"), "core", "alice")
	if err != nil {
		t.Fatalf("alice value: %v", err)
	}
	wantDecimal(t, "alice value", aliceValue, decimal.NewFromInt(750))

	noneValue, err := f.packs.GetUserValue(depositorCtx("carol"), "core", "carol")
	if err != nil {
		t.Fatalf("carol value: %v", err)
	}
	wantDecimal(t, "carol value", noneValue, decimal.Zero)
}

func TestListDepositsReturnsAuditTrail(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "core")

	for _, amount := range []int64{100, 200} {
		if _, err := f.vault.Deposit(depositorCtx("alice"), DepositInput{
			PackID: "core", Amount: decimal.NewFromInt(amount), Beneficiary: "alice", ReferenceID: "wire-1",
		}); err != nil {
			t.Fatalf("deposit %d: %v", amount, err)
		}
	}

	records, err := f.packs.ListDeposits(depositorCtx("alice"), "core")
	if err != nil {
		t.Fatalf("list deposits: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: want=2 got=%d", len(records))
	}
	for _, record := range records {
		if record.Depositor != "alice" || record.ReferenceID != "wire-1" {
			t.Fatalf("unexpected record: %+v", record)
		}
	}
}

func TestListPackIDs(t *testing.T) {
	f := newTestFixture(t)
	f.createStandardPack(t, "alpha")
	f.createStandardPack(t, "beta")

	ids, err := f.packs.ListPackIDs(depositorCtx("alice"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("pack ids: want=2 got=%d (%v)", len(ids), ids)
	}
}
