package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/clients/swaprouter"
	"github.com/packlabs/packvault-backend/internal/db"
	"github.com/packlabs/packvault-backend/internal/guard"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/observability"
	"github.com/packlabs/packvault-backend/internal/repos"
	"github.com/packlabs/packvault-backend/internal/requestdata"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	t.Cleanup(func() { log.Sync() })
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

// testFixture wires the full service stack over an in-memory database, a
// static oracle, and an oracle-priced router with zero fee so conversion
// arithmetic is exact.
type testFixture struct {
	db           *gorm.DB
	oracle       *oracle.StaticOracle
	router       *swaprouter.OracleSwapRouter
	capabilities *Capabilities
	callGuard    *CallGuard
	packs        PackService
	vault        VaultService
	admin        AdminService

	vaultImpl *vaultService
	adminImpl *adminService
}

const (
	testSettlement = "USDC"
	testCooldown   = 7 * 24 * time.Hour
)

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	log := newTestLogger(t)
	gdb := newTestDB(t)

	staticOracle := oracle.NewStaticOracle(map[string]decimal.Decimal{
		testSettlement: decimal.NewFromInt(1),
		"BTC":          decimal.NewFromInt(100),
		"ETH":          decimal.NewFromInt(10),
	}, guard.DefaultDeviationBps)
	router := swaprouter.NewOracleSwapRouter(staticOracle, testSettlement, 0)

	metrics := observability.NewMetrics()
	capabilities := NewCapabilities(staticOracle, router)
	policy := authz.NewPolicy()
	callGuard := NewCallGuard()
	priceGuard := guard.New(log, metrics, guard.DefaultMaxSlippageBps, guard.DefaultDeviationBps)

	packRepo := repos.NewPackRepo(gdb, log)
	shareRepo := repos.NewSharePositionRepo(gdb, log)
	rateRepo := repos.NewRateLimitRepo(gdb, log)
	recordRepo := repos.NewRecordRepo(gdb, log)
	stateRepo := repos.NewVaultStateRepo(gdb, log)
	orphanRepo := repos.NewOrphanedBalanceRepo(gdb, log)

	packService := NewPackService(gdb, log, packRepo, shareRepo, recordRepo, capabilities, policy, callGuard, metrics, nil)
	vaultSvc := NewVaultService(gdb, log, packRepo, shareRepo, rateRepo, recordRepo, stateRepo,
		capabilities, priceGuard, policy, callGuard, metrics, nil,
		VaultConfig{
			SettlementAsset: testSettlement,
			MaxDailyDeposit: decimal.NewFromInt(100000),
			RateLimitWindow: 24 * time.Hour,
			SwapDeadline:    time.Minute,
		},
	)
	adminSvc := NewAdminService(gdb, log, packRepo, orphanRepo, recordRepo, stateRepo,
		capabilities, policy, callGuard, metrics, nil, nil, nil, testCooldown)

	return &testFixture{
		db:           gdb,
		oracle:       staticOracle,
		router:       router,
		capabilities: capabilities,
		callGuard:    callGuard,
		packs:        packService,
		vault:        vaultSvc,
		admin:        adminSvc,
		vaultImpl:    vaultSvc.(*vaultService),
		adminImpl:    adminSvc.(*adminService),
	}
}

func (f *testFixture) setNow(now time.Time) {
	f.vaultImpl.now = func() time.Time { return now }
	f.adminImpl.now = func() time.Time { return now }
}

func (f *testFixture) createStandardPack(t *testing.T, id string) {
	t.Helper()
	_, err := f.packs.CreatePack(adminCtx(), id, "Test Pack", []AllocationSpec{
		{Asset: "BTC", WeightBps: 6000},
		{Asset: "ETH", WeightBps: 4000},
	})
	if err != nil {
		t.Fatalf("create pack %s: %v", id, err)
	}
}

func adminCtx() context.Context {
	return ctxFor("ops-admin", authz.RoleAdmin)
}

func depositorCtx(subject string) context.Context {
	return ctxFor(subject, authz.RoleDepositor)
}

func ctxFor(subject string, role authz.Role) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		Subject: subject,
		Role:    role,
	})
}

func wantKind(t *testing.T, err error, kind vaulterr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := vaulterr.KindOf(err); got != kind {
		t.Fatalf("error kind: want=%s got=%s (%v)", kind, got, err)
	}
}

func wantDecimal(t *testing.T, label string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s: want=%s got=%s", label, want, got)
	}
}
