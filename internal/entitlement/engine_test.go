package entitlement

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/memoirbase/memoirbase/internal/db"
	"github.com/memoirbase/memoirbase/internal/metric"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestEngine(t *testing.T) (*gorm.DB, *Engine) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "memoirbase-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn, NewEngine(conn)
}

func createTestUser(t *testing.T, conn *gorm.DB, email string) uint64 {
	t.Helper()
	user := models.User{Email: email, Password: "x", Active: true}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return user.ID
}

func TestPeriodStart(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "mid month",
			in:   time.Date(2026, 3, 17, 15, 4, 5, 0, time.UTC),
			want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "first instant maps to itself",
			in:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "zone converted before pinning",
			in:   time.Date(2026, 4, 1, 3, 0, 0, 0, loc),
			want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		if got := PeriodStart(tc.in); !got.Equal(tc.want) {
			t.Fatalf("%s: PeriodStart(%v) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestResolver_CreatesFreeSubscription(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "resolver@example.com")

	sub, errResolve := engine.Resolver().Resolve(context.Background(), userID)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if sub.PlanKey != db.FreePlanKey {
		t.Fatalf("plan key = %q, want %q", sub.PlanKey, db.FreePlanKey)
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active", sub.Status)
	}

	// Repeated resolutions must reuse the same row.
	again, errAgain := engine.Resolver().Resolve(context.Background(), userID)
	if errAgain != nil {
		t.Fatalf("second resolve: %v", errAgain)
	}
	if again.ID != sub.ID {
		t.Fatalf("second resolve returned row %d, want %d", again.ID, sub.ID)
	}

	var count int64
	if errCount := conn.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&count).Error; errCount != nil {
		t.Fatalf("count subscriptions: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("subscription rows = %d, want 1", count)
	}
}

func TestResolver_ConcurrentFirstResolve(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "race@example.com")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, errResolve := engine.Resolver().Resolve(context.Background(), userID); errResolve != nil {
				errs <- errResolve
			}
		}()
	}
	wg.Wait()
	close(errs)
	for errResolve := range errs {
		t.Fatalf("concurrent resolve: %v", errResolve)
	}

	var count int64
	if errCount := conn.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&count).Error; errCount != nil {
		t.Fatalf("count subscriptions: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("subscription rows = %d, want 1", count)
	}
}

func TestCheck_FreshUserUsesPlanAllowance(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "fresh@example.com")

	result, errCheck := engine.Check(context.Background(), userID, metric.Memories)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if !result.Allowed {
		t.Fatalf("expected fresh user to be allowed")
	}
	if result.Limit != 10 || result.Used != 0 {
		t.Fatalf("limit/used = %d/%d, want 10/0", result.Limit, result.Used)
	}
	if result.Source != SourcePlan {
		t.Fatalf("source = %q, want plan", result.Source)
	}
}

func TestCheck_InvalidMetric(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "invalid@example.com")

	if _, errCheck := engine.Check(context.Background(), userID, metric.Metric("bogus")); !errors.Is(errCheck, metric.ErrInvalidMetric) {
		t.Fatalf("check error = %v, want ErrInvalidMetric", errCheck)
	}
	if errTrack := engine.Track(context.Background(), userID, metric.Metric("bogus"), 1); !errors.Is(errTrack, metric.ErrInvalidMetric) {
		t.Fatalf("track error = %v, want ErrInvalidMetric", errTrack)
	}
}

func TestCheck_UnlimitedPlan(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "legacy@example.com")

	if errAssign := engine.Resolver().Assign(context.Background(), userID, "legacy", models.BillingCycleMonthly, nil, false); errAssign != nil {
		t.Fatalf("assign: %v", errAssign)
	}
	for i := 0; i < 3; i++ {
		if errTrack := engine.Track(context.Background(), userID, metric.AICalls, 1); errTrack != nil {
			t.Fatalf("track: %v", errTrack)
		}
	}

	result, errCheck := engine.Check(context.Background(), userID, metric.AICalls)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if !result.Allowed || result.Source != SourceUnlimited {
		t.Fatalf("result = %+v, want allowed unlimited", result)
	}
	if result.Limit != metric.Unlimited || result.Used != 3 {
		t.Fatalf("limit/used = %d/%d, want -1/3", result.Limit, result.Used)
	}
}

func TestCheck_DeniesWhenPlanExhausted(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "exhausted@example.com")

	for i := 0; i < 5; i++ {
		if errTrack := engine.Track(context.Background(), userID, metric.AICalls, 1); errTrack != nil {
			t.Fatalf("track %d: %v", i, errTrack)
		}
	}

	result, errCheck := engine.Check(context.Background(), userID, metric.AICalls)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if result.Allowed {
		t.Fatalf("expected denial at the plan limit")
	}
	if result.Limit != 5 || result.Used != 5 || result.Source != SourcePlan {
		t.Fatalf("result = %+v, want limit 5 used 5 source plan", result)
	}
}

func TestCheck_ZeroLimitMetricDenied(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "zero@example.com")

	result, errCheck := engine.Check(context.Background(), userID, metric.AudioExports)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if result.Allowed {
		t.Fatalf("expected denial for zero-limit metric")
	}
}

func TestCheck_AddonExtendsExhaustedPlan(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "addon@example.com")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if errTrack := engine.Track(ctx, userID, metric.AICalls, 1); errTrack != nil {
			t.Fatalf("track %d: %v", i, errTrack)
		}
	}

	addon, errAddon := engine.Catalog().AddonByKey(ctx, "ai_pack_50")
	if errAddon != nil {
		t.Fatalf("addon by key: %v", errAddon)
	}
	instance, errGrant := engine.Addons().Grant(ctx, userID, addon, time.Now().UTC())
	if errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	errPatch := conn.Model(&models.UserAddon{}).Where("id = ?", instance.ID).
		Update("remaining", datatypes.JSONMap{"ai_calls": 3}).Error
	if errPatch != nil {
		t.Fatalf("patch remaining: %v", errPatch)
	}

	result, errCheck := engine.Check(ctx, userID, metric.AICalls)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if !result.Allowed || result.Source != SourceAddon {
		t.Fatalf("result = %+v, want allowed via addon", result)
	}
	if result.Limit != 8 || result.Used != 5 {
		t.Fatalf("limit/used = %d/%d, want 8/5", result.Limit, result.Used)
	}

	// Tracking draws from the addon; the plan counter must not move.
	if errTrack := engine.Track(ctx, userID, metric.AICalls, 1); errTrack != nil {
		t.Fatalf("track: %v", errTrack)
	}

	var patched models.UserAddon
	if errFind := conn.First(&patched, instance.ID).Error; errFind != nil {
		t.Fatalf("reload instance: %v", errFind)
	}
	if remaining := patched.RemainingFor("ai_calls"); remaining != 2 {
		t.Fatalf("remaining = %d, want 2", remaining)
	}
	used, errUsage := engine.Usage().CurrentUsage(ctx, userID, metric.AICalls, time.Now())
	if errUsage != nil {
		t.Fatalf("current usage: %v", errUsage)
	}
	if used != 5 {
		t.Fatalf("used = %d, want 5", used)
	}
}

func TestTrack_FallsBackToPlanWhenAddonDrained(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "drain@example.com")
	ctx := context.Background()

	addon, errAddon := engine.Catalog().AddonByKey(ctx, "ai_pack_50")
	if errAddon != nil {
		t.Fatalf("addon by key: %v", errAddon)
	}
	instance, errGrant := engine.Addons().Grant(ctx, userID, addon, time.Now().UTC())
	if errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	errPatch := conn.Model(&models.UserAddon{}).Where("id = ?", instance.ID).
		Update("remaining", datatypes.JSONMap{"ai_calls": 1}).Error
	if errPatch != nil {
		t.Fatalf("patch remaining: %v", errPatch)
	}

	// First track drains the addon, second lands on the plan counter.
	for i := 0; i < 2; i++ {
		if errTrack := engine.Track(ctx, userID, metric.AICalls, 1); errTrack != nil {
			t.Fatalf("track %d: %v", i, errTrack)
		}
	}

	used, errUsage := engine.Usage().CurrentUsage(ctx, userID, metric.AICalls, time.Now())
	if errUsage != nil {
		t.Fatalf("current usage: %v", errUsage)
	}
	if used != 1 {
		t.Fatalf("used = %d, want 1", used)
	}
	capacity, errCapacity := engine.Addons().Capacity(ctx, userID, metric.AICalls, time.Now())
	if errCapacity != nil {
		t.Fatalf("capacity: %v", errCapacity)
	}
	if capacity != 0 {
		t.Fatalf("capacity = %d, want 0", capacity)
	}
}

func TestTrack_OverdrawLeavesNegativeBalance(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "overdraw@example.com")
	ctx := context.Background()

	addon, errAddon := engine.Catalog().AddonByKey(ctx, "ai_pack_50")
	if errAddon != nil {
		t.Fatalf("addon by key: %v", errAddon)
	}
	instance, errGrant := engine.Addons().Grant(ctx, userID, addon, time.Now().UTC())
	if errGrant != nil {
		t.Fatalf("grant: %v", errGrant)
	}
	errPatch := conn.Model(&models.UserAddon{}).Where("id = ?", instance.ID).
		Update("remaining", datatypes.JSONMap{"ai_calls": 3}).Error
	if errPatch != nil {
		t.Fatalf("patch remaining: %v", errPatch)
	}

	if errTrack := engine.Track(ctx, userID, metric.AICalls, 5); errTrack != nil {
		t.Fatalf("track: %v", errTrack)
	}

	var patched models.UserAddon
	if errFind := conn.First(&patched, instance.ID).Error; errFind != nil {
		t.Fatalf("reload instance: %v", errFind)
	}
	if remaining := patched.RemainingFor("ai_calls"); remaining != -2 {
		t.Fatalf("remaining = %d, want -2", remaining)
	}
	capacity, errCapacity := engine.Addons().Capacity(ctx, userID, metric.AICalls, time.Now())
	if errCapacity != nil {
		t.Fatalf("capacity: %v", errCapacity)
	}
	if capacity != 0 {
		t.Fatalf("capacity = %d, want 0 (negative balances must not count)", capacity)
	}
}

func TestTrack_ExpiredAddonIgnored(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "expired@example.com")
	ctx := context.Background()

	addon, errAddon := engine.Catalog().AddonByKey(ctx, "ai_pack_50")
	if errAddon != nil {
		t.Fatalf("addon by key: %v", errAddon)
	}
	past := time.Now().UTC().Add(-48 * time.Hour)
	expired := models.UserAddon{
		UserID:    userID,
		AddonID:   addon.ID,
		Remaining: datatypes.JSONMap{"ai_calls": 50},
		GrantedAt: past.Add(-30 * 24 * time.Hour),
		ExpiresAt: &past,
	}
	if errCreate := conn.Create(&expired).Error; errCreate != nil {
		t.Fatalf("create expired instance: %v", errCreate)
	}

	capacity, errCapacity := engine.Addons().Capacity(ctx, userID, metric.AICalls, time.Now())
	if errCapacity != nil {
		t.Fatalf("capacity: %v", errCapacity)
	}
	if capacity != 0 {
		t.Fatalf("capacity = %d, want 0 for expired addon", capacity)
	}

	if errTrack := engine.Track(ctx, userID, metric.AICalls, 1); errTrack != nil {
		t.Fatalf("track: %v", errTrack)
	}

	var reloaded models.UserAddon
	if errFind := conn.First(&reloaded, expired.ID).Error; errFind != nil {
		t.Fatalf("reload instance: %v", errFind)
	}
	if remaining := reloaded.RemainingFor("ai_calls"); remaining != 50 {
		t.Fatalf("expired balance moved: remaining = %d, want 50", remaining)
	}
	used, errUsage := engine.Usage().CurrentUsage(ctx, userID, metric.AICalls, time.Now())
	if errUsage != nil {
		t.Fatalf("current usage: %v", errUsage)
	}
	if used != 1 {
		t.Fatalf("used = %d, want 1", used)
	}
}

func TestTrack_SoonestExpiryDrawnFirst(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "ordering@example.com")
	ctx := context.Background()

	addon, errAddon := engine.Catalog().AddonByKey(ctx, "ai_pack_50")
	if errAddon != nil {
		t.Fatalf("addon by key: %v", errAddon)
	}
	now := time.Now().UTC()
	soon := now.Add(24 * time.Hour)
	later := now.Add(60 * 24 * time.Hour)
	first := models.UserAddon{
		UserID:    userID,
		AddonID:   addon.ID,
		Remaining: datatypes.JSONMap{"ai_calls": 5},
		GrantedAt: now,
		ExpiresAt: &soon,
	}
	second := models.UserAddon{
		UserID:    userID,
		AddonID:   addon.ID,
		Remaining: datatypes.JSONMap{"ai_calls": 5},
		GrantedAt: now,
		ExpiresAt: &later,
	}
	if errCreate := conn.Create(&second).Error; errCreate != nil {
		t.Fatalf("create later instance: %v", errCreate)
	}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create soon instance: %v", errCreate)
	}

	if errTrack := engine.Track(ctx, userID, metric.AICalls, 1); errTrack != nil {
		t.Fatalf("track: %v", errTrack)
	}

	var reloadedFirst, reloadedSecond models.UserAddon
	if errFind := conn.First(&reloadedFirst, first.ID).Error; errFind != nil {
		t.Fatalf("reload soon instance: %v", errFind)
	}
	if errFind := conn.First(&reloadedSecond, second.ID).Error; errFind != nil {
		t.Fatalf("reload later instance: %v", errFind)
	}
	if remaining := reloadedFirst.RemainingFor("ai_calls"); remaining != 4 {
		t.Fatalf("soonest-expiry balance = %d, want 4", remaining)
	}
	if remaining := reloadedSecond.RemainingFor("ai_calls"); remaining != 5 {
		t.Fatalf("later-expiry balance = %d, want 5", remaining)
	}
}

func TestTrack_RepeatedIncrements(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "counter@example.com")
	ctx := context.Background()

	const times = 7
	for i := 0; i < times; i++ {
		if errTrack := engine.Track(ctx, userID, metric.Memories, 1); errTrack != nil {
			t.Fatalf("track %d: %v", i, errTrack)
		}
	}

	used, errUsage := engine.Usage().CurrentUsage(ctx, userID, metric.Memories, time.Now())
	if errUsage != nil {
		t.Fatalf("current usage: %v", errUsage)
	}
	if used != times {
		t.Fatalf("used = %d, want %d", used, times)
	}

	var count int64
	if errCount := conn.Model(&models.UsageRecord{}).Where("user_id = ?", userID).Count(&count).Error; errCount != nil {
		t.Fatalf("count usage rows: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("usage rows = %d, want 1", count)
	}
}

func TestTrack_ConcurrentIncrements(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "parallel@example.com")
	ctx := context.Background()

	const workers = 8
	trackErrs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trackErrs <- engine.Track(ctx, userID, metric.Memories, 1)
		}()
	}
	wg.Wait()
	close(trackErrs)
	for errTrack := range trackErrs {
		if errTrack != nil {
			t.Fatalf("track: %v", errTrack)
		}
	}

	used, errUsage := engine.Usage().CurrentUsage(ctx, userID, metric.Memories, time.Now())
	if errUsage != nil {
		t.Fatalf("current usage: %v", errUsage)
	}
	if used != workers {
		t.Fatalf("used = %d, want %d", used, workers)
	}

	var count int64
	if errCount := conn.Model(&models.UsageRecord{}).Where("user_id = ?", userID).Count(&count).Error; errCount != nil {
		t.Fatalf("count usage rows: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("usage rows = %d, want 1", count)
	}
}

func TestTrack_ZeroAmountCountsAsOne(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "defaultamount@example.com")
	ctx := context.Background()

	if errTrack := engine.Track(ctx, userID, metric.Memories, 0); errTrack != nil {
		t.Fatalf("track: %v", errTrack)
	}
	used, errUsage := engine.Usage().CurrentUsage(ctx, userID, metric.Memories, time.Now())
	if errUsage != nil {
		t.Fatalf("current usage: %v", errUsage)
	}
	if used != 1 {
		t.Fatalf("used = %d, want 1", used)
	}
}

func TestUsage_PeriodRollover(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "rollover@example.com")
	ctx := context.Background()

	march := time.Date(2026, 3, 28, 10, 0, 0, 0, time.UTC)
	engine.nowFn = func() time.Time { return march }
	for i := 0; i < 4; i++ {
		if errTrack := engine.Track(ctx, userID, metric.AICalls, 1); errTrack != nil {
			t.Fatalf("track: %v", errTrack)
		}
	}

	april := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	engine.nowFn = func() time.Time { return april }

	result, errCheck := engine.Check(ctx, userID, metric.AICalls)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if !result.Allowed || result.Used != 0 {
		t.Fatalf("result = %+v, want allowed with used 0 after rollover", result)
	}

	marchUsed, errUsage := engine.Usage().CurrentUsage(ctx, userID, metric.AICalls, march)
	if errUsage != nil {
		t.Fatalf("march usage: %v", errUsage)
	}
	if marchUsed != 4 {
		t.Fatalf("march usage = %d, want 4", marchUsed)
	}
}

func TestCheck_FailsClosedWhenPlanMissing(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "ghostplan@example.com")

	sub := models.Subscription{
		UserID:  userID,
		PlanKey: "retired_tier",
		Status:  models.SubscriptionStatusActive,
	}
	if errCreate := conn.Create(&sub).Error; errCreate != nil {
		t.Fatalf("create subscription: %v", errCreate)
	}

	result, errCheck := engine.Check(context.Background(), userID, metric.Memories)
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if result.Allowed {
		t.Fatalf("expected fail-closed denial when the plan cannot resolve")
	}
	if result.Source != SourcePlan {
		t.Fatalf("source = %q, want plan", result.Source)
	}
}

func TestSummary_ReportsAllMetrics(t *testing.T) {
	conn, engine := newTestEngine(t)
	userID := createTestUser(t, conn, "summary@example.com")
	ctx := context.Background()

	if errTrack := engine.Track(ctx, userID, metric.Memories, 2); errTrack != nil {
		t.Fatalf("track: %v", errTrack)
	}

	summaries, errSummary := engine.Summary(ctx, userID)
	if errSummary != nil {
		t.Fatalf("summary: %v", errSummary)
	}
	if len(summaries) != len(metric.All()) {
		t.Fatalf("summaries = %d, want %d", len(summaries), len(metric.All()))
	}
	byMetric := map[metric.Metric]MetricSummary{}
	for _, s := range summaries {
		byMetric[s.Metric] = s
	}
	if got := byMetric[metric.Memories]; got.Used != 2 || got.Limit != 10 {
		t.Fatalf("memories summary = %+v, want used 2 limit 10", got)
	}
	if got := byMetric[metric.AICalls]; got.Used != 0 || got.Limit != 5 {
		t.Fatalf("ai_calls summary = %+v, want used 0 limit 5", got)
	}
}

func TestCatalog_PlanByKey(t *testing.T) {
	_, engine := newTestEngine(t)
	ctx := context.Background()

	plan, errPlan := engine.Catalog().PlanByKey(ctx, "storyteller")
	if errPlan != nil {
		t.Fatalf("plan by key: %v", errPlan)
	}
	if plan.LimitFor("ai_calls") != 100 {
		t.Fatalf("storyteller ai_calls limit = %d, want 100", plan.LimitFor("ai_calls"))
	}
	if !plan.FeatureEnabled(models.FeatureDocumentExport) {
		t.Fatalf("storyteller should enable document export")
	}

	if _, errMissing := engine.Catalog().PlanByKey(ctx, "nope"); !errors.Is(errMissing, ErrPlanNotFound) {
		t.Fatalf("error = %v, want ErrPlanNotFound", errMissing)
	}
	if _, errMissing := engine.Catalog().AddonByKey(ctx, "nope"); !errors.Is(errMissing, ErrAddonNotFound) {
		t.Fatalf("error = %v, want ErrAddonNotFound", errMissing)
	}
}

func TestCatalog_ListPlansOrdersByPrice(t *testing.T) {
	conn, engine := newTestEngine(t)
	ctx := context.Background()

	disabled := models.Plan{Key: "hidden", Name: "Hidden", MonthPrice: 1, IsEnabled: false}
	if errCreate := conn.Create(&disabled).Error; errCreate != nil {
		t.Fatalf("create disabled plan: %v", errCreate)
	}

	plans, errList := engine.Catalog().ListPlans(ctx)
	if errList != nil {
		t.Fatalf("list plans: %v", errList)
	}
	if len(plans) != 3 {
		t.Fatalf("plans = %d, want 3 (disabled excluded)", len(plans))
	}
	for i := 1; i < len(plans); i++ {
		if plans[i-1].MonthPrice > plans[i].MonthPrice {
			t.Fatalf("plans out of price order: %v before %v", plans[i-1].MonthPrice, plans[i].MonthPrice)
		}
	}
}
