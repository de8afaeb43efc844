package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/config"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// --- in-memory fakes ---

type fakeLedgerStore struct {
	mu      sync.Mutex
	ledgers map[string]model.EngagementLedger

	// conflictsLeft injects ErrLedgerConflict on the next N Puts.
	conflictsLeft int
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{ledgers: make(map[string]model.EngagementLedger)}
}

func (f *fakeLedgerStore) key(videoID, userID string) string {
	return videoID + "|" + userID
}

func (f *fakeLedgerStore) Get(_ context.Context, videoID, userID string) (*model.EngagementLedger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.ledgers[f.key(videoID, userID)]
	if !ok {
		return nil, nil
	}
	cp := l
	return &cp, nil
}

func (f *fakeLedgerStore) Put(_ context.Context, ledger *model.EngagementLedger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return model.ErrLedgerConflict
	}
	key := f.key(ledger.VideoID, ledger.UserID)
	stored, exists := f.ledgers[key]
	if ledger.Version == 0 {
		if exists {
			return model.ErrLedgerConflict
		}
		ledger.Version = 1
	} else {
		if !exists || stored.Version != ledger.Version {
			return model.ErrLedgerConflict
		}
		ledger.Version++
	}
	f.ledgers[key] = *ledger
	return nil
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]*model.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]*model.Video)}
}

func (f *fakeVideoStore) add(videoID, creatorID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[videoID] = &model.Video{VideoID: videoID, CreatorID: creatorID}
}

func (f *fakeVideoStore) Get(_ context.Context, videoID string) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVideoStore) ApplyDeltas(_ context.Context, videoID string, d model.VideoDeltas) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[videoID]
	if !ok {
		return nil
	}
	v.HypeCount += d.Hype
	v.CoolCount += d.Cool
	v.TotalClout += d.Clout
	return nil
}

func (f *fakeVideoStore) counters(videoID string) (hype, cool, clout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.videos[videoID]
	return v.HypeCount, v.CoolCount, v.TotalClout
}

type fakeUserStore struct {
	mu       sync.Mutex
	balances map[string]float64
	clout    map[string]int
	touched  int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		balances: make(map[string]float64),
		clout:    make(map[string]int),
	}
}

func (f *fakeUserStore) setBalance(userID string, balance float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = balance
}

func (f *fakeUserStore) balance(userID string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func (f *fakeUserStore) creatorClout(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clout[userID]
}

func (f *fakeUserStore) CanAfford(_ context.Context, userID string, cost float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID] >= cost, nil
}

func (f *fakeUserStore) Deduct(_ context.Context, userID string, cost float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] -= cost
	return nil
}

func (f *fakeUserStore) Restore(_ context.Context, userID string, cost float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] += cost
	return nil
}

func (f *fakeUserStore) CreditClout(_ context.Context, creatorID string, delta int, _ model.EngagementSide) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clout[creatorID] += delta
	return nil
}

func (f *fakeUserStore) TouchActivity(_ context.Context, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched++
	return nil
}

type fakeEventLog struct {
	mu     sync.Mutex
	events int
}

func (f *fakeEventLog) RecordEngagement(_ context.Context, _, _, _ string, _ model.EngagementSide, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events++
	return nil
}

type fakeNotifySink struct {
	mu   sync.Mutex
	sent []Notification
}

func (f *fakeNotifySink) Notify(_ context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

// --- harness ---

type engagementFixture struct {
	svc     *EngagementService
	ledgers *fakeLedgerStore
	videos  *fakeVideoStore
	users   *fakeUserStore
	events  *fakeEventLog
	notify  *fakeNotifySink
	cfg     *config.Config
}

func newEngagementFixture(t *testing.T, mutate func(*config.Config)) *engagementFixture {
	t.Helper()

	cfg := config.Load()
	cfg.Cooldown = 0 // tests drive taps back to back; re-enabled where tested
	if mutate != nil {
		mutate(cfg)
	}

	f := &engagementFixture{
		ledgers: newFakeLedgerStore(),
		videos:  newFakeVideoStore(),
		users:   newFakeUserStore(),
		events:  &fakeEventLog{},
		notify:  &fakeNotifySink{},
		cfg:     cfg,
	}
	tiers := NewTierService()
	f.svc = NewEngagementService(
		f.ledgers, f.videos, f.users, f.events, f.notify,
		NewRewardService(tiers, cfg), tiers,
		nil, // troll advisories exercised in their own tests
		NewCacheService(""),
		cfg,
	)

	f.videos.add("vid-1", "beef01")
	f.users.setBalance("abc123", 100)
	return f
}

func hypeInput(tier model.Tier, isBurst bool) SubmitInput {
	return SubmitInput{
		VideoID:   "vid-1",
		UserID:    "abc123",
		CreatorID: "beef01",
		Tier:      tier,
		Side:      model.SideHype,
		IsBurst:   isBurst,
	}
}

func wantRejection(t *testing.T, err error, reason model.RejectionReason) {
	t.Helper()
	rej, ok := model.AsRejection(err)
	if !ok {
		t.Fatalf("got error %v, want rejection %s", err, reason)
	}
	if rej.Reason != reason {
		t.Fatalf("got rejection %s, want %s", rej.Reason, reason)
	}
}

// --- tests ---

func TestSubmitFirstHype(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	out, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false))
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if !out.Success {
		t.Error("outcome not successful")
	}
	if out.CloutAwarded != 3 {
		t.Errorf("CloutAwarded = %d, want 3", out.CloutAwarded)
	}
	if out.VisualIncrement != 1 {
		t.Errorf("VisualIncrement = %d, want 1", out.VisualIncrement)
	}
	if out.NewHypeCount != 1 || out.NewCoolCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", out.NewHypeCount, out.NewCoolCount)
	}

	hype, cool, clout := f.videos.counters("vid-1")
	if hype != 1 || cool != 0 || clout != 3 {
		t.Errorf("video counters = %d/%d/%d, want 1/0/3", hype, cool, clout)
	}
	if got := f.users.creatorClout("beef01"); got != 3 {
		t.Errorf("creator clout = %d, want 3", got)
	}
	if got := f.users.balance("abc123"); !almostEqual(got, 98.5, 0.001) {
		t.Errorf("hype rating = %.2f, want 98.50", got)
	}
	if f.events.events != 1 {
		t.Errorf("engagement events recorded = %d, want 1", f.events.events)
	}
	if len(f.notify.sent) != 1 {
		t.Errorf("notifications sent = %d, want 1", len(f.notify.sent))
	}
}

func TestSubmitCoolDebitsCreator(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	in := hypeInput(model.TierCreator, false)
	in.Side = model.SideCool

	out, err := f.svc.Submit(ctx, in)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if out.CloutAwarded != -2 {
		t.Errorf("CloutAwarded = %d, want -2", out.CloutAwarded)
	}

	hype, cool, clout := f.videos.counters("vid-1")
	if hype != 0 || cool != 1 || clout != -2 {
		t.Errorf("video counters = %d/%d/%d, want 0/1/-2", hype, cool, clout)
	}
	if got := f.users.creatorClout("beef01"); got != -2 {
		t.Errorf("creator clout = %d, want -2", got)
	}
	// Cool taps are free.
	if got := f.users.balance("abc123"); !almostEqual(got, 100, 0.001) {
		t.Errorf("hype rating = %.2f, want 100 (unchanged)", got)
	}
}

func TestSubmitSelfEngagement(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()
	f.users.setBalance("beef01", 100)

	in := hypeInput(model.TierCreator, false)
	in.UserID = "beef01" // creator taps their own video

	_, err := f.svc.Submit(ctx, in)
	wantRejection(t, err, model.RejectSelfEngagement)

	// Founder-class may self-engage.
	in.Tier = model.TierFounder
	out, err := f.svc.Submit(ctx, in)
	if err != nil {
		t.Fatalf("founder self-engagement rejected: %v", err)
	}
	if !out.Success {
		t.Error("founder self-engagement outcome not successful")
	}
}

func TestSubmitCooldown(t *testing.T) {
	f := newEngagementFixture(t, func(cfg *config.Config) {
		cfg.Cooldown = 500 * time.Millisecond
	})
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false)); err != nil {
		t.Fatalf("first Submit() error: %v", err)
	}

	_, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false))
	wantRejection(t, err, model.RejectCooldownActive)
}

func TestSubmitEngagementCap(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < f.cfg.MaxEngagementsPerVideo; i++ {
		if _, err := f.svc.Submit(ctx, hypeInput(model.TierFounder, false)); err != nil {
			t.Fatalf("tap %d rejected: %v", i+1, err)
		}
	}

	hypeBefore, _, cloutBefore := f.videos.counters("vid-1")
	balanceBefore := f.users.balance("abc123")

	_, err := f.svc.Submit(ctx, hypeInput(model.TierFounder, false))
	wantRejection(t, err, model.RejectEngagementCap)

	// A rejected tap moves nothing.
	hypeAfter, _, cloutAfter := f.videos.counters("vid-1")
	if hypeAfter != hypeBefore || cloutAfter != cloutBefore {
		t.Errorf("rejected tap moved video counters: %d/%d -> %d/%d",
			hypeBefore, cloutBefore, hypeAfter, cloutAfter)
	}
	if got := f.users.balance("abc123"); !almostEqual(got, balanceBefore, 0.001) {
		t.Errorf("rejected tap moved hype rating: %.2f -> %.2f", balanceBefore, got)
	}
}

func TestSubmitCloutCapTruncatesThenRejects(t *testing.T) {
	f := newEngagementFixture(t, func(cfg *config.Config) {
		cfg.MaxEngagementsPerVideo = 1000 // isolate the clout cap
	})
	ctx := context.Background()
	f.users.setBalance("abc123", 1e9)

	// Founder: 15 base clout diminishing to 6 at the floor, 1000 cap. The
	// final tap truncates to the remainder; the one after is rejected.
	total := 0
	rejected := false
	for i := 0; i < 400; i++ {
		out, err := f.svc.Submit(ctx, hypeInput(model.TierFounder, false))
		if err != nil {
			rej, ok := model.AsRejection(err)
			if !ok || rej.Reason != model.RejectCloutCap {
				t.Fatalf("tap %d: unexpected error %v", i+1, err)
			}
			rejected = true
			break
		}
		total += out.CloutAwarded
	}

	if !rejected {
		t.Fatal("cap never produced a rejection")
	}
	if total != 1000 {
		t.Errorf("total clout credited = %d, want exactly the 1000 cap", total)
	}
	if got := f.users.creatorClout("beef01"); got != 1000 {
		t.Errorf("creator clout = %d, want 1000", got)
	}
}

func TestSubmitVideoCloutCeiling(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	f.videos.ApplyDeltas(ctx, "vid-1", model.VideoDeltas{Clout: f.cfg.VideoCloutCeiling})

	_, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false))
	wantRejection(t, err, model.RejectVideoCloutCeiling)
}

func TestSubmitInsufficientHype(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()
	f.users.setBalance("abc123", 0.5)

	_, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false))
	wantRejection(t, err, model.RejectInsufficientHype)

	// Balance untouched by the rejection.
	if got := f.users.balance("abc123"); !almostEqual(got, 0.5, 0.001) {
		t.Errorf("balance = %.2f, want 0.5", got)
	}
}

func TestSideSwitchWithinGraceReversesExactly(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	// Three hype taps, then a switch to cool while grace is open.
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false)); err != nil {
			t.Fatalf("hype tap %d: %v", i+1, err)
		}
	}

	in := hypeInput(model.TierCreator, false)
	in.Side = model.SideCool
	out, err := f.svc.Submit(ctx, in)
	if err != nil {
		t.Fatalf("side switch: %v", err)
	}
	if out.NewHypeCount != 0 || out.NewCoolCount != 1 {
		t.Errorf("counts after switch = %d/%d, want 0/1", out.NewHypeCount, out.NewCoolCount)
	}

	// All hype contributions reversed; only the cool remains.
	hype, cool, clout := f.videos.counters("vid-1")
	if hype != 0 || cool != 1 || clout != -2 {
		t.Errorf("video counters = %d/%d/%d, want 0/1/-2", hype, cool, clout)
	}
	if got := f.users.creatorClout("beef01"); got != -2 {
		t.Errorf("creator clout = %d, want -2", got)
	}
	// Hype spend fully refunded; cools are free.
	if got := f.users.balance("abc123"); !almostEqual(got, 100, 0.001) {
		t.Errorf("hype rating = %.2f, want 100", got)
	}
}

func TestSideSwitchUnaffordableLeavesPriorSideCommitted(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	cool := hypeInput(model.TierCreator, false)
	cool.Side = model.SideCool
	if _, err := f.svc.Submit(ctx, cool); err != nil {
		t.Fatalf("cool tap: %v", err)
	}
	f.users.setBalance("abc123", 0)

	// The switch back to hype is unaffordable. The rejection must not
	// reverse the committed cool engagement.
	_, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false))
	wantRejection(t, err, model.RejectInsufficientHype)

	ledger, err := f.svc.Ledger(ctx, "vid-1", "abc123")
	if err != nil {
		t.Fatalf("Ledger(): %v", err)
	}
	if ledger.TotalEngagements != 1 || ledger.CoolEngagements != 1 || ledger.HypeEngagements != 0 {
		t.Errorf("ledger counts = %d total, %d hype, %d cool; want 1/0/1",
			ledger.TotalEngagements, ledger.HypeEngagements, ledger.CoolEngagements)
	}
	if ledger.FirstEngagementAt == nil {
		t.Error("first engagement timestamp erased by rejected switch")
	}

	hype, coolCount, clout := f.videos.counters("vid-1")
	if hype != 0 || coolCount != 1 || clout != -2 {
		t.Errorf("video counters = %d/%d/%d, want 0/1/-2", hype, coolCount, clout)
	}
	if got := f.users.creatorClout("beef01"); got != -2 {
		t.Errorf("creator clout = %d, want -2", got)
	}
	if got := f.users.balance("abc123"); !almostEqual(got, 0, 0.001) {
		t.Errorf("rejected switch moved hype rating: %.2f, want 0", got)
	}
}

func TestSideSwitchAtCloutCeilingLeavesPriorSideCommitted(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	cool := hypeInput(model.TierCreator, false)
	cool.Side = model.SideCool
	if _, err := f.svc.Submit(ctx, cool); err != nil {
		t.Fatalf("cool tap: %v", err)
	}

	// Other engagers drive the video to the ceiling. Reversing the cool
	// would put it back over, so the hype switch must be rejected before
	// anything is reversed.
	f.videos.ApplyDeltas(ctx, "vid-1", model.VideoDeltas{Clout: f.cfg.VideoCloutCeiling})

	_, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false))
	wantRejection(t, err, model.RejectVideoCloutCeiling)

	ledger, err := f.svc.Ledger(ctx, "vid-1", "abc123")
	if err != nil {
		t.Fatalf("Ledger(): %v", err)
	}
	if ledger.TotalEngagements != 1 || ledger.CoolEngagements != 1 {
		t.Errorf("ledger counts = %d total, %d cool; want 1/1",
			ledger.TotalEngagements, ledger.CoolEngagements)
	}

	_, coolCount, clout := f.videos.counters("vid-1")
	if coolCount != 1 || clout != f.cfg.VideoCloutCeiling-2 {
		t.Errorf("video counters = cool %d, clout %d; want 1, %d",
			coolCount, clout, f.cfg.VideoCloutCeiling-2)
	}
	if got := f.users.creatorClout("beef01"); got != -2 {
		t.Errorf("creator clout = %d, want -2", got)
	}
}

func TestSideSwitchAfterGraceRejected(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false)); err != nil {
		t.Fatalf("hype tap: %v", err)
	}

	// Age the ledger past the grace period.
	key := f.ledgers.key("vid-1", "abc123")
	f.ledgers.mu.Lock()
	l := f.ledgers.ledgers[key]
	aged := time.Now().Add(-2 * f.cfg.GracePeriod)
	l.FirstEngagementAt = &aged
	l.LastEngagementAt = aged
	f.ledgers.ledgers[key] = l
	f.ledgers.mu.Unlock()

	in := hypeInput(model.TierCreator, false)
	in.Side = model.SideCool
	_, err := f.svc.Submit(ctx, in)
	wantRejection(t, err, model.RejectSwitchAfterGrace)

	// Still locked to hype; more hype taps remain fine.
	if _, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false)); err != nil {
		t.Errorf("hype tap after locked switch attempt: %v", err)
	}
}

func TestRemoveAllWithinGrace(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Submit(ctx, hypeInput(model.TierIcon, true)); err != nil {
			t.Fatalf("burst tap %d: %v", i+1, err)
		}
	}

	out, err := f.svc.RemoveAll(ctx, "vid-1", "abc123")
	if err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}
	if !out.Success || out.NewHypeCount != 0 || out.NewCoolCount != 0 {
		t.Errorf("outcome = %+v, want zeroed counts", out)
	}

	// Everything restored, bursts included.
	hype, cool, clout := f.videos.counters("vid-1")
	if hype != 0 || cool != 0 || clout != 0 {
		t.Errorf("video counters = %d/%d/%d, want 0/0/0", hype, cool, clout)
	}
	if got := f.users.creatorClout("beef01"); got != 0 {
		t.Errorf("creator clout = %d, want 0", got)
	}
	if got := f.users.balance("abc123"); !almostEqual(got, 100, 0.001) {
		t.Errorf("hype rating = %.2f, want 100", got)
	}

	ledger, err := f.svc.Ledger(ctx, "vid-1", "abc123")
	if err != nil {
		t.Fatalf("Ledger() error: %v", err)
	}
	if !ledger.IsZero() {
		t.Errorf("ledger not zero after removal: %+v", ledger)
	}
}

func TestRemoveAllNothingToRemove(t *testing.T) {
	f := newEngagementFixture(t, nil)

	_, err := f.svc.RemoveAll(context.Background(), "vid-1", "abc123")
	wantRejection(t, err, model.RejectNothingToRemove)
}

func TestRemoveAllAfterGraceRejected(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false)); err != nil {
		t.Fatalf("hype tap: %v", err)
	}

	key := f.ledgers.key("vid-1", "abc123")
	f.ledgers.mu.Lock()
	l := f.ledgers.ledgers[key]
	aged := time.Now().Add(-2 * f.cfg.GracePeriod)
	l.FirstEngagementAt = &aged
	f.ledgers.ledgers[key] = l
	f.ledgers.mu.Unlock()

	_, err := f.svc.RemoveAll(ctx, "vid-1", "abc123")
	wantRejection(t, err, model.RejectRemovalAfterGrace)

	// Nothing reversed.
	hype, _, clout := f.videos.counters("vid-1")
	if hype != 1 || clout != 3 {
		t.Errorf("video counters = %d/%d, want 1/3", hype, clout)
	}
}

func TestSubmitRetriesLedgerConflict(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	f.ledgers.conflictsLeft = 2 // fewer than the retry budget

	out, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false))
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if !out.Success {
		t.Error("outcome not successful after retries")
	}

	// Compensation ran on failed attempts: net effect is a single tap.
	hype, _, clout := f.videos.counters("vid-1")
	if hype != 1 || clout != 3 {
		t.Errorf("video counters = %d/%d, want 1/3", hype, clout)
	}
	if got := f.users.creatorClout("beef01"); got != 3 {
		t.Errorf("creator clout = %d, want 3", got)
	}
	if got := f.users.balance("abc123"); !almostEqual(got, 98.5, 0.001) {
		t.Errorf("hype rating = %.2f, want 98.50", got)
	}
}

func TestSubmitConflictBudgetExhausted(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	f.ledgers.conflictsLeft = f.cfg.LedgerConflictRetries + 10

	_, err := f.svc.Submit(ctx, hypeInput(model.TierCreator, false))
	if err == nil {
		t.Fatal("Submit() succeeded, want conflict exhaustion error")
	}
	if _, ok := model.AsRejection(err); ok {
		t.Fatalf("conflict exhaustion surfaced as a rejection: %v", err)
	}

	// Every attempt was compensated: externals net to zero.
	hype, _, clout := f.videos.counters("vid-1")
	if hype != 0 || clout != 0 {
		t.Errorf("video counters = %d/%d, want 0/0", hype, clout)
	}
	if got := f.users.balance("abc123"); !almostEqual(got, 100, 0.001) {
		t.Errorf("hype rating = %.2f, want 100", got)
	}
}

func TestSubmitFirstTapBurstBonus(t *testing.T) {
	f := newEngagementFixture(t, nil)
	ctx := context.Background()

	out, err := f.svc.Submit(ctx, hypeInput(model.TierFounder, true))
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if !out.IsFirstTapBonus {
		t.Error("first founder burst did not flag the first-tap bonus")
	}
	if out.CloutAwarded != 90 {
		t.Errorf("CloutAwarded = %d, want 90", out.CloutAwarded)
	}
	if out.VisualIncrement != 10 {
		t.Errorf("VisualIncrement = %d, want 10", out.VisualIncrement)
	}

	// Second burst: no bonus.
	out, err = f.svc.Submit(ctx, hypeInput(model.TierFounder, true))
	if err != nil {
		t.Fatalf("second Submit() error: %v", err)
	}
	if out.IsFirstTapBonus {
		t.Error("second burst flagged the first-tap bonus")
	}
	if out.CloutAwarded != 45 {
		t.Errorf("second CloutAwarded = %d, want 45", out.CloutAwarded)
	}
}
