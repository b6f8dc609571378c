package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nexifit/nexifit/internal/clock"
	"github.com/nexifit/nexifit/internal/domain"
	"github.com/nexifit/nexifit/internal/scheduler"
	"github.com/nexifit/nexifit/internal/session"
)

// fakeRepo is an in-memory Repository covering what the bot touches.
type fakeRepo struct {
	mu         sync.Mutex
	authorized map[string]bool
	admins     map[string]bool
	users      map[string]*domain.User
	streaks    map[string]*domain.StreakRecord
	workouts   []*domain.WorkoutLog
	prefs      map[string]*domain.TipPreference
	tips       []domain.Tip
	nextTipID  int64
	authLog    []string
	summaries  map[string]*domain.WeeklySummary
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		authorized: make(map[string]bool),
		admins:     make(map[string]bool),
		users:      make(map[string]*domain.User),
		streaks:    make(map[string]*domain.StreakRecord),
		prefs:      make(map[string]*domain.TipPreference),
		summaries:  make(map[string]*domain.WeeklySummary),
		nextTipID:  1,
	}
}

func (f *fakeRepo) IsAuthorized(_ context.Context, addr string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorized[addr], nil
}

func (f *fakeRepo) IsAdmin(_ context.Context, addr string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[addr], nil
}

func (f *fakeRepo) LogAuthAttempt(_ context.Context, addr, action string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authLog = append(f.authLog, addr+":"+action)
	return nil
}

func (f *fakeRepo) AddUser(_ context.Context, addr, name string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[addr] = &domain.User{Addr: addr, Name: name, Authorized: true}
	f.authorized[addr] = true
	return nil
}

func (f *fakeRepo) RemoveUser(_ context.Context, addr string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[addr]
	if !ok {
		return false, nil
	}
	u.Authorized = false
	f.authorized[addr] = false
	return true, nil
}

func (f *fakeRepo) ReactivateUser(_ context.Context, addr string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[addr]
	if !ok {
		return false, nil
	}
	u.Authorized = true
	f.authorized[addr] = true
	return true, nil
}

func (f *fakeRepo) GetUser(_ context.Context, addr string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[addr], nil
}

func (f *fakeRepo) ListUsers(context.Context) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRepo) AuthorizedAddrs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for addr, ok := range f.authorized {
		if ok {
			out = append(out, addr)
		}
	}
	return out, nil
}

func (f *fakeRepo) CleanExpiredUsers(context.Context) (int64, error) { return 0, nil }

func (f *fakeRepo) GetStreak(_ context.Context, addr string) (*domain.StreakRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streaks[addr], nil
}

func (f *fakeRepo) PutStreak(_ context.Context, rec *domain.StreakRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streaks[rec.Addr] = rec
	return nil
}

func (f *fakeRepo) AppendWorkoutLog(_ context.Context, entry *domain.WorkoutLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workouts = append(f.workouts, entry)
	return nil
}

func (f *fakeRepo) WeeklySummary(_ context.Context, addr string, _ time.Time) (*domain.WeeklySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summaries[addr], nil
}

func (f *fakeRepo) ActiveTips(context.Context) ([]domain.Tip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tips, nil
}

func (f *fakeRepo) RecentTipIDs(context.Context, string, time.Time) ([]int64, error) {
	return nil, nil
}

func (f *fakeRepo) AppendTipHistory(context.Context, string, int64, time.Time) error { return nil }

func (f *fakeRepo) AddTip(_ context.Context, text, category string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextTipID
	f.nextTipID++
	f.tips = append(f.tips, domain.Tip{ID: id, Text: text, Category: category, Active: true})
	return id, nil
}

func (f *fakeRepo) DeactivateTip(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tips {
		if f.tips[i].ID == id && f.tips[i].Active {
			f.tips[i].Active = false
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) TipPreference(_ context.Context, addr string) (*domain.TipPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs[addr], nil
}

func (f *fakeRepo) SetTipPreference(_ context.Context, addr string, receive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs[addr] = &domain.TipPreference{Addr: addr, ReceiveTips: receive}
	return nil
}

func (f *fakeRepo) Ping(context.Context) error { return nil }
func (f *fakeRepo) Close() error               { return nil }

// capturingSender records every outbound message per recipient.
type capturingSender struct {
	mu   sync.Mutex
	sent map[string][]string
}

func newCapturingSender() *capturingSender {
	return &capturingSender{sent: make(map[string][]string)}
}

func (c *capturingSender) Send(_ context.Context, to, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent[to] = append(c.sent[to], body)
	return nil
}

func (c *capturingSender) messages(to string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent[to]...)
}

func (c *capturingSender) last(to string) string {
	msgs := c.messages(to)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// scriptedCompleter returns a fixed reply.
type scriptedCompleter struct {
	reply string
	err   error

	mu    sync.Mutex
	calls [][]domain.Message
}

func (s *scriptedCompleter) Complete(_ context.Context, msgs []domain.Message) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, msgs)
	s.mu.Unlock()
	return s.reply, s.err
}

func (s *scriptedCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// recordingScheduler captures scheduled jobs instead of running them.
type recordingScheduler struct {
	mu   sync.Mutex
	jobs []scheduledJob
}

type scheduledJob struct {
	runAt time.Time
	fn    scheduler.Func
}

func (r *recordingScheduler) ScheduleOnce(runAt time.Time, fn scheduler.Func) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, scheduledJob{runAt: runAt, fn: fn})
	return "job-1", nil
}

func (r *recordingScheduler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// fakeStreaks is a canned streak engine.
type fakeStreaks struct {
	result  domain.StreakResult
	current int
}

func (f *fakeStreaks) Update(context.Context, string) (domain.StreakResult, error) {
	return f.result, nil
}

func (f *fakeStreaks) Current(context.Context, string) (int, error) { return f.current, nil }

type fakeReports struct {
	body string
}

func (f *fakeReports) Build(context.Context, string) (string, error) { return f.body, nil }

type botFixture struct {
	bot    *Bot
	repo   *fakeRepo
	sender *capturingSender
	llm    *scriptedCompleter
	sched  *recordingScheduler
	clk    *clock.Fake
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	repo := newFakeRepo()
	sender := newCapturingSender()
	completer := &scriptedCompleter{reply: "Here is your plan. Estimated Time: ~30 minutes"}
	sched := &recordingScheduler{}
	clk := clock.NewFake(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	b := New(Config{AdminContact: "admin@example.com"}, repo, session.NewStore(), sender,
		completer, sched, &fakeStreaks{result: domain.StreakResult{Current: 1, IsRecord: true}},
		&fakeReports{body: "report body"}, clk)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b.Start(ctx)

	return &botFixture{bot: b, repo: repo, sender: sender, llm: completer, sched: sched, clk: clk}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestHandleInbound_UnauthorizedDenied(t *testing.T) {
	fx := newBotFixture(t)

	if err := fx.bot.HandleInbound(context.Background(), "+100", "hello"); err != nil {
		t.Fatalf("HandleInbound failed: %v", err)
	}

	last := fx.sender.last("+100")
	if !strings.Contains(last, "Access Denied") || !strings.Contains(last, "admin@example.com") {
		t.Errorf("Expected denial with admin contact, got %q", last)
	}

	fx.repo.mu.Lock()
	defer fx.repo.mu.Unlock()
	found := false
	for _, e := range fx.repo.authLog {
		if e == "+100:unauthorized_access" {
			found = true
		}
	}
	if !found {
		t.Error("Expected unauthorized access audit entry")
	}
}

func TestHandleInbound_NewSessionGreets(t *testing.T) {
	fx := newBotFixture(t)
	fx.repo.authorized["+200"] = true

	if err := fx.bot.HandleInbound(context.Background(), "+200", "hi"); err != nil {
		t.Fatalf("HandleInbound failed: %v", err)
	}

	msgs := fx.sender.messages("+200")
	if len(msgs) != 1 || !strings.Contains(msgs[0], "NexiFit") {
		t.Fatalf("Expected a single greeting, got %v", msgs)
	}
	// The intro is deferred through the scheduler.
	if fx.sched.count() != 1 {
		t.Errorf("Expected intro scheduled, got %d jobs", fx.sched.count())
	}
}

func TestHandleInbound_ConsoleBypass(t *testing.T) {
	repo := newFakeRepo()
	sender := newCapturingSender()
	b := New(Config{AdminContact: "a@b.c", ConsoleBypass: true}, repo, session.NewStore(), sender,
		&scriptedCompleter{reply: "ok"}, &recordingScheduler{}, &fakeStreaks{}, &fakeReports{},
		clock.NewFake(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)))

	if err := b.HandleInbound(context.Background(), "ws:abc", "hi"); err != nil {
		t.Fatalf("HandleInbound failed: %v", err)
	}
	if !strings.Contains(sender.last("ws:abc"), "NexiFit") {
		t.Errorf("Expected console session to bypass authorization, got %q", sender.last("ws:abc"))
	}
}
