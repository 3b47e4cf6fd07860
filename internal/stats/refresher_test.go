package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// --- モック ---

type mockSource struct {
	count int
	total int
	err   error
}

func (m *mockSource) FinishedStats(ctx context.Context) (int, int, error) {
	return m.count, m.total, m.err
}

type mockCache struct {
	mu     sync.Mutex
	value  string
	writes int
	err    error
}

func (m *mockCache) Read(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *mockCache) Write(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.value = value
	m.writes++
	return nil
}

func (m *mockCache) snapshot() (string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.writes
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- テスト ---

// 平均が小数2桁で整形されてキャッシュされることを検証
func TestRefresher_Refresh(t *testing.T) {
	source := &mockSource{count: 3, total: 10}
	cache := &mockCache{}

	r := NewRefresher(source, cache, testLogger())

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	value, writes := cache.snapshot()
	want := "平均ストリークスコアは3.33です"
	if value != want {
		t.Errorf("cached value = %q, want %q", value, want)
	}
	if writes != 1 {
		t.Errorf("writes = %d, want 1", writes)
	}
}

// 終了済みゲームが0件の場合はキャッシュに触れないことを検証
func TestRefresher_Refresh_NoFinishedGames(t *testing.T) {
	source := &mockSource{count: 0, total: 0}
	cache := &mockCache{value: "以前の値"}

	r := NewRefresher(source, cache, testLogger())

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	value, writes := cache.snapshot()
	if writes != 0 {
		t.Errorf("writes = %d, want 0", writes)
	}
	if value != "以前の値" {
		t.Errorf("cached value = %q, want previous value untouched", value)
	}
}

// 新しい終了ゲームがないまま再計算しても値が変わらないことを検証
func TestRefresher_Refresh_Idempotent(t *testing.T) {
	source := &mockSource{count: 2, total: 9}
	cache := &mockCache{}

	r := NewRefresher(source, cache, testLogger())

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh returned error: %v", err)
	}
	first, _ := cache.snapshot()

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh returned error: %v", err)
	}
	second, _ := cache.snapshot()

	if first != second {
		t.Errorf("value changed without new finished games: %q → %q", first, second)
	}
}

// 集計エラーが呼び出し元に伝播することを検証
func TestRefresher_Refresh_SourceError(t *testing.T) {
	source := &mockSource{err: errors.New("db down")}

	r := NewRefresher(source, &mockCache{}, testLogger())

	if err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Enqueueがキュー満杯でもブロックしないことを検証
func TestQueue_Enqueue_NeverBlocks(t *testing.T) {
	r := NewRefresher(&mockSource{}, &mockCache{}, testLogger())
	q := NewQueue(r, testLogger(), 2)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			q.Enqueue()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

// Startが予約済みの更新を処理し、キャンセルで停止することを検証
func TestQueue_Start_ProcessesEnqueued(t *testing.T) {
	source := &mockSource{count: 1, total: 4}
	cache := &mockCache{}
	r := NewRefresher(source, cache, testLogger())
	q := NewQueue(r, testLogger(), 4)

	q.Enqueue()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		q.Start(ctx, 0)
		close(stopped)
	}()

	// 予約した更新が処理されるまで待つ
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, writes := cache.snapshot(); writes >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("enqueued refresh was not processed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Start did not stop after context cancellation")
	}

	value, _ := cache.snapshot()
	if value != "平均ストリークスコアは4.00です" {
		t.Errorf("cached value = %q, want average 4.00", value)
	}
}
