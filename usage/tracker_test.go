package usage

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEmbeddingTokenAdditivity(t *testing.T) {
	tr := NewTracker("text-embedding-3-small", "gpt-4o-mini")

	counts := []int{100, 250, 7, 1000}
	sum := 0
	for _, n := range counts {
		tr.RecordEmbedding(n)
		sum += n
	}

	if got := tr.Summary().EmbeddingTokens; got != sum {
		t.Errorf("embedding tokens = %d, want %d", got, sum)
	}
}

func TestChatTokensAndCost(t *testing.T) {
	tr := NewTracker("text-embedding-3-small", "gpt-4o-mini")

	cost := tr.RecordChat(1_000_000, 1_000_000)
	want := 0.15 + 0.60
	if diff := cost - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("chat cost = %f, want %f", cost, want)
	}

	s := tr.Summary()
	if s.InputTokens != 1_000_000 || s.OutputTokens != 1_000_000 {
		t.Errorf("tokens = %d/%d", s.InputTokens, s.OutputTokens)
	}
}

func TestConcurrentRecording(t *testing.T) {
	tr := NewTracker("text-embedding-3-small", "gpt-4o-mini")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordEmbedding(10)
			tr.RecordChat(5, 5)
		}()
	}
	wg.Wait()

	s := tr.Summary()
	if s.EmbeddingTokens != 500 || s.InputTokens != 250 || s.OutputTokens != 250 {
		t.Errorf("lost updates: %+v", s)
	}
}

func TestConcurrentPriceRegistration(t *testing.T) {
	tr := NewTracker("text-embedding-3-small", "gpt-4o-mini")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RegisterPrice("gpt-4o-mini", ModelPrice{InputPer1M: 0.15, OutputPer1M: 0.60})
			tr.RecordChat(5, 5)
			tr.RecordEmbedding(10)
		}()
	}
	wg.Wait()

	s := tr.Summary()
	if s.InputTokens != 250 || s.OutputTokens != 250 || s.EmbeddingTokens != 500 {
		t.Errorf("lost updates: %+v", s)
	}
}

func TestCheckDailyLimit(t *testing.T) {
	tr := NewTracker("text-embedding-3-small", "gpt-4o-mini")
	RegisterPrice("test-chat", ModelPrice{InputPer1M: 1e6, OutputPer1M: 0}) // $1 per token
	tr.chatModel = "test-chat"

	// $3 of a $5 limit: below the 80% threshold.
	tr.RecordChat(3, 0)
	if warn, ok := tr.CheckDailyLimit(5.0); ok {
		t.Errorf("unexpected warning below threshold: %q", warn)
	}

	// Cross 80% ($4 of $5).
	tr.RecordChat(1, 0)
	warn, ok := tr.CheckDailyLimit(5.0)
	if !ok {
		t.Fatal("expected warning at 80% of limit")
	}
	if !strings.Contains(warn, "80%") {
		t.Errorf("warning = %q", warn)
	}
}

func TestDailyBucketsKeyedUTC(t *testing.T) {
	tr := NewTracker("text-embedding-3-small", "gpt-4o-mini")

	day1 := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Minute)

	tr.now = func() time.Time { return day1 }
	tr.RecordEmbedding(200)
	tr.now = func() time.Time { return day2 }
	tr.RecordEmbedding(100)

	s := tr.Summary()
	if s.DailyUsage["2026-03-01"].Tokens != 200 {
		t.Errorf("day one bucket = %+v", s.DailyUsage["2026-03-01"])
	}
	if s.DailyUsage["2026-03-02"].Tokens != 100 {
		t.Errorf("day two bucket = %+v", s.DailyUsage["2026-03-02"])
	}

	// Day one spent $0.000004, enough to warn at this limit; only day
	// two's $0.000002 may count toward today.
	if warn, ok := tr.CheckDailyLimit(0.000004); ok {
		t.Errorf("yesterday's spend tripped today's limit: %q", warn)
	}
}

func TestSummaryIsACopy(t *testing.T) {
	tr := NewTracker("text-embedding-3-small", "gpt-4o-mini")
	tr.RecordEmbedding(10)

	s := tr.Summary()
	day := tr.now().UTC().Format("2006-01-02")
	s.DailyUsage[day] = DayUsage{Tokens: 999999}

	if tr.Summary().DailyUsage[day].Tokens == 999999 {
		t.Error("Summary exposed internal map")
	}
}
