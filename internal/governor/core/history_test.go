package core_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

func TestSendHistory_RingWraps(t *testing.T) {
	t.Parallel()

	history := core.NewSendHistory(3)
	for i := 0; i < 5; i++ {
		history.Record(testBase.Add(time.Duration(i)*time.Minute), fmt.Sprintf("message %d", i))
	}

	times, hashes := history.Snapshot()
	if len(times) != 3 || len(hashes) != 3 {
		t.Fatalf("expected three retained sends, got %d/%d", len(times), len(hashes))
	}
	// Oldest first, only the last three survive.
	if !times[0].Equal(testBase.Add(2 * time.Minute)) {
		t.Fatalf("expected oldest retained send at +2m, got %v", times[0])
	}
	if !times[2].Equal(testBase.Add(4 * time.Minute)) {
		t.Fatalf("expected newest send at +4m, got %v", times[2])
	}
	if hashes[2] != core.ContentHash("message 4") {
		t.Fatalf("hash mismatch for newest send")
	}
}

func TestSendHistory_PartialFill(t *testing.T) {
	t.Parallel()

	history := core.NewSendHistory(10)
	history.Record(testBase, "a")
	history.Record(testBase.Add(time.Second), "b")

	times, hashes := history.Snapshot()
	if len(times) != 2 || len(hashes) != 2 {
		t.Fatalf("expected two recorded sends, got %d/%d", len(times), len(hashes))
	}
	if !times[0].Equal(testBase) {
		t.Fatalf("expected oldest first, got %v", times[0])
	}
}

func TestContentHash_NormalizesWhitespaceAndCase(t *testing.T) {
	t.Parallel()

	base := core.ContentHash("Hello there, quick question")
	padded := core.ContentHash("  hello   THERE, quick\tquestion ")
	if base != padded {
		t.Fatalf("expected padding and case differences to hash identically")
	}
	different := core.ContentHash("hello there, another question")
	if base == different {
		t.Fatalf("expected different content to hash differently")
	}
}
