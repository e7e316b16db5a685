package session

import (
	"testing"
	"time"

	"github.com/lumastream/live-core/core/events"
)

func TestAccountingUsageAccumulates(t *testing.T) {
	accounting := sessionAccounting{}
	accounting.start(time.Now())

	accounting.addUsage(events.NewUsageMetadata(10, 20, 30))
	usage := accounting.addUsage(events.NewUsageMetadata(1, 2, 3))

	if usage.PromptTokenCount != 11 || usage.ResponseTokenCount != 22 || usage.TotalTokenCount != 33 {
		t.Fatalf("expected totals to accumulate, got %+v", usage)
	}
}

func TestAccountingUsageOrderIndependent(t *testing.T) {
	batches := []events.UsageMetadata{
		events.NewUsageMetadata(5, 10, 15),
		events.NewUsageMetadata(7, 0, 7),
		events.NewUsageMetadata(0, 3, 3),
	}

	forward := sessionAccounting{}
	forward.start(time.Now())
	for _, batch := range batches {
		forward.addUsage(batch)
	}

	backward := sessionAccounting{}
	backward.start(time.Now())
	for i := len(batches) - 1; i >= 0; i-- {
		backward.addUsage(batches[i])
	}

	if forward.tokenUsage() != backward.tokenUsage() {
		t.Fatalf("expected order-independent totals, got %+v vs %+v",
			forward.tokenUsage(), backward.tokenUsage())
	}
}

func TestAccountingStartResetsEverything(t *testing.T) {
	accounting := sessionAccounting{}
	accounting.start(time.Now())
	accounting.addUsage(events.NewUsageMetadata(10, 20, 30))
	accounting.countAudioChunk()
	accounting.countMessage()
	accounting.recordRemote(&events.SessionStats{MessageCount: 5})

	accounting.start(time.Now())

	if usage := accounting.tokenUsage(); usage != (TokenUsage{}) {
		t.Fatalf("expected usage to reset, got %+v", usage)
	}
	snapshot := accounting.snapshot(time.Now())
	if snapshot.MessageCount != 0 || snapshot.AudioChunksSent != 0 {
		t.Fatalf("expected counters to reset, got %+v", snapshot)
	}
}

func TestAccountingSnapshotPrefersRemoteStats(t *testing.T) {
	accounting := sessionAccounting{}
	accounting.start(time.Now().Add(-10 * time.Second))
	accounting.countMessage()

	accounting.recordRemote(&events.SessionStats{
		MessageCount:    42,
		AudioChunksSent: 100,
		ElapsedSeconds:  9.5,
		TotalTokenCount: 500,
	})

	snapshot := accounting.snapshot(time.Now())
	if snapshot.MessageCount != 42 || snapshot.TotalTokenCount != 500 {
		t.Fatalf("expected the gateway snapshot to win, got %+v", snapshot)
	}
}

func TestAccountingRemoteStatsMergeLocalTokens(t *testing.T) {
	accounting := sessionAccounting{}
	accounting.start(time.Now())
	accounting.addUsage(events.NewUsageMetadata(10, 20, 30))

	// Gateway snapshots omit token counts on some paths; the local totals
	// fill the gap.
	accounting.recordRemote(&events.SessionStats{MessageCount: 3})

	snapshot := accounting.snapshot(time.Now())
	if snapshot.TotalTokenCount != 30 || snapshot.PromptTokenCount != 10 {
		t.Fatalf("expected local token totals to merge in, got %+v", snapshot)
	}
	if snapshot.MessageCount != 3 {
		t.Fatalf("expected the remote message count, got %+v", snapshot)
	}
}

func TestAccountingSnapshotTracksElapsedTime(t *testing.T) {
	accounting := sessionAccounting{}
	start := time.Now()
	accounting.start(start)

	snapshot := accounting.snapshot(start.Add(4 * time.Second))
	if snapshot.ElapsedSeconds < 3.9 || snapshot.ElapsedSeconds > 4.1 {
		t.Fatalf("expected ~4 elapsed seconds, got %v", snapshot.ElapsedSeconds)
	}
}
