package session

import (
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lumastream/live-core/core/events"
)

// TokenUsage is the running token total for a session. Usage metadata
// events carry per-turn counts; the totals only ever grow while the
// session is live.
type TokenUsage struct {
	PromptTokenCount   int
	ResponseTokenCount int
	TotalTokenCount    int
}

func (u *TokenUsage) add(metadata events.UsageMetadata) {
	u.PromptTokenCount += metadata.PromptTokenCount
	u.ResponseTokenCount += metadata.ResponseTokenCount
	u.TotalTokenCount += metadata.TotalTokenCount
}

// sessionAccounting tracks the client-side view of a session: token totals,
// outbound frame and message counters, the start time, and the final stats
// snapshot once the gateway reports one.
type sessionAccounting struct {
	mu sync.Mutex

	usage           TokenUsage
	audioChunksSent uint64
	messageCount    uint64
	startedAt       time.Time

	finalStats *events.SessionStats
}

func (a *sessionAccounting) start(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage = TokenUsage{}
	a.audioChunksSent = 0
	a.messageCount = 0
	a.startedAt = now
	a.finalStats = nil
}

// addUsage folds one usage metadata event into the totals and returns the
// accumulated usage.
func (a *sessionAccounting) addUsage(metadata events.UsageMetadata) TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.usage.add(metadata)
	return a.usage
}

func (a *sessionAccounting) countAudioChunk() {
	a.mu.Lock()
	a.audioChunksSent++
	a.mu.Unlock()
}

func (a *sessionAccounting) countMessage() {
	a.mu.Lock()
	a.messageCount++
	a.mu.Unlock()
}

// recordRemote keeps the most recent gateway-reported stats snapshot,
// merged with the locally accumulated token totals.
func (a *sessionAccounting) recordRemote(stats *events.SessionStats) {
	if stats == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := events.SessionStats{}
	if err := copier.Copy(&snapshot, stats); err != nil {
		logger.Warn("Failed to snapshot session stats", "error", err)
		return
	}
	if snapshot.TotalTokenCount == 0 {
		snapshot.PromptTokenCount = a.usage.PromptTokenCount
		snapshot.ResponseTokenCount = a.usage.ResponseTokenCount
		snapshot.TotalTokenCount = a.usage.TotalTokenCount
	}
	a.finalStats = &snapshot
}

func (a *sessionAccounting) tokenUsage() TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

// snapshot assembles the current client-side view of the session stats.
func (a *sessionAccounting) snapshot(now time.Time) events.SessionStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalStats != nil {
		return *a.finalStats
	}

	elapsed := 0.0
	if !a.startedAt.IsZero() {
		elapsed = now.Sub(a.startedAt).Seconds()
	}
	return events.SessionStats{
		MessageCount:       a.messageCount,
		AudioChunksSent:    a.audioChunksSent,
		ElapsedSeconds:     elapsed,
		PromptTokenCount:   a.usage.PromptTokenCount,
		ResponseTokenCount: a.usage.ResponseTokenCount,
		TotalTokenCount:    a.usage.TotalTokenCount,
	}
}
