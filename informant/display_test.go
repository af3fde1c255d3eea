package informant

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func mustHash(t *testing.T, s string) Hash {
	t.Helper()
	h, err := hex.DecodeString(s)
	require.NoError(t, err)
	return h
}

func newPlainDisplay(clock *fakeClock, opts ...Option) *Display {
	opts = append([]Option{
		WithOutput(io.Discard),
		WithColorProfile(termenv.Ascii),
		WithClock(clock.now),
	}, opts...)
	return New(opts...)
}

func chain(t *testing.T, best, finalized uint64) ChainInfo {
	return ChainInfo{
		BestNumber:      best,
		BestHash:        mustHash(t, "4ca8aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa51b8"),
		FinalizedNumber: finalized,
		FinalizedHash:   mustHash(t, "6f24bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbba38b"),
	}
}

func TestLine_IdleThenSyncing(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	d := newPlainDisplay(clock)

	line := d.Line(chain(t, 5, 2), NetworkStatus{}, SyncStatus{}, 3)
	assert.Equal(t, "💤 Idle (3 peers), best: #5 (0x4ca8…51b8), finalized #2 (0x6f24…a38b), ⬇ 0 ⬆ 0", line)

	clock.advance(2 * time.Second)
	line = d.Line(chain(t, 15, 2),
		NetworkStatus{TotalBytesInbound: 11264, TotalBytesOutbound: 2048},
		SyncStatus{State: SyncState{Kind: SyncDownloading, Target: 100}},
		4)
	assert.Equal(t, "⚙️  Syncing  5.0 bps, target=#100 (4 peers), best: #15 (0x4ca8…51b8), finalized #2 (0x6f24…a38b), ⬇ 5.5kiB/s ⬆ 1.0kiB/s", line)
}

func TestLine_RatesWithinOneSecond(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	d := newPlainDisplay(clock)

	clock.advance(500 * time.Millisecond)
	line := d.Line(chain(t, 1, 0), NetworkStatus{TotalBytesInbound: 50, TotalBytesOutbound: 0}, SyncStatus{}, 0)
	assert.Contains(t, line, "⬇ 50 B/s ⬆ 0")

	// Totals were not consumed, so the next interval still sees them.
	clock.advance(time.Second)
	line = d.Line(chain(t, 1, 0), NetworkStatus{TotalBytesInbound: 250, TotalBytesOutbound: 0}, SyncStatus{}, 0)
	assert.Contains(t, line, "⬇ 0.2kiB/s")
}

func TestLine_Preparing(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	d := newPlainDisplay(clock)

	line := d.Line(chain(t, 1, 0), NetworkStatus{}, SyncStatus{State: SyncState{Kind: SyncImporting, Target: 9}}, 1)
	assert.Contains(t, line, "⚙️  Preparing, target=#9 (1 peers)")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name       string
		sync       SyncStatus
		wantLevel  string
		wantStatus string
		wantTarget string
	}{
		{
			name: "block history when not major syncing",
			sync: SyncStatus{
				WarpSync: &WarpSyncProgress{Phase: WarpSyncPhase{Kind: WarpDownloadingBlocks, Block: 77}},
			},
			wantLevel:  "⏩",
			wantStatus: "Block history",
			wantTarget: ", #77",
		},
		{
			name: "block history hidden while major syncing",
			sync: SyncStatus{
				State:    SyncState{Kind: SyncDownloading, Target: 10},
				WarpSync: &WarpSyncProgress{Phase: WarpSyncPhase{Kind: WarpDownloadingBlocks, Block: 77}},
			},
			wantLevel:  "⚙️ ",
			wantStatus: "Syncing 1.0 bps",
			wantTarget: ", target=#10",
		},
		{
			name: "warping",
			sync: SyncStatus{
				WarpSync: &WarpSyncProgress{Phase: WarpSyncPhase{Kind: WarpDownloadingState}, TotalBytes: 3 * 1024 * 1024},
			},
			wantLevel:  "⏩",
			wantStatus: "Warping",
			wantTarget: ", Downloading state, 3.00 Mib",
		},
		{
			name: "state sync",
			sync: SyncStatus{
				StateSync: &StateSyncProgress{Phase: "Downloading state", Percentage: 42, Size: 1024 * 1024 / 2},
			},
			wantLevel:  "⚙️ ",
			wantStatus: "State sync",
			wantTarget: ", Downloading state, 42%, 0.50 Mib",
		},
		{
			name:       "idle",
			wantLevel:  "💤",
			wantStatus: "Idle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, status, target := describe(tt.sync, " 1.0 bps")
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestBlockSpeed(t *testing.T) {
	last := uint64(100)

	assert.Empty(t, blockSpeed(100, nil, time.Second))
	assert.Equal(t, "  5.0 bps", blockSpeed(110, &last, 2*time.Second))
	assert.Equal(t, "  0.0 bps", blockSpeed(90, &last, time.Second), "going backwards saturates")
	assert.Equal(t, "  0.0 bps", blockSpeed(200, &last, 0))
	assert.Equal(t, " 1234.5 bps", blockSpeed(100+12345, &last, 10*time.Second))

	zero := uint64(0)
	assert.NotPanics(t, func() { blockSpeed(^uint64(0), &zero, time.Millisecond) })
}

func TestTransferRate(t *testing.T) {
	tests := []struct {
		want string
		rate TransferRate
	}{
		{rate: 0, want: "0"},
		{rate: 99, want: "99 B/s"},
		{rate: 100, want: "0.1kiB/s"},
		{rate: 5632, want: "5.5kiB/s"},
		{rate: 1024*1024 - 1, want: "1024.0kiB/s"},
		{rate: 1024 * 1024, want: "1.0MiB/s"},
		{rate: 3 * 1024 * 1024 / 2, want: "1.5MiB/s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rate.String())
		})
	}
}

func TestHash(t *testing.T) {
	h := mustHash(t, "4ca8ff0051b8")
	assert.Equal(t, "0x4ca8…51b8", h.Short())
	assert.Equal(t, "0x4ca8ff0051b8", h.String())
	assert.Equal(t, "0x0102", Hash{1, 2}.Short())
}

func TestDisplay_Logs(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}

	var buf bytes.Buffer
	info := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	d := newPlainDisplay(clock, WithLogger(info))
	d.Display(context.Background(), chain(t, 1, 0), NetworkStatus{}, SyncStatus{}, 0)

	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "target=informant")
	assert.Contains(t, buf.String(), "0x4ca8…51b8")

	buf.Reset()
	debug := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d = newPlainDisplay(clock, WithLogger(debug))
	d.Display(context.Background(), chain(t, 1, 0), NetworkStatus{}, SyncStatus{}, 0)

	assert.Contains(t, buf.String(), "0x4ca8aaaa")
	assert.NotContains(t, buf.String(), "…")
}
