package informant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const mib = 1024.0 * 1024.0

// Option configures a Display.
type Option func(*Display)

// WithLogger sets the logger Display writes to. Full hashes are printed
// when it has debug enabled.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Display) {
		d.logger = logger
	}
}

// WithOutput styles for the terminal behind w.
func WithOutput(w io.Writer) Option {
	return func(d *Display) {
		d.renderer = lipgloss.NewRenderer(w)
	}
}

// WithColorProfile forces a color profile, e.g. termenv.Ascii for plain text.
func WithColorProfile(profile termenv.Profile) Option {
	return func(d *Display) {
		d.profile = &profile
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Display) {
		d.now = now
	}
}

// Display keeps the state needed to compute speeds between calls.
// It is not safe for concurrent use.
type Display struct {
	lastUpdate   time.Time
	logger       *slog.Logger
	renderer     *lipgloss.Renderer
	profile      *termenv.Profile
	now          func() time.Time
	lastNumber   *uint64
	lastInbound  uint64
	lastOutbound uint64

	bold  lipgloss.Style
	green lipgloss.Style
	red   lipgloss.Style
}

// New creates a Display; the first speed is measured from now.
func New(opts ...Option) *Display {
	d := &Display{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.renderer == nil {
		d.renderer = lipgloss.NewRenderer(os.Stderr)
	}
	if d.profile != nil {
		d.renderer.SetColorProfile(*d.profile)
	}
	d.bold = d.renderer.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	d.green = d.renderer.NewStyle().Foreground(lipgloss.Color("2"))
	d.red = d.renderer.NewStyle().Foreground(lipgloss.Color("1"))
	d.lastUpdate = d.now()
	return d
}

// Display logs the status line at info level.
func (d *Display) Display(ctx context.Context, info ChainInfo, net NetworkStatus, sync SyncStatus, peers int) {
	line := d.line(d.logger.Enabled(ctx, slog.LevelDebug), info, net, sync, peers)
	d.logger.InfoContext(ctx, line, "target", "informant")
}

// Line renders the status line and advances the display state.
func (d *Display) Line(info ChainInfo, net NetworkStatus, sync SyncStatus, peers int) string {
	return d.line(false, info, net, sync, peers)
}

func (d *Display) line(fullHashes bool, info ChainInfo, net NetworkStatus, sync SyncStatus, peers int) string {
	now := d.now()
	speed := blockSpeed(info.BestNumber, d.lastNumber, now.Sub(d.lastUpdate))

	elapsed := uint64(now.Sub(d.lastUpdate) / time.Second) //nolint:gosec // G115: clock only moves forward
	d.lastUpdate = now
	best := info.BestNumber
	d.lastNumber = &best

	diffIn := sub(net.TotalBytesInbound, d.lastInbound)
	diffOut := sub(net.TotalBytesOutbound, d.lastOutbound)
	rateIn, rateOut := TransferRate(diffIn), TransferRate(diffOut)
	if elapsed > 0 {
		d.lastInbound = net.TotalBytesInbound
		d.lastOutbound = net.TotalBytesOutbound
		rateIn, rateOut = TransferRate(diffIn/elapsed), TransferRate(diffOut/elapsed)
	}

	level, status, target := describe(sync, speed)

	hash := Hash.Short
	if fullHashes {
		hash = Hash.String
	}

	return fmt.Sprintf("%s %s%s (%s peers), best: #%s (%s), finalized #%s (%s), ⬇ %s ⬆ %s",
		level,
		d.bold.Render(status),
		target,
		d.bold.Render(strconv.Itoa(peers)),
		d.bold.Render(strconv.FormatUint(info.BestNumber, 10)),
		hash(info.BestHash),
		d.bold.Render(strconv.FormatUint(info.FinalizedNumber, 10)),
		hash(info.FinalizedHash),
		d.green.Render(rateIn.String()),
		d.red.Render(rateOut.String()),
	)
}

// describe picks the icon, status and target text. Block history is only
// shown once the node is no longer major syncing.
func describe(sync SyncStatus, speed string) (level, status, target string) {
	if warp := sync.WarpSync; warp != nil {
		if warp.Phase.Kind == WarpDownloadingBlocks {
			if !sync.State.IsMajorSyncing() {
				return "⏩", "Block history", fmt.Sprintf(", #%d", warp.Phase.Block)
			}
		} else {
			return "⏩", "Warping", fmt.Sprintf(", %s, %.2f Mib", warp.Phase, float64(warp.TotalBytes)/mib)
		}
	}
	if state := sync.StateSync; state != nil {
		return "⚙️ ", "State sync", fmt.Sprintf(", %s, %d%%, %.2f Mib", state.Phase, state.Percentage, float64(state.Size)/mib)
	}
	switch sync.State.Kind {
	case SyncDownloading:
		return "⚙️ ", "Syncing" + speed, fmt.Sprintf(", target=#%d", sync.State.Target)
	case SyncImporting:
		return "⚙️ ", "Preparing" + speed, fmt.Sprintf(", target=#%d", sync.State.Target)
	default:
		return "💤", "Idle", ""
	}
}

// blockSpeed formats the import speed in blocks per second, or "" before
// the first sample.
func blockSpeed(best uint64, last *uint64, elapsed time.Duration) string {
	if last == nil {
		return ""
	}
	diff := sub(best, *last)
	elapsedMs := elapsed.Milliseconds()

	var speed float64
	if elapsedMs > 0 {
		// diff*10_000 can overflow uint64; the division is exact in big.Int.
		scaled := new(big.Int).Mul(new(big.Int).SetUint64(diff), big.NewInt(10_000))
		scaled.Quo(scaled, big.NewInt(elapsedMs))
		f, _ := new(big.Float).SetInt(scaled).Float64()
		speed = f / 10.0
	}
	return fmt.Sprintf(" %4.1f bps", speed)
}

func sub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
