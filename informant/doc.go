// Package informant renders the periodic node status line:
//
//	⚙️  Syncing  5.4 bps, target=#531028 (4 peers), best: #90683 (0x4ca8…51b8), finalized #360 (0x6f24…a38b), ⬇ 5.5kiB/s ⬆ 0.9kiB/s
//
// Create a Display once and call Display (or Line) at a regular interval;
// speeds and transfer rates are averaged over the time since the previous
// call.
package informant
