package informant

import (
	"encoding/hex"
	"fmt"
)

// Hash is a block hash.
type Hash []byte

// Short renders the hash as 0x plus the first and last two bytes.
func (h Hash) Short() string {
	if len(h) <= 4 {
		return h.String()
	}
	return "0x" + hex.EncodeToString(h[:2]) + "…" + hex.EncodeToString(h[len(h)-2:])
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h)
}

// ChainInfo is the head of the local chain.
type ChainInfo struct {
	BestHash        Hash
	FinalizedHash   Hash
	BestNumber      uint64
	FinalizedNumber uint64
}

// NetworkStatus carries the running byte totals of the network service.
type NetworkStatus struct {
	TotalBytesInbound  uint64
	TotalBytesOutbound uint64
}

// SyncStateKind is the block sync state.
type SyncStateKind int

const (
	SyncIdle SyncStateKind = iota
	SyncDownloading
	SyncImporting
)

// SyncState is the block sync state and its target block.
type SyncState struct {
	Kind   SyncStateKind
	Target uint64
}

// IsMajorSyncing reports whether the node is catching up with the chain.
func (s SyncState) IsMajorSyncing() bool {
	return s.Kind != SyncIdle
}

// StateSyncProgress reports a state download.
type StateSyncProgress struct {
	Phase      string
	Size       uint64
	Percentage uint32
}

// WarpPhaseKind is the stage of a warp sync.
type WarpPhaseKind int

const (
	WarpAwaitingPeers WarpPhaseKind = iota
	WarpDownloadingProofs
	WarpDownloadingTargetBlock
	WarpDownloadingState
	WarpImportingState
	WarpDownloadingBlocks
	WarpComplete
)

// WarpSyncPhase is a warp sync stage. Block is the current block while
// downloading block history.
type WarpSyncPhase struct {
	Kind  WarpPhaseKind
	Block uint64
}

func (p WarpSyncPhase) String() string {
	switch p.Kind {
	case WarpAwaitingPeers:
		return "Waiting for peers"
	case WarpDownloadingProofs:
		return "Downloading finality proofs"
	case WarpDownloadingTargetBlock:
		return "Downloading target block"
	case WarpDownloadingState:
		return "Downloading state"
	case WarpImportingState:
		return "Importing state"
	case WarpDownloadingBlocks:
		return fmt.Sprintf("Downloading block history (#%d)", p.Block)
	case WarpComplete:
		return "Warp sync is complete"
	default:
		return "Unknown"
	}
}

// WarpSyncProgress reports a warp sync.
type WarpSyncProgress struct {
	Phase      WarpSyncPhase
	TotalBytes uint64
}

// SyncStatus is everything the sync service reports for one line.
type SyncStatus struct {
	StateSync *StateSyncProgress
	WarpSync  *WarpSyncProgress
	State     SyncState
}

// TransferRate is a number of bytes per second.
type TransferRate uint64

func (r TransferRate) String() string {
	switch {
	case r == 0:
		return "0"
	case r < 100:
		return fmt.Sprintf("%d B/s", uint64(r))
	case r < 1024*1024:
		return fmt.Sprintf("%.1fkiB/s", float64(r)/1024.0)
	default:
		return fmt.Sprintf("%.1fMiB/s", float64(r)/(1024.0*1024.0))
	}
}
