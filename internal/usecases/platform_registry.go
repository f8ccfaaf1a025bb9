package usecases

import (
	"sync"
	"time"

	"eqic-a2a.backend/internal/domain/entities"
)

// Compatibility reason strings surfaced to callers. Lookups never error;
// an incompatible result carries one of these instead.
const (
	ReasonPlatformNotFound     = "one or both platforms not found"
	ReasonPlatformNotSupported = "one or both platforms not currently supported"
)

// Estimated time buckets for a compatibility check.
const (
	TimeBucketSamePlatform = "< 5 minutes"
	TimeBucketStandard     = "5-15 minutes"
	TimeBucketBridge       = "15-30 minutes"
)

// BridgeFeeSurcharge is the flat fee added when a pair has no direct
// settlement path and must hop through a bridge.
const BridgeFeeSurcharge = 1.5

const bridgeTransferNote = "Requires bridge transfer between networks"

// BridgePair identifies an unordered platform pair that requires a bridge hop.
type BridgePair struct {
	A string
	B string
}

// RegistryConfig seeds the platform registry at construction time.
type RegistryConfig struct {
	Platforms   []entities.Platform
	BridgePairs []BridgePair
}

// PlatformRegistry is the single source of truth for platform metadata and
// pairwise compatibility, fee and time estimation. It is constructed
// explicitly and safe for concurrent use.
type PlatformRegistry struct {
	mu          sync.RWMutex
	platforms   map[string]*entities.Platform
	order       []string
	bridgePairs map[BridgePair]struct{}
}

// NewPlatformRegistry creates a registry seeded from config. Duplicate
// platform IDs keep the first registration; later duplicates are ignored.
func NewPlatformRegistry(cfg RegistryConfig) *PlatformRegistry {
	r := &PlatformRegistry{
		platforms:   make(map[string]*entities.Platform),
		bridgePairs: make(map[BridgePair]struct{}),
	}
	now := time.Now()
	for i := range cfg.Platforms {
		p := cfg.Platforms[i]
		if p.ID == "" {
			continue
		}
		if _, exists := r.platforms[p.ID]; exists {
			continue
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		r.platforms[p.ID] = &p
		r.order = append(r.order, p.ID)
	}
	for _, pair := range cfg.BridgePairs {
		r.bridgePairs[normalizePair(pair.A, pair.B)] = struct{}{}
	}
	return r
}

// normalizePair orders a pair so the bridge relation stays symmetric.
func normalizePair(a, b string) BridgePair {
	if a > b {
		a, b = b, a
	}
	return BridgePair{A: a, B: b}
}

// ListPlatforms returns platforms in registration order. When activeOnly is
// true only supported platforms are returned.
func (r *PlatformRegistry) ListPlatforms(activeOnly bool) []entities.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]entities.Platform, 0, len(r.order))
	for _, id := range r.order {
		p := r.platforms[id]
		if activeOnly && !p.Supported {
			continue
		}
		platforms = append(platforms, *p)
	}
	return platforms
}

// GetPlatform looks up a platform by exact ID. The second return value
// reports whether the platform is registered.
func (r *PlatformRegistry) GetPlatform(id string) (entities.Platform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.platforms[id]
	if !ok {
		return entities.Platform{}, false
	}
	return *p, true
}

// CheckCompatibility computes whether assets can move from source to target
// and at what estimated cost. Same-platform transfers are legal and map to
// the fast, no-bridge case.
func (r *PlatformRegistry) CheckCompatibility(sourceID, targetID string) entities.CompatibilityResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, sourceOK := r.platforms[sourceID]
	target, targetOK := r.platforms[targetID]
	if !sourceOK || !targetOK {
		return entities.CompatibilityResult{
			Compatible: false,
			Reason:     ReasonPlatformNotFound,
		}
	}

	if !source.Supported || !target.Supported {
		return entities.CompatibilityResult{
			Compatible: false,
			Reason:     ReasonPlatformNotSupported,
		}
	}

	_, requiresBridge := r.bridgePairs[normalizePair(sourceID, targetID)]

	// Source-side fee dominates: the request originates its settlement cost
	// there, the target side only credits the incoming record.
	baseFee := source.TransferFeeBaseRate + target.TransferFeeBaseRate*0.5
	bridgeFee := 0.0
	if requiresBridge {
		bridgeFee = BridgeFeeSurcharge
	}

	estimatedTime := TimeBucketStandard
	if requiresBridge {
		estimatedTime = TimeBucketBridge
	} else if sourceID == targetID {
		estimatedTime = TimeBucketSamePlatform
	}

	notes := ""
	if requiresBridge {
		notes = bridgeTransferNote
	}

	return entities.CompatibilityResult{
		Compatible:     true,
		RequiresBridge: requiresBridge,
		EstimatedFee:   baseFee + bridgeFee,
		EstimatedTime:  estimatedTime,
		Notes:          notes,
	}
}

// UpdatePlatform merges the set fields of update into an existing platform.
// Returns false when the ID is unknown; it never creates a platform and the
// ID itself is immutable. The merge is atomic per platform.
func (r *PlatformRegistry) UpdatePlatform(id string, update entities.PlatformUpdate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.platforms[id]
	if !ok {
		return false
	}

	if update.Name.Valid {
		p.Name = update.Name.String
	}
	if update.Description.Valid {
		p.Description = update.Description.String
	}
	if update.Icon.Valid {
		p.Icon = update.Icon.String
	}
	if update.TransferFeeBaseRate.Valid {
		p.TransferFeeBaseRate = update.TransferFeeBaseRate.Float64
	}
	if update.EstimatedTime.Valid {
		p.EstimatedTime = update.EstimatedTime.String
	}
	if update.Supported.Valid {
		p.Supported = update.Supported.Bool
	}
	if update.TestnetAvailable.Valid {
		p.TestnetAvailable = update.TestnetAvailable.Bool
	}
	if update.MainnetAvailable.Valid {
		p.MainnetAvailable = update.MainnetAvailable.Bool
	}
	return true
}

// SupportedPlatformIDs returns the IDs of currently supported platforms, in
// registration order. The transfer engine snapshots this set at construction
// for its cheap local validity check.
func (r *PlatformRegistry) SupportedPlatformIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.platforms[id].Supported {
			ids = append(ids, id)
		}
	}
	return ids
}

// DefaultRegistryConfig returns the built-in platform catalog and bridge
// rules used when no overrides are configured.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Platforms: []entities.Platform{
			{
				ID:                  "solana",
				Name:                "Solana",
				Icon:                "solana-logo.svg",
				Description:         "High-performance blockchain with low transaction costs",
				TransferFeeBaseRate: 0.5,
				EstimatedTime:       "< 1 minute",
				Supported:           true,
				TestnetAvailable:    true,
				MainnetAvailable:    true,
			},
			{
				ID:                  "ethereum",
				Name:                "Ethereum",
				Icon:                "ethereum-logo.svg",
				Description:         "Established blockchain with strong security and widespread adoption",
				TransferFeeBaseRate: 2.0,
				EstimatedTime:       "5-10 minutes",
				Supported:           true,
				TestnetAvailable:    true,
				MainnetAvailable:    true,
			},
			{
				ID:                  "polygon",
				Name:                "Polygon",
				Icon:                "polygon-logo.svg",
				Description:         "Ethereum scaling solution with fast and inexpensive transactions",
				TransferFeeBaseRate: 0.8,
				EstimatedTime:       "1-2 minutes",
				Supported:           true,
				TestnetAvailable:    true,
				MainnetAvailable:    true,
			},
			{
				ID:                  "immutablex",
				Name:                "ImmutableX",
				Icon:                "immutablex-logo.svg",
				Description:         "Layer 2 scaling solution for NFTs with zero gas fees",
				TransferFeeBaseRate: 1.0,
				EstimatedTime:       "1-3 minutes",
				Supported:           true,
				TestnetAvailable:    true,
				MainnetAvailable:    false,
			},
			{
				ID:                  "flow",
				Name:                "Flow",
				Icon:                "flow-logo.svg",
				Description:         "Developer-friendly blockchain built for games and digital assets",
				TransferFeeBaseRate: 1.2,
				EstimatedTime:       "2-4 minutes",
				Supported:           true,
				TestnetAvailable:    true,
				MainnetAvailable:    false,
			},
		},
		BridgePairs: []BridgePair{
			{A: "solana", B: "flow"},
		},
	}
}
