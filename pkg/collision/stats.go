// pkg/collision/stats.go
package collision

// Stats describes the latest rebuild of a group. Overflow counts nodes handed
// out beyond the preallocated pool; a steady nonzero value means the pool
// depth is too small for the scene. Unplaced counts members whose box could
// not be placed in the tree at all.
type Stats struct {
	Rebuilds       uint64 `json:"rebuilds" msgpack:"rebuilds"`
	Bodies         int    `json:"bodies" msgpack:"bodies"`
	Nodes          int    `json:"nodes" msgpack:"nodes"`
	PoolCapacity   int    `json:"pool_capacity" msgpack:"pool_capacity"`
	EffectiveDepth uint   `json:"effective_depth" msgpack:"effective_depth"`
	Unplaced       int    `json:"unplaced" msgpack:"unplaced"`

	Overflow       int    `json:"overflow" msgpack:"overflow"`
	TotalOverflow  uint64 `json:"total_overflow" msgpack:"total_overflow"`
	OverflowFrames uint64 `json:"overflow_frames" msgpack:"overflow_frames"`
	OverflowStreak uint64 `json:"overflow_streak" msgpack:"overflow_streak"`
}
