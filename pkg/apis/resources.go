package apis

import "time"

// Namespace is a directory record stored under /namespace/<id>: its
// id and the time it was last created or touched.
type Namespace struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
}

// Project is a directory record scoped to a namespace.
type Project struct {
	Namespace string    `json:"namespace"`
	ID        string    `json:"id"`
	Created   time.Time `json:"created"`
}

// NodeState is the lease-bound liveness/identity record a node writes
// on every heartbeat. Its disappearance (lease expiry) means the node
// is down.
type NodeState struct {
	ID              string         `json:"id"`
	Role            NodeRole       `json:"role"`
	Arch            string         `json:"arch"`
	OS              string         `json:"os"`
	TargetPlatform  TargetPlatform `json:"target_platform,omitempty"`
	InternalAddress string         `json:"internal_address"`
	ExternalAddress string         `json:"external_address"`
	Status          NodeStatus     `json:"status"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Snapshot is the per-(namespace,id) monotonic version counter for a
// given versioned resource kind X. UpdateSnapshotResource is the only
// legitimate mutator.
type Snapshot struct {
	ID            string `json:"id"`
	LatestVersion uint64 `json:"latest_version"`
}

// BlobMetadata is the per-version bookkeeping record created the first
// time a version is written and refreshed (pulls incremented) on every
// subsequent read.
type BlobMetadata struct {
	Namespace string    `json:"namespace"`
	ID        string    `json:"id"`
	Version   uint64    `json:"version"`
	Pulls     uint64    `json:"pulls"`
	Size      int64     `json:"size"`
	Created   time.Time `json:"created"`
}

// BuildMetadata is the per-build record tracking placement and
// lifecycle status.
type BuildMetadata struct {
	Namespace       string         `json:"namespace"`
	ID              string         `json:"id"`
	Version         uint64         `json:"version"`
	ManifestVersion uint64         `json:"manifest_version"`
	TargetPlatform  TargetPlatform `json:"target_platform"`
	Status          BuildStatus    `json:"status"`
	Timestamp       time.Time      `json:"timestamp"`
	BuilderID       string         `json:"builder_id"`
	BuilderAddress  string         `json:"builder_address"`
	Message         string         `json:"message,omitempty"`
}

// WatchEvent is a single notification delivered by WatchPrefix: a Put
// carries the raw stored value, a Delete carries none.
type WatchEvent struct {
	Type  EventType
	Key   string
	Value []byte
}
