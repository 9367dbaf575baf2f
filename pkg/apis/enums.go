// Package apis holds the PipeBuilder resource model: the types stored
// in the registry and content store, and the small closed enumerations
// that describe their lifecycle.
package apis

import "fmt"

// NodeRole identifies which of the four long-running node kinds a
// NodeState record describes.
type NodeRole string

const (
	NodeRoleAPI        NodeRole = "Api"
	NodeRoleBuilder    NodeRole = "Builder"
	NodeRoleRepository NodeRole = "Repository"
	NodeRoleScheduler  NodeRole = "Scheduler"
)

func (r NodeRole) Valid() bool {
	switch r {
	case NodeRoleAPI, NodeRoleBuilder, NodeRoleRepository, NodeRoleScheduler:
		return true
	default:
		return false
	}
}

// NodeStatus is the advisory status flag flipped by a node's control
// interface and published on the next heartbeat.
type NodeStatus string

const (
	NodeStatusActive   NodeStatus = "Active"
	NodeStatusInactive NodeStatus = "Inactive"
	NodeStatusShutdown NodeStatus = "Shutdown"
)

func (s NodeStatus) Valid() bool {
	switch s {
	case NodeStatusActive, NodeStatusInactive, NodeStatusShutdown:
		return true
	default:
		return false
	}
}

// BuildStatus is the closed set of phases a build moves through. Every
// phase after Create is reported by the (externally modeled) build
// executor; PipeBuilder itself only ever records the transition.
type BuildStatus string

const (
	BuildStatusCreate     BuildStatus = "Create"
	BuildStatusPull       BuildStatus = "Pull"
	BuildStatusValidate   BuildStatus = "Validate"
	BuildStatusInitialize BuildStatus = "Initialize"
	BuildStatusGenerate   BuildStatus = "Generate"
	BuildStatusBuild      BuildStatus = "Build"
	BuildStatusStore      BuildStatus = "Store"
	BuildStatusPublish    BuildStatus = "Publish"
	BuildStatusSucceed    BuildStatus = "Succeed"
	BuildStatusFail       BuildStatus = "Fail"
	BuildStatusCancel     BuildStatus = "Cancel"
)

// Terminal reports whether status is one of the three terminal states a
// BuildMetadata record must reach before it may be deleted.
func (s BuildStatus) Terminal() bool {
	switch s {
	case BuildStatusSucceed, BuildStatusFail, BuildStatusCancel:
		return true
	default:
		return false
	}
}

func (s BuildStatus) Valid() bool {
	switch s {
	case BuildStatusCreate, BuildStatusPull, BuildStatusValidate, BuildStatusInitialize,
		BuildStatusGenerate, BuildStatusBuild, BuildStatusStore, BuildStatusPublish,
		BuildStatusSucceed, BuildStatusFail, BuildStatusCancel:
		return true
	default:
		return false
	}
}

// EventType tags a watch notification as an upsert or a removal.
type EventType int

const (
	EventPut EventType = iota
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventPut:
		return "Put"
	case EventDelete:
		return "Delete"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// ContentKind enumerates the versioned blob kinds the repository
// manages, and carries the on-disk target file name each kind is
// stored under.
type ContentKind string

const (
	ContentKindManifest      ContentKind = "manifest"
	ContentKindCatalogs      ContentKind = "catalogs"
	ContentKindCatalogSchema ContentKind = "catalog-schema"
	ContentKindApp           ContentKind = "app"
	ContentKindBuild         ContentKind = "build"
)

// TargetName returns the fixed file name a blob of this kind is stored
// under within its (namespace, id, version) directory.
func (k ContentKind) TargetName() string {
	switch k {
	case ContentKindManifest:
		return "pipe.yml"
	case ContentKindCatalogs:
		return "catalogs.yml"
	case ContentKindCatalogSchema:
		return "schema.yml"
	case ContentKindApp:
		return "app"
	default:
		return string(k)
	}
}

func (k ContentKind) Valid() bool {
	switch k {
	case ContentKindManifest, ContentKindCatalogs, ContentKindCatalogSchema, ContentKindApp, ContentKindBuild:
		return true
	default:
		return false
	}
}
