// Package registry is the typed wrapper over the strongly-consistent
// KV store: a thin clientv3 transport layer plus the resource-shaped
// operations (snapshot allocation, blob metadata, lease-bound node
// state, prefix watch) everything else in PipeBuilder builds on.
package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
)

const (
	prefixNamespace = "/namespace"
	prefixProject   = "/project"
	prefixNode      = "/node"
)

// NamespaceKey returns the key for a Namespace record.
func NamespaceKey(id string) string {
	return fmt.Sprintf("%s/%s", prefixNamespace, id)
}

// NamespacePrefix returns the key prefix under which every Namespace
// record lives.
func NamespacePrefix() string {
	return prefixNamespace + "/"
}

// ProjectPrefix returns the key prefix under which every Project of a
// namespace lives; passing it with no id yields the existence-probe
// prefix used by DeleteNamespace's precondition check.
func ProjectPrefix(namespace string) string {
	return fmt.Sprintf("%s/%s/", prefixProject, namespace)
}

// ProjectKey returns the key for a single Project record.
func ProjectKey(namespace, id string) string {
	return fmt.Sprintf("%s/%s/%s", prefixProject, namespace, id)
}

// NodeKey returns the key a node's heartbeat writes NodeState under.
// Nesting under role lets a watcher subscribe to a single role's key
// range directly instead of decoding every node's role out of the
// watched value, which a Delete event (lease expiry) carries none of.
func NodeKey(role apis.NodeRole, id string) string {
	return fmt.Sprintf("%s/%s/%s", prefixNode, role, id)
}

// NodePrefix returns the watch/list prefix for all nodes, or all nodes
// of a single role when role is non-empty.
func NodePrefix(role apis.NodeRole) string {
	if role == "" {
		return prefixNode + "/"
	}
	return fmt.Sprintf("%s/%s/", prefixNode, role)
}

// ParseNodeKey extracts the node id from a key produced by NodeKey.
func ParseNodeKey(role apis.NodeRole, key string) (id string, ok bool) {
	prefix := NodePrefix(role)
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, prefix), true
}

// SnapshotKey returns the snapshot-counter key for a versioned
// resource kind under (namespace, id).
func SnapshotKey(kind apis.ContentKind, namespace, id string) string {
	return fmt.Sprintf("/%s/snapshot/%s/%s", kind, namespace, id)
}

// SnapshotPrefix returns the prefix of every snapshot of kind under a
// namespace, or under a namespace+id when id is non-empty.
func SnapshotPrefix(kind apis.ContentKind, namespace, id string) string {
	if id == "" {
		return fmt.Sprintf("/%s/snapshot/%s/", kind, namespace)
	}
	return fmt.Sprintf("/%s/snapshot/%s/%s", kind, namespace, id)
}

// MetadataKey returns the per-version metadata key for a versioned
// resource kind.
func MetadataKey(kind apis.ContentKind, namespace, id string, version uint64) string {
	return fmt.Sprintf("/%s/metadata/%s/%s/%d", kind, namespace, id, version)
}

// MetadataPrefix returns the prefix of every metadata key of kind
// under (namespace, id); id may be empty to scan the whole namespace.
func MetadataPrefix(kind apis.ContentKind, namespace, id string) string {
	if id == "" {
		return fmt.Sprintf("/%s/metadata/%s/", kind, namespace)
	}
	return fmt.Sprintf("/%s/metadata/%s/%s/", kind, namespace, id)
}

// ProjectBlobPrefixes returns the metadata and snapshot prefixes of
// every versioned kind belonging to a project; used by
// DeleteProject's referential-integrity probe.
func ProjectBlobPrefixes(namespace, id string) []string {
	kinds := []apis.ContentKind{
		apis.ContentKindManifest, apis.ContentKindCatalogs,
		apis.ContentKindCatalogSchema, apis.ContentKindApp, apis.ContentKindBuild,
	}
	out := make([]string, 0, len(kinds)*2)
	for _, k := range kinds {
		out = append(out, MetadataPrefix(k, namespace, id), SnapshotPrefix(k, namespace, id))
	}
	return out
}

// ParseMetadataKey extracts (namespace, id, version) from a metadata
// key produced by MetadataKey. It is used to reconstruct list
// responses from a raw prefix scan.
func ParseMetadataKey(kind apis.ContentKind, key string) (namespace, id string, version uint64, err error) {
	prefix := fmt.Sprintf("/%s/metadata/", kind)
	if !strings.HasPrefix(key, prefix) {
		return "", "", 0, fmt.Errorf("key %q does not have metadata prefix %q", key, prefix)
	}
	rest := strings.TrimPrefix(key, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("malformed metadata key %q", key)
	}
	version, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("malformed version in key %q: %w", key, err)
	}
	return parts[0], parts[1], version, nil
}
