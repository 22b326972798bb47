// Package policy implements the replication-name mapping between a source
// cluster's topics and their mirrored names on the target, plus the
// cycle-detection predicate every replication decision runs through.
package policy

// ReplicationPolicy decides what a source topic is called once mirrored on
// the target, and the inverse. Implementations must be pure and must keep
// the invariant UpstreamTopic(FormatRemote(source, t)) == t.
type ReplicationPolicy interface {
	// FormatRemote returns the name the given topic takes on once mirrored
	// from the cluster identified by sourceAlias.
	FormatRemote(sourceAlias, topic string) string

	// UpstreamTopic returns topic's name with its leading mirror prefix
	// removed (the topic it was mirrored from), or ok=false if topic carries
	// no recognizable upstream prefix.
	UpstreamTopic(topic string) (upstream string, ok bool)

	// IsInternalTopic reports whether topic counts as internal to the
	// connector. Both policies here count heartbeat topics;
	// DefaultReplicationPolicy also counts names starting with "__". The
	// checkpoints topic is not counted.
	IsInternalTopic(topic string) bool

	// OriginalTopic iteratively strips upstream prefixes until a fixed
	// point, returning the topic name with no remaining mirror prefix.
	OriginalTopic(topic string) string
}
