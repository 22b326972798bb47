// Package admin defines the capability surface the connector core needs
// from a Kafka-like cluster. The reconciler, ACL sync engine, and config
// sync engine are written against this interface, never against a
// concrete client, so they can be tested against internal/admin/adminfake
// instead of a live broker.
package admin

import (
	"context"
	"errors"

	"github.com/kmirror/connector/internal/mirror"
)

// ErrSecurityDisabled is returned by DescribeAcls when the cluster it is
// called on reports that no ACL authorizer is configured. The ACL sync engine treats
// this as a one-time warning, not a fatal error: a cluster legitimately
// running without ACL enforcement should not block topic/config
// replication.
var ErrSecurityDisabled = errors.New("admin: security/ACL authorizer disabled on cluster")

// Client is the administrative capability a connector needs from one side
// (source or target) of a replication pair.
type Client interface {
	// ListTopics returns every non-internal topic's partitions, keyed by
	// topic name.
	ListTopics(ctx context.Context) (map[string][]mirror.TopicPartition, error)

	// DescribeConfigs returns the dynamic topic-level configuration for
	// each requested topic.
	DescribeConfigs(ctx context.Context, topics []string) (map[string]mirror.TopicConfig, error)

	// DescribeAcls returns every ACL binding on TOPIC resources with
	// LITERAL pattern type and ALLOW or DENY permission. Returns
	// ErrSecurityDisabled if the cluster has no ACL authorizer.
	DescribeAcls(ctx context.Context) ([]mirror.AclBinding, error)

	// CreateTopics creates the given topics, tolerating (not erroring on)
	// ones that already exist.
	CreateTopics(ctx context.Context, topics []mirror.NewTopic) error

	// CreatePartitions raises the partition count of existing topics to
	// the given totals.
	CreatePartitions(ctx context.Context, totals map[string]int32) error

	// CreateAcls installs the given ACL bindings, tolerating ones that
	// already exist.
	CreateAcls(ctx context.Context, bindings []mirror.AclBinding) error

	// AlterTopicConfigs upserts each given topic's config entries against
	// an already-existing topic, one call per described mirror.TopicConfig.
	// Unlike CreateTopics' Configs map (applied only at creation time),
	// this is how config drift on a topic that already has a mirror gets
	// pushed to target on an ongoing basis.
	AlterTopicConfigs(ctx context.Context, configs []mirror.TopicConfig) error

	// ListConsumerGroups returns the IDs of every consumer group on the
	// cluster.
	ListConsumerGroups(ctx context.Context) ([]string, error)

	// ListConsumerGroupOffsets returns the committed offsets for every
	// topic-partition a group has committed against.
	ListConsumerGroupOffsets(ctx context.Context, group string) (map[mirror.TopicPartition]int64, error)

	// Close releases the underlying connection.
	Close()
}

// IsTransient reports whether err is the kind of error worth retrying on
// the next scheduler tick rather than surfacing as a connector failure —
// broker unavailability, timeouts, and similar. The connector core treats
// everything else as worth logging loudly but not crashing over, since a
// single tick failure is recovered by the next one.
func IsTransient(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
