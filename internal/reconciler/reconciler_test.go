package reconciler_test

import (
	"context"
	"os"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/kmirror/connector/internal/policy"
	"github.com/kmirror/connector/internal/reconciler"
	"github.com/stretchr/testify/require"
)

type alwaysTrueFilter struct{}

func (alwaysTrueFilter) ShouldReplicateTopic(string) bool          { return true }
func (alwaysTrueFilter) ShouldReplicateConfigProperty(string) bool { return true }

func testLogger() *charmlog.Logger {
	return charmlog.NewWithOptions(os.Stderr, charmlog.Options{Level: charmlog.ErrorLevel})
}

func newBareReconciler() *reconciler.Reconciler {
	return &reconciler.Reconciler{
		SourceAlias:       "source",
		Policy:            policy.DefaultReplicationPolicy{},
		TopicFilter:       alwaysTrueFilter{},
		ConfigFilter:      alwaysTrueFilter{},
		ReplicationFactor: mirror.ReplicationFactorBrokerDefault,
		Logger:            testLogger(),

		RequestTaskReconfiguration: func() {},
	}
}

// TestRefreshTopicPartitions mirrors the original test suite's
// testRefreshTopicPartitions: a source topic-partition appears, the target
// never catches up within the stub, and every tick keeps retrying the
// creation until the target reports the topic exists.
func TestRefreshTopicPartitions(t *testing.T) {
	r := newBareReconciler()

	sourceTPs := []mirror.TopicPartition{{Topic: "topic", Partition: 0}}
	targetTPs := []mirror.TopicPartition{}

	var createTopicsCalls, createPartitionsCalls int
	var lastNewTopics map[string]mirror.NewTopic

	r.FindSourceTopicPartitions = func(ctx context.Context) ([]mirror.TopicPartition, error) {
		return sourceTPs, nil
	}
	r.FindTargetTopicPartitions = func(ctx context.Context) ([]mirror.TopicPartition, error) {
		return targetTPs, nil
	}
	r.DescribeTopicConfigs = func(ctx context.Context, topics []string) (map[string]mirror.TopicConfig, error) {
		return map[string]mirror.TopicConfig{
			"topic": {
				Topic: "topic",
				Entries: []mirror.ConfigEntry{
					{Name: "cleanup.policy", Value: "compact", Source: mirror.ConfigSourceDynamicTopic},
					{Name: "segment.bytes", Value: "100", Source: mirror.ConfigSourceDynamicTopic},
				},
			},
		}, nil
	}
	r.CreateNewTopics = func(ctx context.Context, topics map[string]mirror.NewTopic) error {
		createTopicsCalls++
		lastNewTopics = topics
		return nil
	}
	r.CreateNewPartitions = func(ctx context.Context, totals map[string]int32) error {
		createPartitionsCalls++
		return nil
	}
	require.NoError(t, r.RefreshTopicPartitions(context.Background()))
	// if target topic is not created, refreshTopicPartitions() calls
	// createTopicPartitions() again
	require.NoError(t, r.RefreshTopicPartitions(context.Background()))

	require.Equal(t, 2, createTopicsCalls, "should recompute and recreate every tick until target catches up")
	require.Equal(t, 0, createPartitionsCalls)
	require.Contains(t, lastNewTopics, "source.topic")
	nt := lastNewTopics["source.topic"]
	require.Equal(t, int32(1), nt.PartitionCount)
	require.Len(t, nt.Configs, 2, "configMap has incorrect size")

	// Once the target reports the mirrored topic exists, no further
	// creation attempts should occur.
	targetTPs = []mirror.TopicPartition{{Topic: "source.topic", Partition: 0}}
	require.NoError(t, r.RefreshTopicPartitions(context.Background()))
	require.Equal(t, 2, createTopicsCalls, "no further creation once target has caught up")
}

// TestRefreshTopicPartitionsTopicOnTargetFirst mirrors
// testRefreshTopicPartitionsTopicOnTargetFirst: a topic pre-existing on
// target alone must never trigger reconfiguration; only a change on the
// source side does.
func TestRefreshTopicPartitionsTopicOnTargetFirst(t *testing.T) {
	r := newBareReconciler()

	sourceTPs := []mirror.TopicPartition{}
	targetTPs := []mirror.TopicPartition{{Topic: "source.topic", Partition: 0}}

	var createTopicsCalls, createPartitionsCalls int
	r.FindSourceTopicPartitions = func(ctx context.Context) ([]mirror.TopicPartition, error) { return sourceTPs, nil }
	r.FindTargetTopicPartitions = func(ctx context.Context) ([]mirror.TopicPartition, error) { return targetTPs, nil }
	r.DescribeTopicConfigs = func(ctx context.Context, topics []string) (map[string]mirror.TopicConfig, error) {
		return map[string]mirror.TopicConfig{}, nil
	}
	r.CreateNewTopics = func(ctx context.Context, topics map[string]mirror.NewTopic) error {
		createTopicsCalls++
		return nil
	}
	r.CreateNewPartitions = func(ctx context.Context, totals map[string]int32) error {
		createPartitionsCalls++
		return nil
	}

	require.NoError(t, r.RefreshTopicPartitions(context.Background()))
	require.NoError(t, r.RefreshTopicPartitions(context.Background()))
	require.Zero(t, createTopicsCalls, "partitions appearing on target alone must not trigger reconfiguration")
	require.Zero(t, createPartitionsCalls, "partitions appearing on target alone must not trigger reconfiguration")

	// The mirrored topic already exists on target, so only the source-side
	// change can trigger the pass; it shows up as a partition-count raise.
	sourceTPs = []mirror.TopicPartition{{Topic: "topic", Partition: 0}, {Topic: "topic", Partition: 1}}
	require.NoError(t, r.RefreshTopicPartitions(context.Background()))
	require.Zero(t, createTopicsCalls, "the mirrored topic already exists on target")
	require.Equal(t, 1, createPartitionsCalls, "a source-side change must trigger reconfiguration")
}
