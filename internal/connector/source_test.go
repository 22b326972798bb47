package connector_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/admin/adminfake"
	"github.com/kmirror/connector/internal/connector"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/stretchr/testify/require"
)

func testLogger() *chlog.Logger {
	l := chlog.New(&bytes.Buffer{})
	l.SetLevel(chlog.DebugLevel)
	return l
}

func TestSourceConnectorRefreshCreatesMissingTopics(t *testing.T) {
	source := adminfake.New()
	target := adminfake.New()
	source.SeedTopic("topic1", 3)
	source.SeedConfig(mirror.TopicConfig{
		Topic: "topic1",
		Entries: []mirror.ConfigEntry{
			{Name: "retention.ms", Value: "3600000", Source: mirror.ConfigSourceDynamicTopic},
		},
	})

	cfg := connector.ParseConfig(map[string]string{
		"source.alias": "east",
		"target.alias": "west",
	})

	reconfigured := 0
	sc, err := connector.NewSourceConnector(cfg, source, target, testLogger(), func() { reconfigured++ })
	require.NoError(t, err)

	require.NoError(t, sc.Refresh(context.Background()))

	targetTopics, err := target.ListTopics(context.Background())
	require.NoError(t, err)
	require.Contains(t, targetTopics, "east.topic1")
	require.Len(t, targetTopics["east.topic1"], 3)
	require.Equal(t, 1, reconfigured)

	// a second refresh with nothing changed must not re-trigger reconfiguration
	require.NoError(t, sc.Refresh(context.Background()))
	require.Equal(t, 1, reconfigured)
}

func TestSourceConnectorRefreshNeverReplicatesCycle(t *testing.T) {
	source := adminfake.New()
	target := adminfake.New()
	source.SeedTopic("east.topic1", 1) // already mirrored from east, would cycle back

	cfg := connector.ParseConfig(map[string]string{
		"source.alias": "east",
		"target.alias": "west",
	})
	sc, err := connector.NewSourceConnector(cfg, source, target, testLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, sc.Refresh(context.Background()))

	targetTopics, err := target.ListTopics(context.Background())
	require.NoError(t, err)
	require.Empty(t, targetTopics)
}

func TestSourceConnectorTaskConfigsSplitsPartitions(t *testing.T) {
	source := adminfake.New()
	target := adminfake.New()
	source.SeedTopic("topic1", 4)

	cfg := connector.ParseConfig(map[string]string{
		"source.alias": "east",
		"target.alias": "west",
	})
	sc, err := connector.NewSourceConnector(cfg, source, target, testLogger(), nil)
	require.NoError(t, err)

	configs, err := sc.TaskConfigs(context.Background(), source, 2)
	require.NoError(t, err)
	require.Len(t, configs, 2)
}

func TestSourceConnectorStartAndStop(t *testing.T) {
	source := adminfake.New()
	target := adminfake.New()
	source.SeedTopic("topic1", 1)

	cfg := connector.ParseConfig(map[string]string{
		"source.alias":                    "east",
		"target.alias":                    "west",
		"refresh.topics.interval.seconds": "1",
		"sync.topic.acls.enabled":         "false",
		"sync.topic.configs.enabled":      "false",
	})
	sc, err := connector.NewSourceConnector(cfg, source, target, testLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, sc.Start(context.Background(), testLogger()))
	time.Sleep(50 * time.Millisecond)
	sc.Stop()

	targetTopics, err := target.ListTopics(context.Background())
	require.NoError(t, err)
	require.Contains(t, targetTopics, "east.topic1")
}

// TestSourceConnectorTaskConfigsDeterministicAcrossCalls guards against
// reintroducing map-iteration order into round-robin task assignment: the
// same known topic-partitions must always split the same way, not reshuffle
// between calls.
func TestSourceConnectorTaskConfigsDeterministicAcrossCalls(t *testing.T) {
	source := adminfake.New()
	target := adminfake.New()
	source.SeedTopic("orders", 4)
	source.SeedTopic("payments", 4)
	source.SeedTopic("shipments", 4)

	cfg := connector.ParseConfig(map[string]string{
		"source.alias": "east",
		"target.alias": "west",
	})
	sc, err := connector.NewSourceConnector(cfg, source, target, testLogger(), nil)
	require.NoError(t, err)

	first, err := sc.TaskConfigs(context.Background(), source, 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := sc.TaskConfigs(context.Background(), source, 3)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

// TestSourceConnectorSyncTopicConfigsPushesConfigDriftToTarget confirms C5's
// ongoing config sync, distinct from the one-time projection Refresh does
// at topic-creation time: a config change on an already-mirrored source
// topic must reach its existing target mirror.
func TestSourceConnectorSyncTopicConfigsPushesConfigDriftToTarget(t *testing.T) {
	source := adminfake.New()
	target := adminfake.New()
	source.SeedTopic("orders", 1)
	source.SeedConfig(mirror.TopicConfig{
		Topic: "orders",
		Entries: []mirror.ConfigEntry{
			{Name: "retention.ms", Value: "3600000", Source: mirror.ConfigSourceDynamicTopic},
		},
	})

	cfg := connector.ParseConfig(map[string]string{
		"source.alias": "east",
		"target.alias": "west",
	})
	sc, err := connector.NewSourceConnector(cfg, source, target, testLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, sc.Refresh(context.Background()))

	targetConfigs, err := target.DescribeConfigs(context.Background(), []string{"east.orders"})
	require.NoError(t, err)
	require.Equal(t, "3600000", targetConfigs["east.orders"].AsMap()["retention.ms"])

	// source config drifts after the topic already exists on target
	source.SeedConfig(mirror.TopicConfig{
		Topic: "orders",
		Entries: []mirror.ConfigEntry{
			{Name: "retention.ms", Value: "7200000", Source: mirror.ConfigSourceDynamicTopic},
		},
	})

	require.NoError(t, sc.SyncTopicConfigs(context.Background()))

	targetConfigs, err = target.DescribeConfigs(context.Background(), []string{"east.orders"})
	require.NoError(t, err)
	require.Equal(t, "7200000", targetConfigs["east.orders"].AsMap()["retention.ms"])
}
