// Package topicconfig projects a source topic's described configuration
// down to the subset that should be applied to its mirror on the target
// cluster.
// Package topicconfig projects a source topic's described configuration
// down to the subset that should be applied to its mirror on the target
// cluster, and syncs that projection to already-existing target topics on a
// repeating schedule — the ongoing counterpart to the one-time projection
// internal/reconciler applies when it creates a topic for the first time.
package topicconfig

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/kmirror/connector/internal/policy"
)

// PropertyFilter decides whether a single config property name is eligible
// for replication (internal/filter.ConfigPropertyFilter satisfies this).
type PropertyFilter interface {
	ShouldReplicateConfigProperty(name string) bool
}

// TopicFilter decides whether a source topic's config is eligible for sync
// at all (internal/connector's sourceTopicFilter satisfies this).
type TopicFilter interface {
	ShouldReplicateTopic(topic string) bool
}

// TargetConfig projects source's described config down to the entries that
// should be applied on the target: only entries explicitly set on the
// topic itself (DYNAMIC_TOPIC_CONFIG), excluding whatever the property
// filter rejects. Entries inherited from broker/cluster defaults are never
// propagated, since a target cluster's own defaults should govern unless a
// topic explicitly overrides them on the source.
func TargetConfig(source mirror.TopicConfig, filter PropertyFilter) mirror.TopicConfig {
	out := mirror.TopicConfig{Topic: source.Topic}
	for _, entry := range source.Entries {
		if entry.Source != mirror.ConfigSourceDynamicTopic {
			continue
		}
		if !filter.ShouldReplicateConfigProperty(entry.Name) {
			continue
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

// Engine syncs topic configuration from a source cluster's replicated
// topics to their already-created mirrors on a target cluster.
type Engine struct {
	Source       admin.Client
	Target       admin.Client
	Policy       policy.ReplicationPolicy
	SourceAlias  string
	TopicFilter  TopicFilter
	ConfigFilter PropertyFilter
	Logger       *log.Logger
}

// SyncTopicConfigs describes every replicated source topic's dynamic
// config, projects each through TargetConfig, and alters the corresponding
// target topic to match — bringing config changes made on source after a
// topic was first mirrored back in line, rather than only applying them at
// creation time.
func (e *Engine) SyncTopicConfigs(ctx context.Context) error {
	byTopic, err := e.Source.ListTopics(ctx)
	if err != nil {
		return err
	}
	var topics []string
	for topic := range byTopic {
		if !e.TopicFilter.ShouldReplicateTopic(topic) {
			continue
		}
		topics = append(topics, topic)
	}
	if len(topics) == 0 {
		return nil
	}

	configs, err := e.Source.DescribeConfigs(ctx, topics)
	if err != nil {
		return err
	}

	var targetConfigs []mirror.TopicConfig
	for _, topic := range topics {
		targetCfg := TargetConfig(configs[topic], e.ConfigFilter)
		if len(targetCfg.Entries) == 0 {
			continue
		}
		targetCfg.Topic = e.Policy.FormatRemote(e.SourceAlias, topic)
		targetConfigs = append(targetConfigs, targetCfg)
	}
	if len(targetConfigs) == 0 {
		return nil
	}
	return e.Target.AlterTopicConfigs(ctx, targetConfigs)
}
