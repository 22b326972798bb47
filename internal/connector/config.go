// Package connector implements connector lifecycle management, binding
// together policy, filters, the scheduler, the ACL sync engine, topic
// config sync, and the reconciler into the two long-lived processes a
// replication pair runs — SourceConnector (topics/configs/ACLs) and
// CheckpointConnector (consumer group offset bookkeeping).
package connector

import (
	"strconv"
	"time"

	"github.com/kmirror/connector/internal/filter"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/kmirror/connector/internal/policy"
)

// Config is a connector's fully-parsed configuration, built from the flat
// map[string]string properties Connect hands every connector, keyed by
// Kafka Connect property names.
type Config struct {
	SourceAlias string
	TargetAlias string

	TopicsInclude  string
	TopicsExclude  string
	GroupsInclude  string
	GroupsExclude  string
	ConfigPropertiesExclude string

	ReplicationPolicySeparator string
	UseIdentityReplication     bool

	ReplicationFactor int16

	RefreshTopicsInterval       time.Duration
	RefreshGroupsInterval       time.Duration
	SyncTopicAclsInterval       time.Duration
	SyncTopicConfigsInterval    time.Duration
	EmitCheckpointsInterval     time.Duration
	AdminTimeout                time.Duration

	SyncTopicAclsEnabled    bool
	SyncTopicConfigsEnabled bool
	EmitCheckpointsEnabled  bool

	HeartbeatsTopic  string
	CheckpointsTopic string
}

const (
	propSourceAlias = "source.alias"
	propTargetAlias = "target.alias"

	propTopicsInclude = "topics"
	propTopicsExclude = "topics.exclude"
	propGroupsInclude = "groups"
	propGroupsExclude = "groups.exclude"
	propConfigPropertiesExclude = "config.properties.exclude"

	propReplicationPolicySeparator = "replication.policy.separator"
	propReplicationPolicyClass     = "replication.policy.class"
	propReplicationFactor          = "replication.factor"

	propRefreshTopicsInterval    = "refresh.topics.interval.seconds"
	propRefreshGroupsInterval    = "refresh.groups.interval.seconds"
	propSyncTopicAclsInterval    = "sync.topic.acls.interval.seconds"
	propSyncTopicConfigsInterval = "sync.topic.configs.interval.seconds"
	propEmitCheckpointsInterval  = "emit.checkpoints.interval.seconds"
	propAdminTimeoutSeconds      = "admin.timeout.seconds"

	propSyncTopicAclsEnabled    = "sync.topic.acls.enabled"
	propSyncTopicConfigsEnabled = "sync.topic.configs.enabled"
	propEmitCheckpointsEnabled  = "emit.checkpoints.enabled"

	identityReplicationPolicyClass = "IdentityReplicationPolicy"
)

// ParseConfig parses a connector's flat properties into a Config,
// defaulting anything unset the way MirrorConnectorConfig's defaults do.
func ParseConfig(props map[string]string) Config {
	cfg := Config{
		SourceAlias: props[propSourceAlias],
		TargetAlias: props[propTargetAlias],

		TopicsInclude:           orDefault(props[propTopicsInclude], ".*"),
		TopicsExclude:           props[propTopicsExclude],
		GroupsInclude:           orDefault(props[propGroupsInclude], ".*"),
		GroupsExclude:           props[propGroupsExclude],
		ConfigPropertiesExclude: props[propConfigPropertiesExclude],

		ReplicationPolicySeparator: props[propReplicationPolicySeparator],
		UseIdentityReplication:     props[propReplicationPolicyClass] == identityReplicationPolicyClass,

		ReplicationFactor: parseInt16(props[propReplicationFactor], mirror.ReplicationFactorBrokerDefault),

		RefreshTopicsInterval:    parseSeconds(props[propRefreshTopicsInterval], 10*time.Minute),
		RefreshGroupsInterval:    parseSeconds(props[propRefreshGroupsInterval], 10*time.Minute),
		SyncTopicAclsInterval:    parseSeconds(props[propSyncTopicAclsInterval], time.Minute),
		SyncTopicConfigsInterval: parseSeconds(props[propSyncTopicConfigsInterval], time.Minute),
		EmitCheckpointsInterval:  parseSeconds(props[propEmitCheckpointsInterval], time.Minute),
		AdminTimeout:             parseSeconds(props[propAdminTimeoutSeconds], 30*time.Second),

		SyncTopicAclsEnabled:    parseBool(props[propSyncTopicAclsEnabled], true),
		SyncTopicConfigsEnabled: parseBool(props[propSyncTopicConfigsEnabled], true),
		EmitCheckpointsEnabled:  parseBool(props[propEmitCheckpointsEnabled], true),

		HeartbeatsTopic:  policy.HeartbeatsTopic,
		CheckpointsTopic: "checkpoints.internal",
	}
	return cfg
}

// ReplicationPolicy builds the policy.ReplicationPolicy this config
// describes.
func (c Config) ReplicationPolicy() policy.ReplicationPolicy {
	if c.UseIdentityReplication {
		return policy.IdentityReplicationPolicy{}
	}
	return policy.DefaultReplicationPolicy{Separator: c.ReplicationPolicySeparator}
}

// TopicFilter builds the topic filter this config describes.
func (c Config) TopicFilter() (filter.DefaultTopicFilter, error) {
	return filter.NewDefaultTopicFilter(c.TopicsInclude, c.TopicsExclude)
}

// GroupFilter builds the consumer group filter this config describes.
func (c Config) GroupFilter() (filter.DefaultGroupFilter, error) {
	return filter.NewDefaultGroupFilter(c.GroupsInclude, c.GroupsExclude)
}

// ConfigPropertyFilter builds the topic-config property filter this config
// describes.
func (c Config) ConfigPropertyFilter() (filter.DefaultConfigPropertyFilter, error) {
	return filter.NewDefaultConfigPropertyFilter("", c.ConfigPropertiesExclude)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseInt16(v string, def int16) int16 {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return int16(n)
}

func parseSeconds(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Second
}

func parseBool(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
