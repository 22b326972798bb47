package connector

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/acl"
	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/assignment"
	"github.com/kmirror/connector/internal/filter"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/kmirror/connector/internal/policy"
	"github.com/kmirror/connector/internal/reconciler"
	"github.com/kmirror/connector/internal/scheduler"
	"github.com/kmirror/connector/internal/topicconfig"
)

// sourceTopicFilter adapts a filter.DefaultTopicFilter plus the connector's
// replication policy into the single predicate both the reconciler and the
// ACL engine need: a topic replicates if the policy says so (heartbeats
// always, cycles never) and the user's include/exclude patterns allow it.
type sourceTopicFilter struct {
	policy policy.ReplicationPolicy
	source string
	topics filter.DefaultTopicFilter
}

func (f sourceTopicFilter) ShouldReplicateTopic(topic string) bool {
	return policy.ShouldReplicateTopic(f.policy, f.source, topic, f.topics.ShouldReplicateTopic)
}

// SourceConnector is the topic-and-ACL half of a replication pair: it
// keeps the target cluster's topics, partition counts, topic configs and
// ACLs in line with the source's.
type SourceConnector struct {
	Config Config
	Logger *log.Logger

	reconciler   *reconciler.Reconciler
	aclEngine    *acl.Engine
	configEngine *topicconfig.Engine
	scheduler    *scheduler.Scheduler

	topicFilter sourceTopicFilter

	requestTaskReconfiguration func()

	// state is the connector's last-published view of what it has
	// observed on source and target, swapped in by publishKnownState at
	// the end of every scheduler tick. TaskConfigs reads it from a
	// different goroutine than the one running the scheduler, so it is
	// never read or written through the plain reconciler fields directly.
	state atomic.Pointer[mirror.KnownState]
}

// NewSourceConnector wires a SourceConnector's reconciler and ACL engine
// against source/target admin clients. requestTaskReconfiguration is
// called whenever the reconciler creates topics/partitions, mirroring
// Connect's SourceConnectorContext.requestTaskReconfiguration callback.
func NewSourceConnector(cfg Config, source, target admin.Client, logger *log.Logger, requestTaskReconfiguration func()) (*SourceConnector, error) {
	topicFilterImpl, err := cfg.TopicFilter()
	if err != nil {
		return nil, fmt.Errorf("connector: invalid topic filter: %w", err)
	}
	configFilter, err := cfg.ConfigPropertyFilter()
	if err != nil {
		return nil, fmt.Errorf("connector: invalid config property filter: %w", err)
	}
	p := cfg.ReplicationPolicy()

	tf := sourceTopicFilter{policy: p, source: cfg.SourceAlias, topics: topicFilterImpl}

	r := reconciler.New(source, target, cfg.SourceAlias, p, tf, configFilter, cfg.ReplicationFactor, logger)
	if requestTaskReconfiguration != nil {
		r.RequestTaskReconfiguration = requestTaskReconfiguration
	}

	e := &acl.Engine{
		Source:      source,
		Target:      target,
		Policy:      p,
		SourceAlias: cfg.SourceAlias,
		TopicFilter: tf,
		Logger:      logger,
	}

	ce := &topicconfig.Engine{
		Source:       source,
		Target:       target,
		Policy:       p,
		SourceAlias:  cfg.SourceAlias,
		TopicFilter:  tf,
		ConfigFilter: configFilter,
		Logger:       logger,
	}

	sc := &SourceConnector{
		Config:                     cfg,
		Logger:                     logger,
		reconciler:                 r,
		aclEngine:                  e,
		configEngine:               ce,
		topicFilter:                tf,
		requestTaskReconfiguration: requestTaskReconfiguration,
	}
	sc.state.Store(mirror.NewKnownState())
	return sc, nil
}

// Start loads the initial known topic-partition state synchronously, then
// begins the connector's periodic housekeeping: topic/partition
// reconciliation on RefreshTopicsInterval and, if enabled, ACL syncing on
// SyncTopicAclsInterval and topic config syncing on SyncTopicConfigsInterval.
// All three run on the same single-threaded scheduler so none ever races
// another's admin calls.
func (c *SourceConnector) Start(ctx context.Context, logger *log.Logger) error {
	if err := c.refreshAndPublish(ctx); err != nil {
		return fmt.Errorf("connector: loading initial topic-partitions: %w", err)
	}

	c.scheduler = scheduler.New(logger, c.Config.AdminTimeout)
	c.scheduler.ScheduleRepeating("refreshing topic-partitions", c.Config.RefreshTopicsInterval, c.refreshAndPublish)
	if c.Config.SyncTopicAclsEnabled {
		c.scheduler.ScheduleRepeating("syncing topic ACLs", c.Config.SyncTopicAclsInterval, c.aclEngine.SyncTopicAcls)
	}
	if c.Config.SyncTopicConfigsEnabled {
		c.scheduler.ScheduleRepeating("syncing topic configs", c.Config.SyncTopicConfigsInterval, c.configEngine.SyncTopicConfigs)
	}
	return nil
}

// refreshAndPublish runs one reconciliation pass and, on success, publishes
// its result as the connector's new known state — the only place
// SourceConnector's KnownState snapshot is written.
func (c *SourceConnector) refreshAndPublish(ctx context.Context) error {
	if err := c.reconciler.RefreshTopicPartitions(ctx); err != nil {
		return err
	}
	c.publishKnownState()
	return nil
}

func (c *SourceConnector) publishKnownState() {
	next := mirror.NewKnownState()
	for _, tp := range c.reconciler.KnownSourceTopicPartitions() {
		next.KnownSourceTopicPartitions[tp] = struct{}{}
	}
	for _, tp := range c.reconciler.KnownTargetTopicPartitions() {
		next.KnownTargetTopicPartitions[tp] = struct{}{}
	}
	c.state.Store(next)
}

// Stop shuts the connector's scheduler down, waiting for any in-flight job
// to finish first.
func (c *SourceConnector) Stop() {
	if c.scheduler != nil {
		c.scheduler.Close()
	}
}

// Refresh runs one topic-partition reconciliation pass synchronously,
// outside the periodic schedule; the tests call it directly.
func (c *SourceConnector) Refresh(ctx context.Context) error {
	return c.reconciler.RefreshTopicPartitions(ctx)
}

// SyncTopicConfigs runs one topic config sync pass synchronously, outside
// the periodic schedule; the tests call it directly.
func (c *SourceConnector) SyncTopicConfigs(ctx context.Context) error {
	return c.configEngine.SyncTopicConfigs(ctx)
}

// TaskConfigs splits every currently-known source topic-partition across
// maxTasks tasks, round-robin, the way MirrorSourceConnector.taskConfigs
// divides partitions among MirrorSourceTask instances. It prefers the
// connector's own published KnownState (kept current by the scheduler's
// refresh tick) over listing source again, and always sorts topic-major,
// partition-minor before assigning so repeated calls produce the same
// assignment for the same known set.
func (c *SourceConnector) TaskConfigs(ctx context.Context, source admin.Client, maxTasks int) ([]map[string]string, error) {
	tps, err := c.knownOrLiveTopicPartitions(ctx, source)
	if err != nil {
		return nil, err
	}
	tps = mirror.SortTopicPartitions(tps)

	numTasks := maxTasks
	if len(tps) < numTasks {
		numTasks = len(tps)
	}
	return assignment.TaskConfigs(tps, numTasks), nil
}

// knownOrLiveTopicPartitions returns the topic-partitions published in the
// connector's last successful refresh, or falls back to a live listing if
// nothing has been published yet (e.g. TaskConfigs called before Start).
func (c *SourceConnector) knownOrLiveTopicPartitions(ctx context.Context, source admin.Client) ([]mirror.TopicPartition, error) {
	if state := c.state.Load(); state != nil && len(state.KnownSourceTopicPartitions) > 0 {
		tps := make([]mirror.TopicPartition, 0, len(state.KnownSourceTopicPartitions))
		for tp := range state.KnownSourceTopicPartitions {
			tps = append(tps, tp)
		}
		return tps, nil
	}

	byTopic, err := source.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("connector: listing source topics: %w", err)
	}
	var tps []mirror.TopicPartition
	for topic, parts := range byTopic {
		if !c.topicFilter.ShouldReplicateTopic(topic) {
			continue
		}
		tps = append(tps, parts...)
	}
	return tps, nil
}

// CreateInternalTopics provisions the heartbeats topic on target, the same
// single-partition compacted internal-topic creation
// MirrorSourceConnectorTest.java exercises for createInternalTopics.
func (c *SourceConnector) CreateInternalTopics(ctx context.Context, target admin.Client) error {
	return createSinglePartitionCompactedTopic(ctx, target, c.Config.HeartbeatsTopic, c.Config.ReplicationFactor)
}

// createSinglePartitionCompactedTopic creates a single-partition,
// log-compacted internal bookkeeping topic, tolerating one that already
// exists.
func createSinglePartitionCompactedTopic(ctx context.Context, target admin.Client, name string, replicationFactor int16) error {
	return target.CreateTopics(ctx, []mirror.NewTopic{{
		Name:              name,
		PartitionCount:    1,
		ReplicationFactor: replicationFactor,
		Configs: map[string]string{
			"cleanup.policy": "compact",
		},
	}})
}

var _ topicconfig.PropertyFilter = filter.DefaultConfigPropertyFilter{}
