package connector

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/filter"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/kmirror/connector/internal/scheduler"
)

// CheckpointConnector is the consumer-group half of a replication pair: it
// tracks which source consumer groups are relevant to replication (have
// committed offsets against at least one replicated topic) and divides
// them among tasks that emit checkpoint records.
type CheckpointConnector struct {
	Config Config
	Logger *log.Logger

	source admin.Client

	groupFilter filter.DefaultGroupFilter
	topicFilter sourceTopicFilter

	scheduler *scheduler.Scheduler

	requestTaskReconfiguration func()

	// state is the connector's last-published set of relevant consumer
	// groups, swapped in by Start and then by refreshConsumerGroups on any
	// tick where the group set changed. TaskConfigs reads it from a different goroutine
	// than the one running the scheduler, so the known group set is never
	// read or written through a plain field directly — that was the
	// unsynchronized read/write this atomic.Pointer replaces.
	state atomic.Pointer[mirror.KnownState]
}

// NewCheckpointConnector wires a CheckpointConnector against the source
// cluster's admin client.
func NewCheckpointConnector(cfg Config, source admin.Client, logger *log.Logger, requestTaskReconfiguration func()) (*CheckpointConnector, error) {
	groupFilterImpl, err := cfg.GroupFilter()
	if err != nil {
		return nil, fmt.Errorf("connector: invalid group filter: %w", err)
	}
	topicFilterImpl, err := cfg.TopicFilter()
	if err != nil {
		return nil, fmt.Errorf("connector: invalid topic filter: %w", err)
	}
	p := cfg.ReplicationPolicy()

	return &CheckpointConnector{
		Config:                     cfg,
		Logger:                     logger,
		source:                     source,
		groupFilter:                groupFilterImpl,
		topicFilter:                sourceTopicFilter{policy: p, source: cfg.SourceAlias, topics: topicFilterImpl},
		requestTaskReconfiguration: requestTaskReconfiguration,
	}, nil
}

// Start provisions the checkpoints topic, loads the initial set of
// relevant consumer groups synchronously, then begins the periodic
// refresh — delayed by one interval before its first run, matching
// scheduleRepeatingDelayed in the original.
func (c *CheckpointConnector) Start(ctx context.Context, target admin.Client, logger *log.Logger) error {
	if !c.Config.EmitCheckpointsEnabled {
		return nil
	}
	if err := createSinglePartitionCompactedTopic(ctx, target, c.Config.CheckpointsTopic, c.Config.ReplicationFactor); err != nil {
		return fmt.Errorf("connector: creating checkpoints topic: %w", err)
	}
	groups, err := c.findConsumerGroups(ctx)
	if err != nil {
		return fmt.Errorf("connector: loading initial consumer groups: %w", err)
	}
	c.publishKnownGroups(groups)
	logger.Info("started checkpoint connector", "groups", len(groups))

	c.scheduler = scheduler.New(logger, c.Config.AdminTimeout)
	c.scheduler.ScheduleRepeatingDelayed("refreshing consumer groups", c.Config.RefreshGroupsInterval, c.refreshConsumerGroups)
	return nil
}

// Stop shuts the checkpoint connector's scheduler down.
func (c *CheckpointConnector) Stop() {
	if c.scheduler != nil {
		c.scheduler.Close()
	}
}

// TaskConfigs divides the currently-known relevant consumer groups across
// up to maxTasks tasks, round-robin — empty if checkpoint emission is
// disabled or no relevant group has been found yet.
func (c *CheckpointConnector) TaskConfigs(maxTasks int) []map[string]string {
	state := c.state.Load()
	if !c.Config.EmitCheckpointsEnabled || state == nil || len(state.KnownConsumerGroups) == 0 {
		return nil
	}
	groups := state.KnownConsumerGroups
	numTasks := maxTasks
	if len(groups) < numTasks {
		numTasks = len(groups)
	}
	buckets := make([][]string, numTasks)
	for i, group := range groups {
		bucket := i % numTasks
		buckets[bucket] = append(buckets[bucket], group)
	}
	out := make([]map[string]string, 0, numTasks)
	for _, groups := range buckets {
		out = append(out, map[string]string{
			"checkpoint.assigned.groups": joinGroups(groups),
		})
	}
	return out
}

func joinGroups(groups []string) string {
	out := ""
	for i, g := range groups {
		if i > 0 {
			out += ","
		}
		out += g
	}
	return out
}

// refreshConsumerGroups re-evaluates which consumer groups are relevant
// and requests task reconfiguration whenever the set changed — new groups
// appeared or known ones disappeared — matching
// MirrorCheckpointConnector.refreshConsumerGroups.
func (c *CheckpointConnector) refreshConsumerGroups(ctx context.Context) error {
	groups, err := c.findConsumerGroups(ctx)
	if err != nil {
		return err
	}
	prev := c.state.Load()
	var known []string
	if prev != nil {
		known = prev.KnownConsumerGroups
	}
	if !stringSetsEqual(groups, known) {
		c.publishKnownGroups(groups)
		if c.requestTaskReconfiguration != nil {
			c.requestTaskReconfiguration()
		}
	}
	return nil
}

// publishKnownGroups swaps in a freshly built KnownState carrying groups —
// the only place CheckpointConnector's published state is written.
func (c *CheckpointConnector) publishKnownGroups(groups []string) {
	next := mirror.NewKnownState()
	next.KnownConsumerGroups = groups
	c.state.Store(next)
}

// findConsumerGroups lists source's consumer groups, keeps the ones the
// group filter accepts, and further narrows to groups that have committed
// offsets against at least one topic the topic filter accepts — a group
// consuming only non-replicated topics has nothing to checkpoint, the same
// relevance test MirrorCheckpointConnector.findConsumerGroups applies.
func (c *CheckpointConnector) findConsumerGroups(ctx context.Context) ([]string, error) {
	groups, err := c.source.ListConsumerGroups(ctx)
	if err != nil {
		return nil, err
	}
	var relevant []string
	for _, group := range groups {
		if !c.groupFilter.ShouldReplicateGroup(group) {
			continue
		}
		offsets, err := c.source.ListConsumerGroupOffsets(ctx, group)
		if err != nil {
			return nil, err
		}
		for tp := range offsets {
			if c.topicFilter.ShouldReplicateTopic(tp.Topic) {
				relevant = append(relevant, group)
				break
			}
		}
	}
	return relevant, nil
}

func stringSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
