// Package reconciler brings the target cluster's topics and partition
// counts into line with the source's, and implements the trigger rule for
// when to ask Connect to reconfigure tasks.
package reconciler

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/kmirror/connector/internal/policy"
	"github.com/kmirror/connector/internal/topicconfig"
)

// TopicFilter decides whether a source topic is eligible for replication
// at all (cycle/heartbeat checks already folded in by the caller, per
// internal/policy.ShouldReplicateTopic).
type TopicFilter interface {
	ShouldReplicateTopic(topic string) bool
}

// Reconciler tracks the source cluster's topic-partitions and creates
// whatever the target is missing, the way MirrorSourceConnector's
// refreshTopicPartitions/computeAndCreateTopicPartitions pair does.
//
// Every admin-facing step is exposed as an overridable function field,
// defaulted in New to the real implementation: Go has no spy() to wrap an
// existing method call with an assertion, so tests substitute these fields
// directly instead, the same role Mockito's spy(connector) plays in the
// original test suite.
type Reconciler struct {
	SourceAlias string
	Policy      policy.ReplicationPolicy
	TopicFilter TopicFilter
	ConfigFilter topicconfig.PropertyFilter
	ReplicationFactor int16
	Logger      *log.Logger

	RequestTaskReconfiguration func()

	FindSourceTopicPartitions  func(ctx context.Context) ([]mirror.TopicPartition, error)
	FindTargetTopicPartitions  func(ctx context.Context) ([]mirror.TopicPartition, error)
	DescribeTopicConfigs       func(ctx context.Context, topics []string) (map[string]mirror.TopicConfig, error)
	CreateNewTopics            func(ctx context.Context, topics map[string]mirror.NewTopic) error
	CreateNewPartitions        func(ctx context.Context, totals map[string]int32) error

	knownSourceTopicPartitions []mirror.TopicPartition
	knownTargetTopicPartitions []mirror.TopicPartition
}

// New wires a Reconciler's function fields to real admin.Client calls
// against source and target. Callers needing to stub individual steps for
// tests should construct a Reconciler directly instead.
func New(source, target admin.Client, sourceAlias string, p policy.ReplicationPolicy, topicFilter TopicFilter, configFilter topicconfig.PropertyFilter, replicationFactor int16, logger *log.Logger) *Reconciler {
	r := &Reconciler{
		SourceAlias:       sourceAlias,
		Policy:            p,
		TopicFilter:       topicFilter,
		ConfigFilter:      configFilter,
		ReplicationFactor: replicationFactor,
		Logger:            logger,
	}
	r.FindSourceTopicPartitions = func(ctx context.Context) ([]mirror.TopicPartition, error) {
		return findTopicPartitions(ctx, source, func(topic string) bool {
			return policy.ShouldReplicateTopic(p, sourceAlias, topic, topicFilter.ShouldReplicateTopic)
		})
	}
	r.FindTargetTopicPartitions = func(ctx context.Context) ([]mirror.TopicPartition, error) {
		return findTopicPartitions(ctx, target, func(string) bool { return true })
	}
	r.DescribeTopicConfigs = func(ctx context.Context, topics []string) (map[string]mirror.TopicConfig, error) {
		return source.DescribeConfigs(ctx, topics)
	}
	r.CreateNewTopics = func(ctx context.Context, topics map[string]mirror.NewTopic) error {
		list := make([]mirror.NewTopic, 0, len(topics))
		for _, nt := range topics {
			list = append(list, nt)
		}
		return target.CreateTopics(ctx, list)
	}
	r.CreateNewPartitions = func(ctx context.Context, totals map[string]int32) error {
		return target.CreatePartitions(ctx, totals)
	}
	r.RequestTaskReconfiguration = func() {}
	return r
}

func findTopicPartitions(ctx context.Context, client admin.Client, accept func(topic string) bool) ([]mirror.TopicPartition, error) {
	byTopic, err := client.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	var out []mirror.TopicPartition
	for topic, parts := range byTopic {
		if !accept(topic) {
			continue
		}
		out = append(out, parts...)
	}
	return out, nil
}

func topicNames(tps []mirror.TopicPartition) map[string]struct{} {
	out := make(map[string]struct{}, len(tps))
	for _, tp := range tps {
		out[tp.Topic] = struct{}{}
	}
	return out
}

func partitionCounts(tps []mirror.TopicPartition) map[string]int32 {
	out := map[string]int32{}
	for _, tp := range tps {
		if tp.Partition+1 > out[tp.Topic] {
			out[tp.Topic] = tp.Partition + 1
		}
	}
	return out
}

func topicPartitionsEqual(a, b []mirror.TopicPartition) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = mirror.SortTopicPartitions(a), mirror.SortTopicPartitions(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// missingFromTarget reports whether any source topic's expected mirrored
// name is absent from the target's known topics — the signal that a
// previously requested creation still hasn't materialized.
func (r *Reconciler) missingFromTarget(sourceTPs, targetTPs []mirror.TopicPartition) bool {
	targetTopics := topicNames(targetTPs)
	for topic := range topicNames(sourceTPs) {
		expected := r.Policy.FormatRemote(r.SourceAlias, topic)
		if _, ok := targetTopics[expected]; !ok {
			return true
		}
	}
	return false
}

// RefreshTopicPartitions is the reconciler's per-tick entry point: it
// re-lists source and target topic-partitions and triggers a creation pass
// whenever the source set has changed since the previous tick, or whenever a
// previously-requested target creation still hasn't shown up (target-only
// changes never trigger on their own — see missingFromTarget).
func (r *Reconciler) RefreshTopicPartitions(ctx context.Context) error {
	sourceTPs, err := r.FindSourceTopicPartitions(ctx)
	if err != nil {
		return err
	}
	targetTPs, err := r.FindTargetTopicPartitions(ctx)
	if err != nil {
		return err
	}

	changed := !topicPartitionsEqual(sourceTPs, r.knownSourceTopicPartitions)
	missing := r.missingFromTarget(sourceTPs, targetTPs)

	if changed || missing {
		if err := r.ComputeAndCreateTopicPartitions(ctx, sourceTPs, targetTPs); err != nil {
			return err
		}
	}

	r.knownSourceTopicPartitions = sourceTPs
	r.knownTargetTopicPartitions = targetTPs
	return nil
}

// KnownSourceTopicPartitions returns a copy of the source topic-partitions
// observed on the most recent successful RefreshTopicPartitions call. Safe
// to call from the same goroutine that drives the scheduler tick calling
// RefreshTopicPartitions; callers publishing this across goroutine
// boundaries must do so through an atomic.Pointer snapshot, never by
// holding onto this slice directly.
func (r *Reconciler) KnownSourceTopicPartitions() []mirror.TopicPartition {
	return append([]mirror.TopicPartition(nil), r.knownSourceTopicPartitions...)
}

// KnownTargetTopicPartitions returns a copy of the target topic-partitions
// observed on the most recent successful RefreshTopicPartitions call.
func (r *Reconciler) KnownTargetTopicPartitions() []mirror.TopicPartition {
	return append([]mirror.TopicPartition(nil), r.knownTargetTopicPartitions...)
}

// ComputeAndCreateTopicPartitions diffs source against target and creates
// whatever topics are entirely missing on target, or raises the partition
// count of ones that already exist but have fewer partitions than source.
func (r *Reconciler) ComputeAndCreateTopicPartitions(ctx context.Context, sourceTPs, targetTPs []mirror.TopicPartition) error {
	sourceCounts := partitionCounts(sourceTPs)
	targetCounts := partitionCounts(targetTPs)

	var topicsNeedingCreation []string
	partitionsToRaise := map[string]int32{}

	for topic, sourceCount := range sourceCounts {
		targetName := r.Policy.FormatRemote(r.SourceAlias, topic)
		if targetCount, exists := targetCounts[targetName]; exists {
			if sourceCount > targetCount {
				partitionsToRaise[targetName] = sourceCount
			}
			continue
		}
		topicsNeedingCreation = append(topicsNeedingCreation, topic)
	}

	var newTopics map[string]mirror.NewTopic
	if len(topicsNeedingCreation) > 0 {
		configs, err := r.DescribeTopicConfigs(ctx, topicsNeedingCreation)
		if err != nil {
			return err
		}
		newTopics = make(map[string]mirror.NewTopic, len(topicsNeedingCreation))
		for _, topic := range topicsNeedingCreation {
			targetName := r.Policy.FormatRemote(r.SourceAlias, topic)
			targetCfg := topicconfig.TargetConfig(configs[topic], r.ConfigFilter)
			newTopics[targetName] = mirror.NewTopic{
				Name:              targetName,
				PartitionCount:    sourceCounts[topic],
				ReplicationFactor: r.ReplicationFactor,
				Configs:           targetCfg.AsMap(),
			}
		}
		if err := r.CreateNewTopics(ctx, newTopics); err != nil {
			return err
		}
	}

	if len(partitionsToRaise) > 0 {
		if err := r.CreateNewPartitions(ctx, partitionsToRaise); err != nil {
			return err
		}
	}

	if len(newTopics) > 0 || len(partitionsToRaise) > 0 {
		r.RequestTaskReconfiguration()
	}
	return nil
}
