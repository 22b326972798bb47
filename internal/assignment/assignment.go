// Package assignment splits the full set of known source topic-partitions
// into numTasks roughly-even, deterministic buckets, and serializes each
// bucket into the task config property Connect hands to a task on startup.
package assignment

import (
	"fmt"
	"strings"

	"github.com/kmirror/connector/internal/mirror"
)

// TaskTopicPartitionsProperty is the task config key each task's assigned
// topic-partitions are serialized under.
const TaskTopicPartitionsProperty = "task.assigned.partitions"

// RoundRobin splits topicPartitions across numTasks buckets by plain
// round-robin over the input order: unit i goes to bucket i mod numTasks.
// Input order must be stable for the assignment to be deterministic —
// callers should sort/group source topic-partitions the same way on every
// call (topic-major, partition-minor) before calling this.
func RoundRobin(topicPartitions []mirror.TopicPartition, numTasks int) [][]mirror.TopicPartition {
	if numTasks <= 0 {
		return nil
	}
	buckets := make([][]mirror.TopicPartition, numTasks)
	for i, tp := range topicPartitions {
		bucket := i % numTasks
		buckets[bucket] = append(buckets[bucket], tp)
	}
	return buckets
}

// TaskConfig serializes one task's assigned topic-partitions into the
// "topic-partition,topic-partition,..." CSV format Connect task configs
// use, preserving input order.
func TaskConfig(assigned []mirror.TopicPartition) map[string]string {
	parts := make([]string, len(assigned))
	for i, tp := range assigned {
		parts[i] = tp.String()
	}
	return map[string]string{
		TaskTopicPartitionsProperty: strings.Join(parts, ","),
	}
}

// TaskConfigs groups topicPartitions into numTasks round-robin buckets and
// serializes each into a task config map.
// Returns no configs if topicPartitions is empty or numTasks <= 0 — Connect
// interprets zero task configs as "nothing to do yet".
func TaskConfigs(topicPartitions []mirror.TopicPartition, numTasks int) []map[string]string {
	if len(topicPartitions) == 0 || numTasks <= 0 {
		return nil
	}
	buckets := RoundRobin(topicPartitions, numTasks)
	out := make([]map[string]string, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, TaskConfig(b))
	}
	return out
}

// ParseTaskConfig is the task-side inverse of TaskConfig: it recovers the
// assigned topic-partitions a task was configured with.
func ParseTaskConfig(props map[string]string) ([]mirror.TopicPartition, error) {
	raw := props[TaskTopicPartitionsProperty]
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]mirror.TopicPartition, 0, len(parts))
	for _, p := range parts {
		tp, err := mirror.ParseTopicPartition(p)
		if err != nil {
			return nil, fmt.Errorf("assignment: invalid task topic-partition %q: %w", p, err)
		}
		out = append(out, tp)
	}
	return out, nil
}
