package mirror

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TopicPartition identifies one partition of one topic. Value-typed so it
// can be used directly as a map key or set element.
type TopicPartition struct {
	Topic     string
	Partition int32
}

func (tp TopicPartition) String() string {
	return fmt.Sprintf("%s-%d", tp.Topic, tp.Partition)
}

// ParseTopicPartition parses the "topic-partition" wire form produced by
// TopicPartition.String. The topic name itself may contain dashes, so the
// partition is taken from the last dash-separated segment.
func ParseTopicPartition(s string) (TopicPartition, error) {
	i := strings.LastIndex(s, "-")
	if i < 0 || i == len(s)-1 {
		return TopicPartition{}, fmt.Errorf("mirror: malformed topic-partition %q", s)
	}
	partition, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return TopicPartition{}, fmt.Errorf("mirror: malformed topic-partition %q: %w", s, err)
	}
	return TopicPartition{Topic: s[:i], Partition: int32(partition)}, nil
}

// SortTopicPartitions returns a topic-major, partition-minor sorted copy of
// tps. Round-robin assignment (internal/assignment.TaskConfigs) only stays
// deterministic across calls if its input order is stable; ranging a
// map[string][]TopicPartition never is, so every caller that builds a task
// assignment input from such a map must sort through this first.
func SortTopicPartitions(tps []TopicPartition) []TopicPartition {
	out := append([]TopicPartition(nil), tps...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Topic != out[j].Topic {
			return out[i].Topic < out[j].Topic
		}
		return out[i].Partition < out[j].Partition
	})
	return out
}
