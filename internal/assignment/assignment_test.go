package assignment_test

import (
	"testing"

	"github.com/kmirror/connector/internal/assignment"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/stretchr/testify/require"
)

func sourceTopicPartitions() []mirror.TopicPartition {
	var out []mirror.TopicPartition
	for p := int32(0); p < 8; p++ {
		out = append(out, mirror.TopicPartition{Topic: "t0", Partition: p})
	}
	for p := int32(0); p < 2; p++ {
		out = append(out, mirror.TopicPartition{Topic: "t1", Partition: p})
	}
	for p := int32(0); p < 2; p++ {
		out = append(out, mirror.TopicPartition{Topic: "t2", Partition: p})
	}
	return out
}

func csv(tps []mirror.TopicPartition) string {
	return assignment.TaskConfig(tps)[assignment.TaskTopicPartitionsProperty]
}

func TestTaskConfigsRoundRobinWorkedExample(t *testing.T) {
	configs := assignment.TaskConfigs(sourceTopicPartitions(), 3)
	require.Len(t, configs, 3)

	require.Equal(t, "t0-0,t0-3,t0-6,t1-1", configs[0][assignment.TaskTopicPartitionsProperty], "config for task 1 is incorrect")
	require.Equal(t, "t0-1,t0-4,t0-7,t2-0", configs[1][assignment.TaskTopicPartitionsProperty], "config for task 2 is incorrect")
	require.Equal(t, "t0-2,t0-5,t1-0,t2-1", configs[2][assignment.TaskTopicPartitionsProperty], "config for task 3 is incorrect")
}

func TestTaskConfigsEmptyInput(t *testing.T) {
	require.Nil(t, assignment.TaskConfigs(nil, 3))
	require.Nil(t, assignment.TaskConfigs(sourceTopicPartitions(), 0))
	require.Nil(t, assignment.TaskConfigs(sourceTopicPartitions(), -1))
}

func TestParseTaskConfigRoundTrip(t *testing.T) {
	configs := assignment.TaskConfigs(sourceTopicPartitions(), 3)
	parsed, err := assignment.ParseTaskConfig(configs[0])
	require.NoError(t, err)
	require.Equal(t, "t0-0,t0-3,t0-6,t1-1", csv(parsed))
}

func TestParseTaskConfigEmpty(t *testing.T) {
	parsed, err := assignment.ParseTaskConfig(map[string]string{})
	require.NoError(t, err)
	require.Nil(t, parsed)
}

func TestParseTaskConfigMalformed(t *testing.T) {
	_, err := assignment.ParseTaskConfig(map[string]string{
		assignment.TaskTopicPartitionsProperty: "t0-notanumber",
	})
	require.Error(t, err)
}
