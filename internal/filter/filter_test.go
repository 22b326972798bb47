package filter_test

import (
	"testing"

	"github.com/kmirror/connector/internal/filter"
	"github.com/stretchr/testify/require"
)

func TestDefaultTopicFilter_IncludeExclude(t *testing.T) {
	f, err := filter.NewDefaultTopicFilter("foo.*,bar.*", "foo-internal.*")
	require.NoError(t, err)

	require.True(t, f.ShouldReplicateTopic("foo-public"))
	require.True(t, f.ShouldReplicateTopic("bar-anything"))
	require.False(t, f.ShouldReplicateTopic("foo-internal-topic"), "exclude wins over include")
	require.False(t, f.ShouldReplicateTopic("unrelated"))
}

func TestDefaultTopicFilter_EmptyIncludeMeansAll(t *testing.T) {
	f, err := filter.NewDefaultTopicFilter("", "excluded-topic")
	require.NoError(t, err)

	require.True(t, f.ShouldReplicateTopic("anything"))
	require.False(t, f.ShouldReplicateTopic("excluded-topic"))
}

func TestDefaultGroupFilter(t *testing.T) {
	f, err := filter.NewDefaultGroupFilter("app-.*", "app-internal-.*")
	require.NoError(t, err)

	require.True(t, f.ShouldReplicateGroup("app-consumers"))
	require.False(t, f.ShouldReplicateGroup("app-internal-scheduler"))
	require.False(t, f.ShouldReplicateGroup("other-group"))
}

func TestDefaultConfigPropertyFilter_BaselineExclusions(t *testing.T) {
	f, err := filter.NewDefaultConfigPropertyFilter("", "")
	require.NoError(t, err)

	for _, name := range filter.BaselineExcludedConfigProperties {
		require.False(t, f.ShouldReplicateConfigProperty(name), "baseline property %q must be excluded", name)
	}
	require.True(t, f.ShouldReplicateConfigProperty("retention.ms"))
	require.True(t, f.ShouldReplicateConfigProperty("cleanup.policy"))
}

func TestDefaultConfigPropertyFilter_UserExcludeIsAnchored(t *testing.T) {
	f, err := filter.NewDefaultConfigPropertyFilter("", "exclude_param.*")
	require.NoError(t, err)

	require.False(t, f.ShouldReplicateConfigProperty("exclude_param.param1"))
	require.False(t, f.ShouldReplicateConfigProperty("exclude_param"))
	require.True(t, f.ShouldReplicateConfigProperty("other_exclude_param.param1"), "pattern must be anchored, not substring-matched")
}

func TestDefaultConfigPropertyFilter_IncludeList(t *testing.T) {
	f, err := filter.NewDefaultConfigPropertyFilter("retention\\.ms,cleanup\\.policy", "")
	require.NoError(t, err)

	require.True(t, f.ShouldReplicateConfigProperty("retention.ms"))
	require.True(t, f.ShouldReplicateConfigProperty("cleanup.policy"))
	require.False(t, f.ShouldReplicateConfigProperty("segment.bytes"))
}

func TestInvalidPatternReturnsError(t *testing.T) {
	_, err := filter.NewDefaultTopicFilter("(unclosed", "")
	require.Error(t, err)
}
