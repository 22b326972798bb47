package adminfake_test

import (
	"context"
	"testing"

	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/admin/adminfake"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/stretchr/testify/require"
)

func TestCreateTopicsIsIdempotent(t *testing.T) {
	c := adminfake.New()
	ctx := context.Background()

	nt := mirror.NewTopic{Name: "t0", PartitionCount: 3, ReplicationFactor: 2}
	require.NoError(t, c.CreateTopics(ctx, []mirror.NewTopic{nt}))
	require.NoError(t, c.CreateTopics(ctx, []mirror.NewTopic{nt}))

	topics, err := c.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics["t0"], 3, "re-creating an existing topic must not change its partition count")
}

func TestCreatePartitionsGrowsOnly(t *testing.T) {
	c := adminfake.New()
	ctx := context.Background()
	c.SeedTopic("t0", 2)

	require.NoError(t, c.CreatePartitions(ctx, map[string]int32{"t0": 5}))
	topics, err := c.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics["t0"], 5)

	require.NoError(t, c.CreatePartitions(ctx, map[string]int32{"t0": 3}))
	topics, err = c.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics["t0"], 5, "partitions never shrink")
}

func TestDescribeAclsReportsSecurityDisabled(t *testing.T) {
	c := adminfake.New()
	c.SecurityDisabled = true

	_, err := c.DescribeAcls(context.Background())
	require.ErrorIs(t, err, admin.ErrSecurityDisabled)
}

func TestCreateAclsIsIdempotent(t *testing.T) {
	c := adminfake.New()
	ctx := context.Background()
	b := mirror.AclBinding{
		Resource: mirror.ACLResourcePattern{Type: mirror.ACLResourceTopic, Name: "t0", Pattern: mirror.ACLPatternLiteral},
		Entry:    mirror.ACLEntry{Principal: "User:alice", Host: "*", Operation: mirror.OpRead, Permission: mirror.PermissionAllow},
	}
	require.NoError(t, c.CreateAcls(ctx, []mirror.AclBinding{b, b}))

	acls, err := c.DescribeAcls(ctx)
	require.NoError(t, err)
	require.Len(t, acls, 1)
}

func TestErrIsReturnedByEveryMethod(t *testing.T) {
	c := adminfake.New()
	c.Err = context.DeadlineExceeded

	_, err := c.ListTopics(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	err = c.CreateTopics(context.Background(), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseMarksClosed(t *testing.T) {
	c := adminfake.New()
	require.False(t, c.Closed())
	c.Close()
	require.True(t, c.Closed())
}
