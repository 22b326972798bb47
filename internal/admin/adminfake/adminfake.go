// Package adminfake provides an in-memory admin.Client test double: a
// struct with configurable fields and an Err hook callers can set to force
// failures, but backed by real maps so that CreateTopics/CreatePartitions/
// CreateAcls idempotency and DescribeAcls/ListConsumerGroupOffsets reads
// actually round-trip through prior writes, which the reconciler and ACL
// sync engine tests need to exercise.
package adminfake

import (
	"context"
	"sync"

	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/mirror"
)

// Client is an in-memory admin.Client.
type Client struct {
	mu sync.Mutex

	// Err, when non-nil, is returned by every method instead of doing
	// anything.
	Err error

	// SecurityDisabled makes DescribeAcls behave like a cluster with no
	// ACL authorizer configured.
	SecurityDisabled bool

	topics      map[string][]mirror.TopicPartition
	configs     map[string]mirror.TopicConfig
	acls        map[string]mirror.AclBinding // keyed by a stable string form
	groups      map[string]struct{}
	groupOffset map[string]map[mirror.TopicPartition]int64

	closed bool
}

// New returns an empty fake cluster.
func New() *Client {
	return &Client{
		topics:      map[string][]mirror.TopicPartition{},
		configs:     map[string]mirror.TopicConfig{},
		acls:        map[string]mirror.AclBinding{},
		groups:      map[string]struct{}{},
		groupOffset: map[string]map[mirror.TopicPartition]int64{},
	}
}

var _ admin.Client = (*Client)(nil)

// SeedTopic adds a topic with the given partition count directly, bypassing
// CreateTopics, for arranging test fixtures.
func (c *Client) SeedTopic(topic string, partitions int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	parts := make([]mirror.TopicPartition, partitions)
	for i := int32(0); i < partitions; i++ {
		parts[i] = mirror.TopicPartition{Topic: topic, Partition: i}
	}
	c.topics[topic] = parts
}

// SeedConfig sets a topic's dynamic config directly.
func (c *Client) SeedConfig(cfg mirror.TopicConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs[cfg.Topic] = cfg
}

// SeedGroup registers a consumer group and its committed offsets directly.
func (c *Client) SeedGroup(group string, offsets map[mirror.TopicPartition]int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[group] = struct{}{}
	c.groupOffset[group] = offsets
}

func aclKey(b mirror.AclBinding) string {
	return string(b.Resource.Type) + "|" + string(b.Resource.Pattern) + "|" + b.Resource.Name +
		"|" + b.Entry.Principal + "|" + b.Entry.Host + "|" + string(b.Entry.Operation) + "|" + string(b.Entry.Permission)
}

// SeedAcl installs an ACL binding directly.
func (c *Client) SeedAcl(b mirror.AclBinding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acls[aclKey(b)] = b
}

func (c *Client) ListTopics(_ context.Context) (map[string][]mirror.TopicPartition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := make(map[string][]mirror.TopicPartition, len(c.topics))
	for topic, parts := range c.topics {
		out[topic] = append([]mirror.TopicPartition(nil), parts...)
	}
	return out, nil
}

func (c *Client) DescribeConfigs(_ context.Context, topics []string) (map[string]mirror.TopicConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := make(map[string]mirror.TopicConfig, len(topics))
	for _, topic := range topics {
		if cfg, ok := c.configs[topic]; ok {
			out[topic] = cfg
		} else {
			out[topic] = mirror.TopicConfig{Topic: topic}
		}
	}
	return out, nil
}

func (c *Client) DescribeAcls(_ context.Context) ([]mirror.AclBinding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if c.SecurityDisabled {
		return nil, admin.ErrSecurityDisabled
	}
	out := make([]mirror.AclBinding, 0, len(c.acls))
	for _, b := range c.acls {
		out = append(out, b)
	}
	return out, nil
}

func (c *Client) CreateTopics(_ context.Context, topics []mirror.NewTopic) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	for _, nt := range topics {
		if _, exists := c.topics[nt.Name]; exists {
			continue
		}
		parts := make([]mirror.TopicPartition, nt.PartitionCount)
		for i := int32(0); i < nt.PartitionCount; i++ {
			parts[i] = mirror.TopicPartition{Topic: nt.Name, Partition: i}
		}
		c.topics[nt.Name] = parts
		if len(nt.Configs) > 0 {
			entries := make([]mirror.ConfigEntry, 0, len(nt.Configs))
			for k, v := range nt.Configs {
				entries = append(entries, mirror.ConfigEntry{Name: k, Value: v, Source: mirror.ConfigSourceDynamicTopic})
			}
			c.configs[nt.Name] = mirror.TopicConfig{Topic: nt.Name, Entries: entries}
		}
	}
	return nil
}

func (c *Client) AlterTopicConfigs(_ context.Context, configs []mirror.TopicConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	for _, tc := range configs {
		existing := c.configs[tc.Topic]
		merged := make(map[string]mirror.ConfigEntry, len(existing.Entries)+len(tc.Entries))
		for _, e := range existing.Entries {
			merged[e.Name] = e
		}
		for _, e := range tc.Entries {
			merged[e.Name] = e
		}
		entries := make([]mirror.ConfigEntry, 0, len(merged))
		for _, e := range merged {
			entries = append(entries, e)
		}
		c.configs[tc.Topic] = mirror.TopicConfig{Topic: tc.Topic, Entries: entries}
	}
	return nil
}

func (c *Client) CreatePartitions(_ context.Context, totals map[string]int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	for topic, total := range totals {
		existing := c.topics[topic]
		if int32(len(existing)) >= total {
			continue
		}
		for i := int32(len(existing)); i < total; i++ {
			existing = append(existing, mirror.TopicPartition{Topic: topic, Partition: i})
		}
		c.topics[topic] = existing
	}
	return nil
}

func (c *Client) CreateAcls(_ context.Context, bindings []mirror.AclBinding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	for _, b := range bindings {
		c.acls[aclKey(b)] = b
	}
	return nil
}

func (c *Client) ListConsumerGroups(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]string, 0, len(c.groups))
	for g := range c.groups {
		out = append(out, g)
	}
	return out, nil
}

func (c *Client) ListConsumerGroupOffsets(_ context.Context, group string) (map[mirror.TopicPartition]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	offsets := c.groupOffset[group]
	out := make(map[mirror.TopicPartition]int64, len(offsets))
	for tp, off := range offsets {
		out[tp] = off
	}
	return out, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close has been called, for tests asserting
// connector shutdown releases its clients.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
