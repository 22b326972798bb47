// Package kadmin implements admin.Client against a real Kafka-compatible
// cluster using franz-go's kgo/kadm (see dial.go for connection setup).
package kadmin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Client adapts a *kadm.Client to admin.Client, bounding every call with a
// timeout via context.WithTimeout.
type Client struct {
	kgo     *kgo.Client
	kadm    *kadm.Client
	timeout time.Duration
}

// Dial connects to one side of a replication pair.
func Dial(cfg DialConfig, timeout time.Duration) (*Client, error) {
	opts, err := buildOpts(cfg)
	if err != nil {
		return nil, err
	}
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{kgo: cl, kadm: kadm.NewClient(cl), timeout: timeout}, nil
}

var _ admin.Client = (*Client)(nil)

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, c.timeout)
}

func (c *Client) ListTopics(ctx context.Context) (map[string][]mirror.TopicPartition, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	details, err := c.kadm.ListTopics(cctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]mirror.TopicPartition, len(details))
	for name, detail := range details {
		if detail.IsInternal {
			continue
		}
		if detail.Err != nil {
			return nil, detail.Err
		}
		parts := make([]mirror.TopicPartition, 0, len(detail.Partitions))
		for _, p := range detail.Partitions {
			parts = append(parts, mirror.TopicPartition{Topic: name, Partition: p.Partition})
		}
		out[name] = parts
	}
	return out, nil
}

func (c *Client) DescribeConfigs(ctx context.Context, topics []string) (map[string]mirror.TopicConfig, error) {
	if len(topics) == 0 {
		return map[string]mirror.TopicConfig{}, nil
	}
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	resources, err := c.kadm.DescribeTopicConfigs(cctx, topics...)
	if err != nil {
		return nil, err
	}

	out := make(map[string]mirror.TopicConfig, len(resources))
	for _, res := range resources {
		if res.Err != nil {
			return nil, res.Err
		}
		entries := make([]mirror.ConfigEntry, 0, len(res.Configs))
		for _, cfg := range res.Configs {
			if cfg.Value == nil {
				continue
			}
			entries = append(entries, mirror.ConfigEntry{
				Name:   cfg.Key,
				Value:  *cfg.Value,
				Source: configSource(cfg.Source.String()),
			})
		}
		out[res.Name] = mirror.TopicConfig{Topic: res.Name, Entries: entries}
	}
	return out, nil
}

func configSource(raw string) mirror.ConfigSource {
	switch raw {
	case "DYNAMIC_TOPIC_CONFIG":
		return mirror.ConfigSourceDynamicTopic
	case "DYNAMIC_BROKER_CONFIG", "DYNAMIC_DEFAULT_BROKER_CONFIG":
		return mirror.ConfigSourceDynamicBroker
	case "STATIC_BROKER_CONFIG":
		return mirror.ConfigSourceStaticBroker
	default:
		return mirror.ConfigSourceDefault
	}
}

// securityDisabledMarkers are substrings real brokers use in the error
// text returned from DescribeAcls when no authorizer is configured.
// Matching on substring (rather than a typed sentinel from kadm/kmsg,
// which does not always distinguish this specific condition from other
// AUTHORIZER failures) is how the connector tells "no ACL authorizer" apart
// from a transient describe failure.
var securityDisabledMarkers = []string{
	"security features are disabled",
	"no authorizer",
}

func (c *Client) DescribeAcls(ctx context.Context) ([]mirror.AclBinding, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	// The builder names TOPIC resources (no topic names given) with the
	// LITERAL pattern type and adds no principal, host or operation
	// restriction. Every described entry is mapped below as a TOPIC+LITERAL
	// binding carrying its own operation and permission; no further
	// filtering happens here.
	builder := kadm.NewACLs().Topics().ResourcePatternType(kadm.ACLPatternLiteral)

	results, err := c.kadm.DescribeACLs(cctx, builder)
	if err != nil {
		if isSecurityDisabled(err) {
			return nil, admin.ErrSecurityDisabled
		}
		return nil, err
	}

	out := make([]mirror.AclBinding, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			if isSecurityDisabled(r.Err) {
				return nil, admin.ErrSecurityDisabled
			}
			return nil, r.Err
		}
		for _, d := range r.Described {
			out = append(out, mirror.AclBinding{
				Resource: mirror.ACLResourcePattern{
					Type:    mirror.ACLResourceTopic,
					Name:    d.Name,
					Pattern: mirror.ACLPatternLiteral,
				},
				Entry: mirror.ACLEntry{
					Principal:  d.Principal,
					Host:       d.Host,
					Operation:  mirror.ACLOperation(d.Operation.String()),
					Permission: mirror.ACLPermissionType(d.Permission.String()),
				},
			})
		}
	}
	return out, nil
}

func kadmOperation(op mirror.ACLOperation) kadm.ACLOperation {
	switch op {
	case mirror.OpRead:
		return kadm.OpRead
	case mirror.OpWrite:
		return kadm.OpWrite
	default:
		return kadm.OpAll
	}
}

func isSecurityDisabled(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range securityDisabledMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) CreateTopics(ctx context.Context, topics []mirror.NewTopic) error {
	if len(topics) == 0 {
		return nil
	}
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	for _, nt := range topics {
		var configs map[string]*string
		if len(nt.Configs) > 0 {
			configs = make(map[string]*string, len(nt.Configs))
			for k, v := range nt.Configs {
				v := v
				configs[k] = &v
			}
		}
		resp, err := c.kadm.CreateTopics(cctx, nt.PartitionCount, nt.ReplicationFactor, configs, nt.Name)
		if err != nil {
			return err
		}
		for _, r := range resp {
			if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
				return r.Err
			}
		}
	}
	return nil
}

func (c *Client) AlterTopicConfigs(ctx context.Context, configs []mirror.TopicConfig) error {
	if len(configs) == 0 {
		return nil
	}
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	for _, tc := range configs {
		if len(tc.Entries) == 0 {
			continue
		}
		alters := make([]kadm.AlterConfig, 0, len(tc.Entries))
		for _, e := range tc.Entries {
			v := e.Value
			alters = append(alters, kadm.AlterConfig{Op: kadm.SetConfig, Name: e.Name, Value: &v})
		}
		resp, err := c.kadm.AlterTopicConfigs(cctx, alters, tc.Topic)
		if err != nil {
			return err
		}
		for _, r := range resp {
			if r.Err != nil {
				return r.Err
			}
		}
	}
	return nil
}

func (c *Client) CreatePartitions(ctx context.Context, totals map[string]int32) error {
	if len(totals) == 0 {
		return nil
	}
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	for topic, total := range totals {
		resp, err := c.kadm.UpdatePartitions(cctx, int(total), topic)
		if err != nil {
			return err
		}
		for _, r := range resp {
			if r.Err != nil {
				return r.Err
			}
		}
	}
	return nil
}

func (c *Client) CreateAcls(ctx context.Context, bindings []mirror.AclBinding) error {
	if len(bindings) == 0 {
		return nil
	}
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	for _, b := range bindings {
		builder := kadm.NewACLs().
			Topics(b.Resource.Name).
			ResourcePatternType(kadm.ACLPatternLiteral).
			Operations(kadmOperation(b.Entry.Operation))
		if b.Entry.Permission == mirror.PermissionDeny {
			builder.Deny(b.Entry.Principal).DenyHosts(b.Entry.Host)
		} else {
			builder.Allow(b.Entry.Principal).AllowHosts(b.Entry.Host)
		}

		results, err := c.kadm.CreateACLs(cctx, builder)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				return r.Err
			}
		}
	}
	return nil
}

func (c *Client) ListConsumerGroups(ctx context.Context) ([]string, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	groups, err := c.kadm.ListGroups(cctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(groups))
	for name := range groups {
		out = append(out, name)
	}
	return out, nil
}

func (c *Client) ListConsumerGroupOffsets(ctx context.Context, group string) (map[mirror.TopicPartition]int64, error) {
	cctx, cancel := c.ctx(ctx)
	defer cancel()

	offsets, err := c.kadm.FetchOffsets(cctx, group)
	if err != nil {
		return nil, err
	}

	out := map[mirror.TopicPartition]int64{}
	offsets.Each(func(o kadm.OffsetResponse) {
		if o.Err != nil {
			return
		}
		out[mirror.TopicPartition{Topic: o.Topic, Partition: o.Partition}] = o.At
	})
	return out, nil
}

func (c *Client) Close() {
	c.kgo.Close()
}
