// Package acl implements the ACL sync engine, which mirrors topic ACLs
// from source to target, narrowing ALL permission to READ on the way and
// tolerating a source cluster with no ACL authorizer configured. An error
// from the target cluster's CreateAcls is returned as is.
package acl

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/mirror"
	"github.com/kmirror/connector/internal/policy"
)

// Filter decides whether a source topic's ACLs should be considered for
// replication at all (independent of the per-binding transform below).
type Filter interface {
	ShouldReplicateTopic(topic string) bool
}

// Engine syncs topic ACLs from a source cluster to a target cluster under
// a given replication policy and topic filter.
type Engine struct {
	Source       admin.Client
	Target       admin.Client
	Policy       policy.ReplicationPolicy
	SourceAlias  string
	TopicFilter  Filter
	Logger       *log.Logger

	warnedSecurityDisabled bool
}

// ShouldReplicateAcl reports whether a binding is eligible for mirroring:
// only TOPIC+LITERAL ALLOW/DENY bindings for topics the filter accepts, and
// never ALLOW+WRITE (WRITE access to the mirrored topic would let target
// consumers produce to what should be a read-only replica).
func (e *Engine) ShouldReplicateAcl(b mirror.AclBinding) bool {
	if b.Resource.Type != mirror.ACLResourceTopic || b.Resource.Pattern != mirror.ACLPatternLiteral {
		return false
	}
	if !e.TopicFilter.ShouldReplicateTopic(b.Resource.Name) {
		return false
	}
	if b.Entry.Permission == mirror.PermissionAllow && b.Entry.Operation == mirror.OpWrite {
		return false
	}
	return true
}

// TargetAclBinding renames the resource to its mirrored topic name and
// narrows ALLOW+ALL down to ALLOW+READ; every other operation/permission
// pair (notably DENY+ALL) passes through unchanged — DENY bindings are
// always preserved verbatim.
func (e *Engine) TargetAclBinding(b mirror.AclBinding) mirror.AclBinding {
	out := b
	out.Resource.Name = e.Policy.FormatRemote(e.SourceAlias, b.Resource.Name)
	if b.Entry.Permission == mirror.PermissionAllow && b.Entry.Operation == mirror.OpAll {
		out.Entry.Operation = mirror.OpRead
	}
	return out
}

// SyncTopicAcls describes ACLs on source, filters and transforms them, and
// upserts the result on target. If source reports no ACL authorizer is
// configured, the first call logs a recommendation to disable ACL syncing
// entirely and every subsequent call logs a terser skip message instead —
// target is never touched in either case.
func (e *Engine) SyncTopicAcls(ctx context.Context) error {
	bindings, err := e.Source.DescribeAcls(ctx)
	if err != nil {
		if errors.Is(err, admin.ErrSecurityDisabled) {
			if !e.warnedSecurityDisabled {
				e.warnedSecurityDisabled = true
				e.Logger.Warn("Consider disabling topic ACL syncing by setting sync.topic.acls.enabled = false")
				return nil
			}
			e.Logger.Debug("No ACL authorizer present on source cluster, skipping topic ACL sync")
			return nil
		}
		return err
	}

	var targetBindings []mirror.AclBinding
	for _, b := range bindings {
		if !e.ShouldReplicateAcl(b) {
			continue
		}
		targetBindings = append(targetBindings, e.TargetAclBinding(b))
	}
	if len(targetBindings) == 0 {
		return nil
	}
	return e.Target.CreateAcls(ctx, targetBindings)
}
