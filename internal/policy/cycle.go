package policy

import "strings"

// AliasedReplicationPolicy is implemented by policies whose FormatRemote
// embeds a recoverable upstream cluster alias in the mirrored topic name
// (DefaultReplicationPolicy does; IdentityReplicationPolicy and arbitrary
// custom policies need not). IsCycle uses it to implement the "does the
// upstream alias equal the target" check; a policy that does not implement
// it is, by construction, unable to structurally detect cycles among
// ordinary topics — this is the tradeoff the identity policy accepts.
type AliasedReplicationPolicy interface {
	ReplicationPolicy
	TopicSource(topic string) (alias string, ok bool)
}

// IsCycle walks the chain of upstream prefixes looking for one whose alias
// is targetAlias. Null-safe: a policy whose UpstreamTopic returns ⊥ at any
// step terminates the walk with false, never faulting.
func IsCycle(p ReplicationPolicy, targetAlias, topic string) bool {
	aliased, _ := p.(AliasedReplicationPolicy)
	for {
		upstream, ok := p.UpstreamTopic(topic)
		if !ok {
			return false
		}
		if aliased != nil {
			if alias, ok := aliased.TopicSource(topic); ok && alias == targetAlias {
				return true
			}
		}
		if upstream == topic || len(upstream) >= len(topic) {
			// A misbehaving custom policy that doesn't shrink the topic on
			// each hop would otherwise recurse forever.
			return false
		}
		topic = upstream
	}
}

// IsHeartbeatCycle reports whether topic is a heartbeat topic whose prefix
// chain includes targetAlias. Heartbeat topics are always named with the
// default separator regardless of the connector's configured
// ReplicationPolicy (see IsHeartbeatTopic), so this check is independent of
// the policy in use — it is what lets heartbeat cycles stay forbidden even
// under IdentityReplicationPolicy, where ordinary IsCycle can't see them.
func IsHeartbeatCycle(targetAlias, topic string) bool {
	if !IsHeartbeatTopic(topic) {
		return false
	}
	parts := strings.Split(topic, SeparatorDefault)
	for _, alias := range parts[:len(parts)-1] {
		if alias == targetAlias {
			return true
		}
	}
	return false
}

// ShouldReplicateTopic combines the user-supplied filter with the
// heartbeat bypass and both cycle checks.
func ShouldReplicateTopic(p ReplicationPolicy, targetAlias, topic string, filter func(string) bool) bool {
	passesFilter := filter(topic) || p.IsInternalTopic(topic)
	return passesFilter && !IsCycle(p, targetAlias, topic) && !IsHeartbeatCycle(targetAlias, topic)
}
