package policy

import "strings"

// SeparatorDefault is the separator DefaultReplicationPolicy inserts
// between a source cluster alias and the original topic name.
const SeparatorDefault = "."

// HeartbeatsTopic is the name of the heartbeat topic before any mirror
// prefix is applied.
const HeartbeatsTopic = "heartbeats"

// DefaultReplicationPolicy prefixes the source alias onto the topic name,
// separated by Separator (default ".").
type DefaultReplicationPolicy struct {
	// Separator overrides SeparatorDefault when non-empty.
	Separator string
}

func (p DefaultReplicationPolicy) sep() string {
	if p.Separator != "" {
		return p.Separator
	}
	return SeparatorDefault
}

func (p DefaultReplicationPolicy) FormatRemote(sourceAlias, topic string) string {
	return sourceAlias + p.sep() + topic
}

// TopicSource returns the leading alias segment of topic (the prefix
// FormatRemote would have added), or ok=false if topic carries none. It
// satisfies the optional AliasedReplicationPolicy interface and is what
// lets IsCycle recover the upstream alias from a mirrored topic name.
func (p DefaultReplicationPolicy) TopicSource(topic string) (string, bool) {
	sep := p.sep()
	i := strings.Index(topic, sep)
	if i <= 0 {
		return "", false
	}
	return topic[:i], true
}

func (p DefaultReplicationPolicy) UpstreamTopic(topic string) (string, bool) {
	source, ok := p.TopicSource(topic)
	if !ok {
		return "", false
	}
	return topic[len(source)+len(p.sep()):], true
}

func (p DefaultReplicationPolicy) IsInternalTopic(topic string) bool {
	return IsHeartbeatTopic(topic) || strings.HasPrefix(topic, "__")
}

func (p DefaultReplicationPolicy) OriginalTopic(topic string) string {
	for {
		upstream, ok := p.UpstreamTopic(topic)
		if !ok {
			return topic
		}
		topic = upstream
	}
}

// IsHeartbeatTopic reports whether topic is the heartbeat topic or a
// mirrored copy of it at any number of hops (e.g. "us-west.heartbeats").
// Heartbeat topics are always named with the default separator regardless
// of which ReplicationPolicy the connector is configured with — see
// IsHeartbeatCycle.
func IsHeartbeatTopic(topic string) bool {
	return topic == HeartbeatsTopic || strings.HasSuffix(topic, SeparatorDefault+HeartbeatsTopic)
}
