package filter

// TopicFilter decides whether a topic is eligible for replication, prior to
// any policy-level cycle/heartbeat checks.
type TopicFilter interface {
	ShouldReplicateTopic(topic string) bool
}

// DefaultTopicFilter replicates a topic when it matches Include (or
// Include is empty, meaning "match everything") and does not match
// Exclude. Exclude always wins over Include.
type DefaultTopicFilter struct {
	include patternList
	exclude patternList
}

// NewDefaultTopicFilter builds a DefaultTopicFilter from comma-separated
// regex lists, mirroring the "topics" / "topics.exclude" connector
// properties.
func NewDefaultTopicFilter(include, exclude string) (DefaultTopicFilter, error) {
	inc, err := newPatternList(include)
	if err != nil {
		return DefaultTopicFilter{}, err
	}
	exc, err := newPatternList(exclude)
	if err != nil {
		return DefaultTopicFilter{}, err
	}
	return DefaultTopicFilter{include: inc, exclude: exc}, nil
}

func (f DefaultTopicFilter) ShouldReplicateTopic(topic string) bool {
	if f.exclude.matchesAny(topic) {
		return false
	}
	return f.include.empty() || f.include.matchesAny(topic)
}
