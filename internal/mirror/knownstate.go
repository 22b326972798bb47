package mirror

// KnownState is a connector instance's in-memory view of what it has last
// observed on the source and target clusters. It is created fresh on Start,
// mutated only by the scheduler's single worker goroutine, and discarded on
// Stop — nothing here survives a restart.
//
// Readers outside the scheduler goroutine (TaskConfigs) never mutate it in
// place: connectors hold it behind an atomic.Pointer and publish a freshly
// built, fully-populated value when they update it.
type KnownState struct {
	KnownSourceTopicPartitions map[TopicPartition]struct{}
	KnownTargetTopicPartitions map[TopicPartition]struct{}
	KnownConsumerGroups        []string
	AclSyncDisabledWarned      bool
}

// NewKnownState returns an empty, ready-to-publish state.
func NewKnownState() *KnownState {
	return &KnownState{
		KnownSourceTopicPartitions: make(map[TopicPartition]struct{}),
		KnownTargetTopicPartitions: make(map[TopicPartition]struct{}),
	}
}

// Clone makes a deep-enough copy for safe publication: callers build a new
// KnownState from an old one, mutate the copy, then swap it in via
// atomic.Pointer[KnownState].Store. No in-place mutation of a published
// KnownState is ever permitted.
func (s *KnownState) Clone() *KnownState {
	clone := &KnownState{
		KnownSourceTopicPartitions: make(map[TopicPartition]struct{}, len(s.KnownSourceTopicPartitions)),
		KnownTargetTopicPartitions: make(map[TopicPartition]struct{}, len(s.KnownTargetTopicPartitions)),
		KnownConsumerGroups:        append([]string(nil), s.KnownConsumerGroups...),
		AclSyncDisabledWarned:      s.AclSyncDisabledWarned,
	}
	for tp := range s.KnownSourceTopicPartitions {
		clone.KnownSourceTopicPartitions[tp] = struct{}{}
	}
	for tp := range s.KnownTargetTopicPartitions {
		clone.KnownTargetTopicPartitions[tp] = struct{}{}
	}
	return clone
}
