package filter

// GroupFilter decides whether a consumer group is eligible for checkpoint
// replication.
type GroupFilter interface {
	ShouldReplicateGroup(group string) bool
}

// DefaultGroupFilter mirrors DefaultTopicFilter's include/exclude logic,
// applied to consumer group IDs ("groups" / "groups.exclude").
type DefaultGroupFilter struct {
	include patternList
	exclude patternList
}

func NewDefaultGroupFilter(include, exclude string) (DefaultGroupFilter, error) {
	inc, err := newPatternList(include)
	if err != nil {
		return DefaultGroupFilter{}, err
	}
	exc, err := newPatternList(exclude)
	if err != nil {
		return DefaultGroupFilter{}, err
	}
	return DefaultGroupFilter{include: inc, exclude: exc}, nil
}

func (f DefaultGroupFilter) ShouldReplicateGroup(group string) bool {
	if f.exclude.matchesAny(group) {
		return false
	}
	return f.include.empty() || f.include.matchesAny(group)
}
