package filter

// BaselineExcludedConfigProperties are topic config properties the
// reconciler never propagates to the target, regardless of user
// configuration: throttled-replica bookkeeping and per-broker tuning knobs
// that only make sense relative to the source cluster's own topology.
var BaselineExcludedConfigProperties = []string{
	"follower.replication.throttled.replicas",
	"leader.replication.throttled.replicas",
	"message.timestamp.difference.max.ms",
	"message.timestamp.type",
	"unclean.leader.election.enable",
	"min.insync.replicas",
}

// ConfigPropertyFilter decides whether a topic config property is eligible
// to be synced from source to target.
type ConfigPropertyFilter interface {
	ShouldReplicateConfigProperty(name string) bool
}

// DefaultConfigPropertyFilter excludes BaselineExcludedConfigProperties
// plus any user-supplied exclude patterns ("config.properties.exclude"),
// then applies an optional include list the same way DefaultTopicFilter
// does.
type DefaultConfigPropertyFilter struct {
	include  patternList
	exclude  patternList
	baseline patternList
}

func NewDefaultConfigPropertyFilter(include, exclude string) (DefaultConfigPropertyFilter, error) {
	inc, err := newPatternList(include)
	if err != nil {
		return DefaultConfigPropertyFilter{}, err
	}
	exc, err := newPatternList(exclude)
	if err != nil {
		return DefaultConfigPropertyFilter{}, err
	}
	baseline, err := newPatternList(joinBaseline())
	if err != nil {
		return DefaultConfigPropertyFilter{}, err
	}
	return DefaultConfigPropertyFilter{include: inc, exclude: exc, baseline: baseline}, nil
}

func joinBaseline() string {
	out := ""
	for i, p := range BaselineExcludedConfigProperties {
		if i > 0 {
			out += ","
		}
		out += regexEscapeLiteralDots(p)
	}
	return out
}

// regexEscapeLiteralDots escapes the literal dots in a property name so
// "min.insync.replicas" doesn't accidentally match "minXinsyncXreplicas" as
// a regex; baseline entries are literal names, not patterns.
func regexEscapeLiteralDots(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, '\\', '.')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (f DefaultConfigPropertyFilter) ShouldReplicateConfigProperty(name string) bool {
	if f.baseline.matchesAny(name) || f.exclude.matchesAny(name) {
		return false
	}
	return f.include.empty() || f.include.matchesAny(name)
}
