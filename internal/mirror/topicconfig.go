package mirror

// ConfigSource tags where a config entry's value originates, matching the
// provenance Kafka's DescribeConfigs reports. Only entries explicitly set on
// the topic itself (ConfigSourceDynamicTopic) are ever candidates for
// propagation — see internal/topicconfig.
type ConfigSource string

const (
	ConfigSourceDynamicTopic  ConfigSource = "DYNAMIC_TOPIC_CONFIG"
	ConfigSourceDefault       ConfigSource = "DEFAULT_CONFIG"
	ConfigSourceStaticBroker  ConfigSource = "STATIC_BROKER_CONFIG"
	ConfigSourceDynamicBroker ConfigSource = "DYNAMIC_BROKER_CONFIG"
)

// ConfigEntry is one name/value/provenance triple as described from a
// broker's topic config.
type ConfigEntry struct {
	Name   string
	Value  string
	Source ConfigSource
}

// TopicConfig is the ordered list of config entries describe-configs
// returned for a single topic. Order is preserved end to end so that
// projections through the property filter remain deterministic.
type TopicConfig struct {
	Topic   string
	Entries []ConfigEntry
}

// AsMap flattens the entries to name->value, last entry for a name wins.
// Used when building NewTopic.Configs, which Kafka's CreateTopics expects
// as a flat map.
func (tc TopicConfig) AsMap() map[string]string {
	out := make(map[string]string, len(tc.Entries))
	for _, e := range tc.Entries {
		out[e.Name] = e.Value
	}
	return out
}
