// Package mirror holds the data model shared by the replication policy,
// filters, ACL and config sync engines, the reconciler, and task assignment:
// the types every other core package exchanges, with no behavior of its own.
package mirror

// SourceAndTarget names a replication direction: records flow from Source to
// Target. Both aliases are short symbolic cluster names, never empty.
type SourceAndTarget struct {
	Source string
	Target string
}

func (st SourceAndTarget) String() string {
	return st.Source + "->" + st.Target
}
