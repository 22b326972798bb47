package config

import (
	"bytes"
	"testing"

	chlog "github.com/charmbracelet/log"
)

func testRegistryLogger() *chlog.Logger {
	return chlog.New(&bytes.Buffer{})
}

func TestPairKey(t *testing.T) {
	if got := pairKey("east", "west"); got != "east->west" {
		t.Errorf("pairKey() = %q, want %q", got, "east->west")
	}
}

func TestReconcileSkipsPairWithUnknownClusterAlias(t *testing.T) {
	r := New(testRegistryLogger())
	cfg := FileConfig{
		Clusters: []ClusterConfig{{Alias: "east", Brokers: []string{"localhost:9092"}}},
		Pairs: []PairConfig{
			{SourceAlias: "east", TargetAlias: "nonexistent"},
		},
	}

	if err := r.reconcile(cfg); err != nil {
		t.Fatalf("reconcile() error = %v", err)
	}

	if len(r.pairs) != 0 {
		t.Errorf("expected no pairs to start when target cluster alias is unknown, got %d", len(r.pairs))
	}
}

func TestStatusesOnEmptyRegistry(t *testing.T) {
	r := New(testRegistryLogger())
	statuses := r.Statuses()
	if len(statuses) != 0 {
		t.Errorf("expected no statuses, got %d", len(statuses))
	}
}

func TestCloseOnEmptyRegistryDoesNotPanic(t *testing.T) {
	r := New(testRegistryLogger())
	r.Close()
}
