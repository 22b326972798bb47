package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	chlog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/kmirror/connector/internal/admin"
	"github.com/kmirror/connector/internal/admin/kadmin"
	"github.com/kmirror/connector/internal/connector"
	"github.com/kmirror/connector/internal/statusapi"
)

// pair is one running replication pair: its admin clients and the two
// connector halves driving them.
type pair struct {
	sourceAlias, targetAlias string

	sourceCluster, targetCluster ClusterConfig

	sourceClient admin.Client
	targetClient admin.Client

	source *connector.SourceConnector
	cp     *connector.CheckpointConnector

	lastErr error
}

// PairRegistry holds every running replication pair and keeps them in sync
// with a YAML config file, reconciling added/removed entries on every
// reload instead of requiring a process restart.
type PairRegistry struct {
	mu         sync.Mutex
	pairs      map[string]*pair // keyed by "source->target"
	config     FileConfig
	configPath string
	logger     *chlog.Logger
	watcher    *fsnotify.Watcher
}

// New returns an empty PairRegistry.
func New(logger *chlog.Logger) *PairRegistry {
	return &PairRegistry{
		pairs:  make(map[string]*pair),
		logger: logger,
	}
}

func pairKey(source, target string) string {
	return source + "->" + target
}

// LoadFromFile reads cfg from path and reconciles running pairs against it.
func (r *PairRegistry) LoadFromFile(path string) error {
	cfg, err := ReadConfig(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.config = cfg
	r.configPath = path
	r.mu.Unlock()
	return r.reconcile(cfg)
}

func (r *PairRegistry) reconcile(cfg FileConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[string]struct{}, len(cfg.Pairs))
	for _, pc := range cfg.Pairs {
		key := pairKey(pc.SourceAlias, pc.TargetAlias)
		wanted[key] = struct{}{}

		if _, ok := r.pairs[key]; ok {
			continue // pair already running; changed properties are not applied until it is removed and re-added
		}

		p, err := r.startPair(cfg, pc)
		if err != nil {
			r.logger.Error("failed to start replication pair", "source", pc.SourceAlias, "target", pc.TargetAlias, "err", err)
			continue
		}
		r.pairs[key] = p
	}

	for key, p := range r.pairs {
		if _, ok := wanted[key]; !ok {
			r.stopPair(p)
			delete(r.pairs, key)
		}
	}
	return nil
}

func (r *PairRegistry) startPair(cfg FileConfig, pc PairConfig) (*pair, error) {
	sourceCluster, ok := cfg.ClusterByAlias(pc.SourceAlias)
	if !ok {
		return nil, fmt.Errorf("config: unknown source cluster alias %q", pc.SourceAlias)
	}
	targetCluster, ok := cfg.ClusterByAlias(pc.TargetAlias)
	if !ok {
		return nil, fmt.Errorf("config: unknown target cluster alias %q", pc.TargetAlias)
	}

	props := map[string]string{"source.alias": pc.SourceAlias, "target.alias": pc.TargetAlias}
	for k, v := range pc.Properties {
		props[k] = v
	}
	connCfg := connector.ParseConfig(props)

	sourceClient, err := kadmin.Dial(sourceCluster.DialConfig(), connCfg.AdminTimeout)
	if err != nil {
		return nil, fmt.Errorf("dialing source cluster %q: %w", pc.SourceAlias, err)
	}
	targetClient, err := kadmin.Dial(targetCluster.DialConfig(), connCfg.AdminTimeout)
	if err != nil {
		sourceClient.Close()
		return nil, fmt.Errorf("dialing target cluster %q: %w", pc.TargetAlias, err)
	}

	pairLogger := r.logger.With("source", pc.SourceAlias, "target", pc.TargetAlias)

	sc, err := connector.NewSourceConnector(connCfg, sourceClient, targetClient, pairLogger, nil)
	if err != nil {
		sourceClient.Close()
		targetClient.Close()
		return nil, err
	}
	if err := sc.CreateInternalTopics(context.Background(), targetClient); err != nil {
		sourceClient.Close()
		targetClient.Close()
		return nil, err
	}
	if err := sc.Start(context.Background(), pairLogger); err != nil {
		sourceClient.Close()
		targetClient.Close()
		return nil, err
	}

	cp, err := connector.NewCheckpointConnector(connCfg, sourceClient, pairLogger, nil)
	if err != nil {
		sc.Stop()
		sourceClient.Close()
		targetClient.Close()
		return nil, err
	}
	if err := cp.Start(context.Background(), targetClient, pairLogger); err != nil {
		sc.Stop()
		sourceClient.Close()
		targetClient.Close()
		return nil, err
	}

	return &pair{
		sourceAlias:   pc.SourceAlias,
		targetAlias:   pc.TargetAlias,
		sourceCluster: sourceCluster,
		targetCluster: targetCluster,
		sourceClient:  sourceClient,
		targetClient:  targetClient,
		source:        sc,
		cp:            cp,
	}, nil
}

func (r *PairRegistry) stopPair(p *pair) {
	p.source.Stop()
	p.cp.Stop()
	p.sourceClient.Close()
	p.targetClient.Close()
}

// Watch registers an fsnotify watcher on path's directory and reloads
// whenever the file itself changes.
func (r *PairRegistry) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	r.watcher = w

	go func() {
		for ev := range w.Events {
			if ev.Name == abs && (ev.Op&fsnotify.Write == fsnotify.Write || ev.Op&fsnotify.Create == fsnotify.Create) {
				r.logger.Info("config file changed, reloading", "path", ev.Name)
				if err := r.LoadFromFile(path); err != nil {
					r.logger.Error("failed to reload config", "err", err)
				}
			}
		}
	}()
	return nil
}

// Close stops every running pair and the file watcher, if any.
func (r *PairRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
	for key, p := range r.pairs {
		r.stopPair(p)
		delete(r.pairs, key)
	}
}

// Statuses reports every running pair's health, satisfying
// statusapi.Registry.
func (r *PairRegistry) Statuses() []statusapi.PairStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]statusapi.PairStatus, 0, len(r.pairs))
	for _, p := range r.pairs {
		st := statusapi.PairStatus{
			SourceAlias:    p.sourceAlias,
			TargetAlias:    p.targetAlias,
			Running:        true,
			SourceAuthType: p.sourceCluster.GetAuthType(),
			TargetAuthType: p.targetCluster.GetAuthType(),
		}
		if p.lastErr != nil {
			st.LastError = p.lastErr.Error()
		}
		if cert, err := p.sourceCluster.GetCertificateInfo(); err != nil {
			r.logger.Error("reading source certificate", "source", p.sourceAlias, "err", err)
		} else if cert != nil {
			st.SourceCertificate = certificateStatus(cert)
		}
		if cert, err := p.targetCluster.GetCertificateInfo(); err != nil {
			r.logger.Error("reading target certificate", "target", p.targetAlias, "err", err)
		} else if cert != nil {
			st.TargetCertificate = certificateStatus(cert)
		}
		out = append(out, st)
	}
	return out
}

func certificateStatus(c *CertificateInfo) *statusapi.CertificateStatus {
	return &statusapi.CertificateStatus{
		NotAfter:     c.NotAfter,
		DaysToExpiry: c.DaysToExpiry,
		Status:       c.Status,
	}
}
