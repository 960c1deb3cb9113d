package features

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

// ErrUnknownEnricher is returned by NewEnricher for unsupported names.
var ErrUnknownEnricher = errors.New("unknown enricher")

// Enricher adds contextual fields to a record before it is formatted.
type Enricher interface {
	Enrich(rec *types.Record)
}

// EnricherFunc adapts a function to Enricher.
type EnricherFunc func(rec *types.Record)

// Enrich implements Enricher.
func (f EnricherFunc) Enrich(rec *types.Record) {
	f(rec)
}

// Enricher names understood by NewEnricher.
const (
	EnricherMachine     = "machine"
	EnricherProcess     = "process"
	EnricherThread      = "thread"
	EnricherEnvironment = "environment"
	EnricherNetwork     = "network"
)

// NewEnricher builds a named enricher. envVars is only used by the
// environment enricher.
func NewEnricher(name string, envVars []string) (Enricher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EnricherMachine:
		return NewMachineEnricher(), nil
	case EnricherProcess:
		return NewProcessEnricher(), nil
	case EnricherThread:
		return ThreadEnricher{}, nil
	case EnricherEnvironment, "env":
		return NewEnvironmentEnricher(envVars...), nil
	case EnricherNetwork:
		return &NetworkEnricher{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownEnricher, "%q", name)
	}
}

// MachineEnricher adds the host name as "machine".
type MachineEnricher struct {
	hostname string
}

// NewMachineEnricher resolves the host name once.
func NewMachineEnricher() *MachineEnricher {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &MachineEnricher{hostname: host}
}

// Enrich implements Enricher.
func (e *MachineEnricher) Enrich(rec *types.Record) {
	rec.SetField("machine", e.hostname)
}

// ProcessEnricher adds "pid" and "process" (executable name).
type ProcessEnricher struct {
	pid  int
	name string
}

// NewProcessEnricher captures the current process identity.
func NewProcessEnricher() *ProcessEnricher {
	name := filepath.Base(os.Args[0])
	if exe, err := os.Executable(); err == nil {
		name = filepath.Base(exe)
	}
	return &ProcessEnricher{pid: os.Getpid(), name: name}
}

// Enrich implements Enricher.
func (e *ProcessEnricher) Enrich(rec *types.Record) {
	rec.SetField("pid", e.pid)
	rec.SetField("process", e.name)
}

// ThreadEnricher adds the OS thread id of the calling goroutine as
// "thread". Goroutines migrate between threads, so the value identifies
// where the call ran, not a stable goroutine identity.
type ThreadEnricher struct{}

// Enrich implements Enricher.
func (ThreadEnricher) Enrich(rec *types.Record) {
	rec.SetField("thread", threadID())
}

// EnvironmentEnricher copies selected environment variables into
// "env.NAME" fields. Unset variables are skipped.
type EnvironmentEnricher struct {
	vars []string
}

// NewEnvironmentEnricher creates an enricher for vars.
func NewEnvironmentEnricher(vars ...string) *EnvironmentEnricher {
	return &EnvironmentEnricher{vars: vars}
}

// Enrich implements Enricher.
func (e *EnvironmentEnricher) Enrich(rec *types.Record) {
	for _, name := range e.vars {
		if v, ok := os.LookupEnv(name); ok {
			rec.SetField("env."+name, v)
		}
	}
}

// NetworkEnricher adds the first non-loopback IPv4 address as "ip".
// The lookup runs once.
type NetworkEnricher struct {
	once sync.Once
	ip   string
}

// Enrich implements Enricher.
func (e *NetworkEnricher) Enrich(rec *types.Record) {
	e.once.Do(func() {
		e.ip = primaryIPv4()
	})
	if e.ip != "" {
		rec.SetField("ip", e.ip)
	}
}

func primaryIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

// EnrichmentChain runs enrichers in registration order. Later enrichers
// overwrite fields set by earlier ones.
type EnrichmentChain struct {
	mu        sync.RWMutex
	enrichers []Enricher
}

// Add appends an enricher.
func (c *EnrichmentChain) Add(e Enricher) {
	if e == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enrichers = append(c.enrichers, e)
}

// Len returns the number of enrichers.
func (c *EnrichmentChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.enrichers)
}

// Enrich implements Enricher.
func (c *EnrichmentChain) Enrich(rec *types.Record) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.enrichers {
		e.Enrich(rec)
	}
}
