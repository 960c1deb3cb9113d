package features

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayneeseguin/scriptlog/pkg/types"
)

func TestNewEnricher(t *testing.T) {
	for _, name := range []string{"machine", "process", "thread", "environment", "network"} {
		e, err := NewEnricher(name, nil)
		require.NoError(t, err, name)
		assert.NotNil(t, e)
	}

	_, err := NewEnricher("weather", nil)
	assert.ErrorIs(t, err, ErrUnknownEnricher)
}

func TestEnrichmentChain(t *testing.T) {
	t.Setenv("SCRIPTLOG_TEST_STAGE", "ci")

	var chain EnrichmentChain
	chain.Add(NewMachineEnricher())
	chain.Add(NewProcessEnricher())
	chain.Add(ThreadEnricher{})
	chain.Add(NewEnvironmentEnricher("SCRIPTLOG_TEST_STAGE", "SCRIPTLOG_TEST_UNSET"))
	chain.Add(nil)
	assert.Equal(t, 4, chain.Len())

	rec := types.NewRecord(types.LevelInfo, "m")
	chain.Enrich(rec)

	host, _ := os.Hostname()
	assert.Equal(t, host, rec.Fields["machine"])
	assert.Equal(t, os.Getpid(), rec.Fields["pid"])
	assert.NotEmpty(t, rec.Fields["process"])
	assert.NotZero(t, rec.Fields["thread"])
	assert.Equal(t, "ci", rec.Fields["env.SCRIPTLOG_TEST_STAGE"])
	assert.NotContains(t, rec.Fields, "env.SCRIPTLOG_TEST_UNSET")
}

func TestEnricherFunc_LaterWins(t *testing.T) {
	var chain EnrichmentChain
	chain.Add(EnricherFunc(func(r *types.Record) { r.SetField("k", 1) }))
	chain.Add(EnricherFunc(func(r *types.Record) { r.SetField("k", 2) }))

	rec := types.NewRecord(types.LevelInfo, "m")
	chain.Enrich(rec)
	assert.Equal(t, 2, rec.Fields["k"])
}
