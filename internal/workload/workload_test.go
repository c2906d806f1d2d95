package workload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ndforge/ndforge/internal/engine/native"
)

const sampleWorkload = `
engine = "native"
device = "cpu"

array "a" {
  creator = "arange"
  params = {
    start = 0
    stop  = 4
  }
}

array "b" {
  creator = "full"
  shape   = [4]
  params = {
    value = 10
  }
}

array "noise" {
  creator = "random_normal"
  shape   = [4]
  params = {
    loc   = 0
    scale = 0.1
  }
}

op "sum" {
  operation = "add"
  inputs    = ["a", "b"]
}
`

func TestLoadBytes(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleWorkload), "sample.hcl")
	require.NoError(t, err)

	assert.Equal(t, "native", cfg.Engine)
	assert.Equal(t, "cpu", cfg.Device)
	require.Len(t, cfg.Arrays, 3)
	assert.Equal(t, "a", cfg.Arrays[0].Name)
	assert.Equal(t, "arange", cfg.Arrays[0].Creator)
	assert.Equal(t, []int{4}, cfg.Arrays[1].Shape)
	require.Len(t, cfg.Ops, 1)
	assert.Equal(t, []string{"a", "b"}, cfg.Ops[0].Inputs)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wl.hcl")
	require.NoError(t, os.WriteFile(path, []byte(sampleWorkload), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Arrays, 3)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadBytes([]byte(`array "a" {`), "broken.hcl")
	assert.Error(t, err, "syntax error")

	_, err = LoadBytes([]byte(`array "a" {}`), "missing.hcl")
	assert.Error(t, err, "missing required creator attribute")

	_, err = Load(filepath.Join(t.TempDir(), "nope.hcl"))
	assert.Error(t, err)
}

func TestRunWorkload(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleWorkload), "sample.hcl")
	require.NoError(t, err)

	eng := native.NewWithSeed(1)
	defer eng.Close()

	require.NoError(t, Run(zap.NewNop(), eng, cfg))
	assert.Equal(t, 0, eng.Len(), "workload arrays all released on completion")
}

func TestRunUnknownInput(t *testing.T) {
	src := `
array "a" {
  creator = "zeros"
  shape   = [2]
}

op "bad" {
  operation = "add"
  inputs    = ["a", "ghost"]
}
`
	cfg, err := LoadBytes([]byte(src), "bad.hcl")
	require.NoError(t, err)

	eng := native.NewWithSeed(1)
	defer eng.Close()

	err = Run(zap.NewNop(), eng, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Equal(t, 0, eng.Len(), "arrays released even on failure")
}

func TestRunUnknownCreator(t *testing.T) {
	src := `
array "a" {
  creator = "summon"
  shape   = [2]
}
`
	cfg, err := LoadBytes([]byte(src), "bad.hcl")
	require.NoError(t, err)

	eng := native.NewWithSeed(1)
	defer eng.Close()
	assert.Error(t, Run(zap.NewNop(), eng, cfg))
}

func TestRunDuplicateName(t *testing.T) {
	src := `
array "a" {
  creator = "zeros"
  shape   = [2]
}

array "a" {
  creator = "ones"
  shape   = [2]
}
`
	cfg, err := LoadBytes([]byte(src), "dup.hcl")
	require.NoError(t, err)

	eng := native.NewWithSeed(1)
	defer eng.Close()
	err = Run(zap.NewNop(), eng, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRunDtypeAndDevice(t *testing.T) {
	src := `
device = "cpu"

array "ints" {
  creator = "arange"
  dtype   = "int32"
  params = {
    start = 0
    stop  = 3
  }
}
`
	cfg, err := LoadBytes([]byte(src), "dtype.hcl")
	require.NoError(t, err)

	eng := native.NewWithSeed(1)
	defer eng.Close()
	require.NoError(t, Run(zap.NewNop(), eng, cfg))
}

func TestRunBadDevice(t *testing.T) {
	cfg := &Config{Device: "abacus"}
	eng := native.NewWithSeed(1)
	defer eng.Close()
	assert.Error(t, Run(zap.NewNop(), eng, cfg))
}
