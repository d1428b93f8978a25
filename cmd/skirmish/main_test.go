package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestConditionsCommand(t *testing.T) {
	out := execute(t, "conditions")
	assert.Contains(t, out, "paralyzed")
	assert.Contains(t, out, "exhaustion")

	out = execute(t, "conditions", "Restrained")
	assert.Contains(t, out, "speed_set 0")
	assert.Contains(t, out, "attacked_with_advantage")
}

func TestRunCommand(t *testing.T) {
	out := execute(t, "run", "../../content/scenarios/goblin_ambush.yaml", "--seed", "3")
	assert.Contains(t, out, "goblin ambush")
	assert.Contains(t, out, "encounter ended")
	assert.Contains(t, out, "published")
}
