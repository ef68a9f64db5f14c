package bootstrap

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand(t *testing.T) {
	var got []string
	serve := func(_ context.Context, file string) error {
		got = append(got, file)
		return nil
	}

	for _, args := range [][]string{
		{},
		{"serve", "--config", "configs/city.yaml"},
		{"-c", "other.yaml"},
	} {
		cmd := NewCommand("demo", "demo service", serve)
		cmd.SetArgs(args)
		require.NoError(t, cmd.ExecuteContext(context.Background()))
	}
	assert.Equal(t, []string{"", "configs/city.yaml", "other.yaml"}, got)
}

func TestNewCommand_Version(t *testing.T) {
	cmd := NewCommand("demo", "demo service", func(context.Context, string) error { return nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "demo dev\n", out.String())
}
