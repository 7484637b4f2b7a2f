package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grindlemire/go-overlay/internal/config"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	require.Equal(t, "overlay version "+version+"\n", out.String())
}

func TestRootRejectsArguments(t *testing.T) {
	rootCmd.SetArgs([]string{"unexpected"})
	defer rootCmd.SetArgs(nil)

	require.Error(t, rootCmd.Execute())
}

func TestWindowSystem_Headless(t *testing.T) {
	cfg := config.Default()
	cfg.Headless = true

	sys, err := windowSystem(&cfg)
	require.NoError(t, err)
	require.NotNil(t, sys)
	require.Equal(t, uint32(96), sys.DPI())
}
