package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_SeparateFiles(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, bootstrapLogFile, serviceLogFile)

	dir := t.TempDir()

	bootstrapLog, err := setupLogger(dir, bootstrapLogFile)
	require.NoError(t, err)

	serviceLog, err := setupLogger(dir, serviceLogFile)
	require.NoError(t, err)

	bootstrapLog.Info("bootstrap")
	serviceLog.Info("service")

	require.NoError(t, bootstrapLog.Close())
	require.NoError(t, serviceLog.Close())
}
