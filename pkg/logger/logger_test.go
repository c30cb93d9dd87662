package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("debug")
	require.Equal(t, zerolog.DebugLevel, Log.GetLevel())
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	SetLevel("loud")
	require.Equal(t, zerolog.InfoLevel, Log.GetLevel())
}

func TestSetJSONKeepsLevel(t *testing.T) {
	t.Cleanup(func() {
		SetJSON(false)
		SetLevel("info")
	})

	SetLevel("warn")
	SetJSON(true)
	require.Equal(t, zerolog.WarnLevel, Log.GetLevel())
	require.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())
}
