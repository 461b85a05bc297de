package testlog

import (
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/StinkyLord/sbomkit/internal/logging"
)

// Start installs the test logger and records which test is running.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Debug().Str("test", t.Name()).Msg("start")
}
