package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/cleo/pkg/content"
	"github.com/codeready-toolchain/cleo/pkg/ingest"
	"github.com/codeready-toolchain/cleo/pkg/publish"
	"github.com/codeready-toolchain/cleo/pkg/services"
)

func TestServer_ValidateWiring(t *testing.T) {
	t.Run("all required services wired", func(t *testing.T) {
		s := &Server{
			ingest:    &ingest.Handlers{},
			content:   &content.Service{},
			publisher: &publish.Orchestrator{},
			users:     &services.UserService{},
		}
		assert.NoError(t, s.ValidateWiring())
	})

	t.Run("no services wired", func(t *testing.T) {
		s := &Server{}
		err := s.ValidateWiring()
		require.Error(t, err)

		msg := err.Error()
		assert.Contains(t, msg, "server wiring incomplete")
		assert.Contains(t, msg, "ingest")
		assert.Contains(t, msg, "content")
		assert.Contains(t, msg, "publish orchestrator")
		assert.Contains(t, msg, "user service")
		assert.Equal(t, 4, strings.Count(msg, "not set"))
	})

	t.Run("partial wiring reports only missing", func(t *testing.T) {
		s := &Server{
			ingest:  &ingest.Handlers{},
			content: &content.Service{},
		}
		err := s.ValidateWiring()
		require.Error(t, err)

		msg := err.Error()
		assert.Contains(t, msg, "publish orchestrator")
		assert.Contains(t, msg, "user service")
		assert.Equal(t, 2, strings.Count(msg, "not set"))
	})
}
