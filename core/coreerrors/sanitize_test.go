package coreerrors_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
)

func TestPrefixRedactorRedactsSecretValues(t *testing.T) {
	r := coreerrors.NewPrefixRedactor()
	msg := r.Sanitize("connect failed: password=hunter2, retrying")
	require.NotContains(t, msg, "hunter2")
	require.Contains(t, msg, "[REDACTED]")
}

func TestPrefixRedactorLeavesUnmatchedTextAlone(t *testing.T) {
	r := coreerrors.NewPrefixRedactor()
	msg := r.Sanitize("file not found: /tmp/report.csv")
	require.Equal(t, "file not found: /tmp/report.csv", msg)
}

func TestPassthroughReturnsMessageUnchanged(t *testing.T) {
	require.Equal(t, "raw message", coreerrors.Passthrough{}.Sanitize("raw message"))
}

func TestFailureEnvelopeCarriesKindAndSanitizesMessage(t *testing.T) {
	err := coreerrors.Security("privileged_tool_denied", "token=abc123 rejected")
	env := coreerrors.Failure("invoke_tool", err, coreerrors.NewPrefixRedactor())
	require.False(t, env.Success)
	require.Equal(t, coreerrors.KindSecurity, env.Kind)
	require.NotContains(t, env.Message, "abc123")
}

func TestSuccessEnvelope(t *testing.T) {
	env := coreerrors.Success("list_keys", []string{"a", "b"})
	require.True(t, env.Success)
	require.Equal(t, []string{"a", "b"}, env.Result)
}

func TestFailureWithoutCoreErrorStillSanitizes(t *testing.T) {
	env := coreerrors.Failure("op", errors.New("api_key=zzz leaked"), coreerrors.NewPrefixRedactor())
	require.False(t, strings.Contains(env.Message, "zzz"))
}
