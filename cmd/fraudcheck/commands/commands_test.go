package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/bidguard/internal/cli"
	"github.com/mbd888/bidguard/internal/forensiq"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheckCommand_JSON(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "k1", r.URL.Query().Get("ck"))
		_, _ = w.Write([]byte(`{"riskScore":80,"timeMs":4}`))
	}))
	defer srv.Close()

	out, err := run(t, "check",
		"--endpoint", srv.URL+"/check",
		"--key", "k1",
		"--ip", "203.0.113.7",
		"--seller", "news.example.com",
		"--count", "2",
		"--format", "json",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	var sum cli.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	require.Len(t, sum.Verdicts, 2)
	assert.Equal(t, "flagged", sum.Verdicts[0].Outcome)
	assert.False(t, sum.Verdicts[0].Bid)
	assert.Equal(t, uint64(2), sum.Stats.Calls)
}

func TestCheckCommand_MissingSeller(t *testing.T) {
	_, err := run(t, "check",
		"--endpoint", "http://127.0.0.1:1/check",
		"--key", "k1",
		"--ip", "203.0.113.7",
		"--seller", "",
		"--count", "1",
		"--format", "table",
	)
	var mf *forensiq.MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, "seller", mf.Field)
}

func TestCheckCommand_BadFormat(t *testing.T) {
	_, err := run(t, "check", "--key", "k1", "--ip", "1.2.3.4", "--seller", "s", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "fraudcheck dev"))
}
