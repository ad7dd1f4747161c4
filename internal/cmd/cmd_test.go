package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joshuarp/flakeid/internal/app"
	"github.com/joshuarp/flakeid/internal/shared/snowflake"
	"github.com/joshuarp/flakeid/internal/shared/uid"
)

type CommandSuite struct {
	suite.Suite
}

func (s *CommandSuite) SetupTest() {
	s.T().Setenv("FLAKEID_LOGGING_LEVEL", "error")
}

func (s *CommandSuite) run(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (s *CommandSuite) TestGenerate_PrintsRequestedCount() {
	out, err := s.run("generate", "-n", "3", "--worker-id", "5")
	require.NoError(s.T(), err)

	lines := strings.Fields(out)
	require.Len(s.T(), lines, 3)

	var previous int64
	for _, line := range lines {
		id, err := strconv.ParseInt(line, 10, 64)
		require.NoError(s.T(), err)
		assert.Greater(s.T(), id, previous)
		previous = id

		parts, err := snowflake.Decompose(id, app.DefaultEpoch)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), uint16(5), parts.WorkerID)
	}
}

func (s *CommandSuite) TestGenerate_RejectsInvalidInput() {
	tests := []struct {
		name string
		args []string
	}{
		{name: "zero count", args: []string{"generate", "-n", "0"}},
		{name: "worker id above range", args: []string{"generate", "--worker-id", "1024"}},
		{name: "unknown mode", args: []string{"generate", "--mode", "threads"}},
		{name: "epoch in future", args: []string{"generate", "--epoch", "9000000000000000"}},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			_, err := s.run(tc.args...)
			assert.Error(s.T(), err)
		})
	}
}

func (s *CommandSuite) TestGenerateThenDecompose_Base58() {
	out, err := s.run("generate", "--worker-id", "700", "--encoding", "base58", "--mode", "async")
	require.NoError(s.T(), err)
	encoded := strings.TrimSpace(out)

	id, err := uid.Parse(encoded, uid.EncodingBase58)
	require.NoError(s.T(), err)

	out, err = s.run("decompose", encoded, "--encoding", "base58", "--json")
	require.NoError(s.T(), err)

	var decoded struct {
		ID       string `json:"id"`
		WorkerID uint16 `json:"worker_id"`
		Sequence uint16 `json:"sequence"`
		Time     string `json:"time"`
	}
	require.NoError(s.T(), json.Unmarshal([]byte(out), &decoded))
	assert.Equal(s.T(), encoded, decoded.ID)
	assert.Equal(s.T(), uint16(700), decoded.WorkerID)
	assert.NotEmpty(s.T(), decoded.Time)

	parts, err := snowflake.Decompose(id, app.DefaultEpoch)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), parts.Sequence, decoded.Sequence)
}

func (s *CommandSuite) TestDecompose_KnownIdentifier() {
	id := snowflake.Compose(1000, 3, 7)

	out, err := s.run("decompose", "--epoch", "0", strconv.FormatInt(id, 10))
	require.NoError(s.T(), err)

	assert.Contains(s.T(), out, "timestamp=1000 ")
	assert.Contains(s.T(), out, "time=1970-01-01T00:00:01Z")
	assert.Contains(s.T(), out, "worker_id=3 ")
	assert.Contains(s.T(), out, "sequence=7")
}

func (s *CommandSuite) TestDecompose_EpochAheadOfClock() {
	epoch := time.Now().Add(24 * time.Hour).UnixMilli()
	id := snowflake.Compose(1000, 3, 7)

	out, err := s.run("decompose", "--epoch", strconv.FormatInt(epoch, 10), strconv.FormatInt(id, 10))
	require.NoError(s.T(), err)
	assert.Contains(s.T(), out, "timestamp="+strconv.FormatInt(epoch+1000, 10)+" ")
	assert.Contains(s.T(), out, "worker_id=3 ")

	_, err = s.run("generate", "--epoch", strconv.FormatInt(epoch, 10))
	assert.Error(s.T(), err)
}

func (s *CommandSuite) TestDecompose_Errors() {
	_, err := s.run("decompose", "--", "-5")
	assert.ErrorIs(s.T(), err, snowflake.ErrNegativeIdentifier)

	_, err = s.run("decompose", "not-an-id")
	assert.Error(s.T(), err)

	_, err = s.run("decompose")
	assert.Error(s.T(), err)
}

func (s *CommandSuite) TestBench_TableDriven() {
	tests := []struct {
		name      string
		args      []string
		expectErr bool
	}{
		{name: "synced", args: []string{"bench", "--workers", "4", "--per-worker", "2000"}},
		{name: "async", args: []string{"bench", "--workers", "4", "--per-worker", "2000", "--mode", "async"}},
		{name: "local single worker", args: []string{"bench", "--workers", "1", "--per-worker", "2000", "--mode", "local"}},
		{name: "local rejects many workers", args: []string{"bench", "--workers", "2", "--mode", "local"}, expectErr: true},
		{name: "non-positive workers", args: []string{"bench", "--workers", "0"}, expectErr: true},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			out, err := s.run(tc.args...)
			if tc.expectErr {
				assert.Error(s.T(), err)
				return
			}
			require.NoError(s.T(), err)
			assert.Contains(s.T(), out, "duplicates=0")
		})
	}
}

func (s *CommandSuite) TestAppOptions_OnlyChangedFlags() {
	root := NewRootCmd()
	require.NoError(s.T(), root.ParseFlags([]string{"--worker-id", "9", "--config", "x.yaml"}))

	opts := appOptions(root)
	assert.Equal(s.T(), "x.yaml", opts.ConfigPath)
	assert.Equal(s.T(), map[string]any{"generator.worker_id": "9"}, opts.Overrides)
}

func TestCommandSuite(t *testing.T) {
	suite.Run(t, new(CommandSuite))
}

func TestRunBench_CountsAllIDs(t *testing.T) {
	gen, err := snowflake.NewSynced(0, 1)
	require.NoError(t, err)

	result, err := runBench(context.Background(), gen, 3, 500)
	require.NoError(t, err)
	assert.Equal(t, 1500, result.Total)
	assert.Zero(t, result.Duplicates)
	assert.Greater(t, result.perMillisecond(), float64(0))
}
