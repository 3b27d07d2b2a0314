package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/reportwatch/pkg/ingest"
)

func baseFile() *AppConfig {
	cfg := Defaults()
	cfg.Rules = []RuleConfig{{Type: "junit", Paths: "reports"}}
	return cfg
}

func TestResolveConfig_PriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		cli        CliFlags
		env        map[string]string
		wantValue  bool
		wantSource string
	}{
		{
			name:       "file value when nothing overrides it",
			wantValue:  true,
			wantSource: SourceFile,
		},
		{
			name:       "env overrides file",
			env:        map[string]string{"RW_PARSE_OUT_OF_DATE": "false"},
			wantValue:  false,
			wantSource: SourceEnv,
		},
		{
			name:       "CLI overrides env",
			cli:        CliFlags{ParseOutOfDate: true, ParseOutOfDateSet: true},
			env:        map[string]string{"RW_PARSE_OUT_OF_DATE": "false"},
			wantValue:  true,
			wantSource: SourceCLI,
		},
		{
			name:       "unparseable env is ignored",
			env:        map[string]string{"RW_PARSE_OUT_OF_DATE": "maybe"},
			wantValue:  true,
			wantSource: SourceFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RW_PARSE_OUT_OF_DATE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			file := baseFile()
			file.ParseOutOfDate = true

			resolved, err := ResolveConfig(tt.cli, file, "/cfg/"+FileName)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, resolved.ParseOutOfDate)
			assert.Equal(t, tt.wantSource, resolved.ParseOutOfDateSource)
		})
	}
}

func TestResolveConfig_EnvironmentKnobs(t *testing.T) {
	t.Setenv("RW_WORKERS", "6")
	t.Setenv("RW_FORMAT", "json")
	t.Setenv("RW_DEBUG", "1")
	t.Setenv("NO_COLOR", "true")

	resolved, err := ResolveConfig(CliFlags{}, baseFile(), "")
	require.NoError(t, err)
	assert.Equal(t, 6, resolved.Workers)
	assert.Equal(t, SourceEnv, resolved.WorkersSource)
	assert.Equal(t, "json", resolved.Format)
	assert.True(t, resolved.Debug)
	assert.True(t, resolved.NoColor)
	assert.Equal(t, "mono", resolved.Theme)

	t.Setenv("RW_WORKERS", "many")
	_, err = ResolveConfig(CliFlags{}, baseFile(), "")
	assert.Error(t, err)
}

func TestResolveConfig_RulesStagesAndLimits(t *testing.T) {
	t.Setenv("RW_WORKERS", "")
	t.Setenv("RW_FORMAT", "")

	file := baseFile()
	file.Stages = map[string]string{"checkstyle": "after-finish"}
	minusOne, zero := -1, 0
	file.MaxWarnings = &minusOne
	file.MaxErrors = &zero

	resolved, err := ResolveConfig(CliFlags{
		Rules:      []string{"testjson=out/a.json,out/b.json"},
		BuildStart: "1700000000000",
		BaseDir:    "/work",
	}, file, "")
	require.NoError(t, err)

	require.Len(t, resolved.Rules, 2)
	assert.Equal(t, RuleConfig{Type: "testjson", Paths: "out/a.json\nout/b.json"}, resolved.Rules[1])
	assert.Equal(t, ingest.StageAfterFinish, resolved.Stages["checkstyle"])
	assert.Nil(t, resolved.MaxWarnings, "negative limits disable the check")
	require.NotNil(t, resolved.MaxErrors)
	assert.Equal(t, 0, *resolved.MaxErrors)
	assert.Equal(t, time.UnixMilli(1700000000000), resolved.BuildStart)
	assert.Equal(t, "/work", resolved.BaseDir)
	assert.Equal(t, 50*time.Millisecond, resolved.ScanInterval)
}

func TestResolveConfig_Validation(t *testing.T) {
	t.Setenv("RW_WORKERS", "")
	t.Setenv("RW_FORMAT", "")

	tests := []struct {
		name   string
		cli    CliFlags
		mutate func(*AppConfig)
		is     error
	}{
		{name: "no rules", mutate: func(c *AppConfig) { c.Rules = nil }, is: ErrNoRules},
		{name: "bad rule flag", cli: CliFlags{Rules: []string{"junit"}}, is: ErrInvalidRule},
		{name: "zero workers", cli: CliFlags{Workers: 0, WorkersSet: true}},
		{name: "bad format", cli: CliFlags{Format: "xml", FormatSet: true}},
		{name: "bad stage", mutate: func(c *AppConfig) { c.Stages = map[string]string{"junit": "later"} }},
		{name: "bad interval", mutate: func(c *AppConfig) { c.ScanInterval = "soon" }},
		{name: "bad build start", cli: CliFlags{BuildStart: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := baseFile()
			if tt.mutate != nil {
				tt.mutate(file)
			}
			_, err := ResolveConfig(tt.cli, file, "")
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestParseBuildStart(t *testing.T) {
	t.Parallel()

	got, err := ParseBuildStart("2024-05-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), got)

	got, err = ParseBuildStart("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
