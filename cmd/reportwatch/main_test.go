package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingReport = `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="com.example.CalcTest" tests="2" timestamp="2024-01-01T00:00:00">
  <testcase classname="com.example.CalcTest" name="adds" time="0.047"/>
  <testcase classname="com.example.CalcTest" name="divides" time="0.010">
    <failure type="java.lang.ArithmeticException" message="/ by zero">at CalcTest.divides(CalcTest.java:12)</failure>
  </testcase>
</testsuite>
`

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"RW_PARSE_OUT_OF_DATE", "RW_VERBOSE", "RW_DEBUG", "RW_WORKERS", "RW_FORMAT", "RW_NO_COLOR", "NO_COLOR"} {
		t.Setenv(k, "")
	}
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Version(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI("version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "reportwatch dev"), out)
}

func TestRun_Types(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI("types")
	assert.Equal(t, 0, code)
	for _, typ := range []string{"junit", "surefire", "testjson", "checkstyle", "sarif", "jscpd"} {
		assert.Contains(t, out, typ)
	}
	assert.Contains(t, out, "alias of junit")
	assert.Contains(t, out, "runtime")
}

func TestRun_ScanReportsFailures(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TEST-calc.xml"), []byte(failingReport), 0o644))

	code, out, stderr := runCLI("scan", "--rule", "junit="+dir, "--format", "llm")
	assert.Equal(t, 1, code, stderr)
	assert.Contains(t, out, "SCOPE: 2 tests (1 fail, 0 skip)")
	assert.Contains(t, out, "FAIL com.example.CalcTest.divides: java.lang.ArithmeticException: / by zero")
}

func TestRun_ScanPassingReportsAsJSON(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	passing := strings.Replace(failingReport,
		`<failure type="java.lang.ArithmeticException" message="/ by zero">at CalcTest.divides(CalcTest.java:12)</failure>`, "", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TEST-calc.xml"), []byte(passing), 0o644))

	code, out, stderr := runCLI("scan", "-r", "junit="+dir, "--format", "json")
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, out, `"kind":"suite-started"`)
	assert.Contains(t, out, `"name":"com.example.CalcTest.adds"`)
}

func TestRun_WatchRunsChildCommand(t *testing.T) {
	isolate(t)
	src := filepath.Join(t.TempDir(), "source.xml")
	require.NoError(t, os.WriteFile(src, []byte(failingReport), 0o644))
	reports := t.TempDir()

	code, out, stderr := runCLI("watch", "--rule", "junit="+reports, "--format", "llm",
		"--", "cp", src, filepath.Join(reports, "TEST-calc.xml"))
	assert.Equal(t, 1, code, stderr)
	assert.Contains(t, out, "FAIL com.example.CalcTest.divides")
}

func TestRun_WatchPropagatesChildExitCode(t *testing.T) {
	isolate(t)
	code, _, _ := runCLI("watch", "--rule", "junit="+t.TempDir(), "--format", "llm", "--", "sh", "-c", "exit 3")
	assert.Equal(t, 3, code)
}

func TestRun_Errors(t *testing.T) {
	isolate(t)

	code, _, stderr := runCLI("scan")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "no report rules")

	code, _, stderr = runCLI("scan", "--rule", "nosuchtype="+t.TempDir())
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown report type")

	code, _, _ = runCLI("watch", "stray")
	assert.Equal(t, 2, code)
}
