// Package config loads and resolves reportwatch settings.
//
// # Configuration Precedence
//
// Values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--parse-out-of-date, --workers, --format, --verbose, ...)
//  2. Environment variables (RW_PARSE_OUT_OF_DATE, RW_WORKERS, RW_FORMAT, NO_COLOR, ...)
//  3. YAML config file (.reportwatch.yaml in the working directory or
//     ~/.config/reportwatch/.reportwatch.yaml)
//  4. Hardcoded defaults
//
// # Rules
//
// The config file lists where each report type's files are expected:
//
//	rules:
//	  - type: junit
//	    paths: |
//	      +:build/test-results/*.xml
//	      -:build/test-results/TEST-flaky.xml
//	    when_no_data: warning
//	  - type: testjson
//	    paths: out/go-test.json
//
// Rules given on the command line as type=paths are appended to the file's.
//
// # Environment Variables
//
//   - RW_PARSE_OUT_OF_DATE: "true" to also parse files older than the build start
//   - RW_VERBOSE: "true" to log every processed report
//   - RW_DEBUG: any non-empty value enables debug logging
//   - RW_WORKERS: number of parse workers
//   - RW_FORMAT: terminal, llm or json
//   - NO_COLOR or RW_NO_COLOR: "true" or "1" to disable colors
package config
