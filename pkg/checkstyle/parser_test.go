package checkstyle

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/reportwatch/pkg/event"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

const report = `<?xml version="1.0" encoding="UTF-8"?>
<checkstyle version="8.0">
  <file name="/src/app/main.go">
    <error line="12" column="2" severity="error" message="Error return value is not checked" source="errcheck"></error>
    <error line="30" column="1" severity="warning" message="exported function should have comment" source="golint"></error>
  </file>
  <file name="/src/app/util.go">
    <error line="4" severity="info" message="line is 130 characters" source="lll"/>
    <error line="9" severity="error" message="another unchecked error" source="errcheck"/>
  </file>
</checkstyle>
`

func parseString(t *testing.T, p *Parser, content string, prior ingest.ParsingResult) (bool, error) {
	t.Helper()
	return p.parse("checkstyle.xml", strings.NewReader(content), prior)
}

func TestParser_Findings(t *testing.T) {
	t.Parallel()

	rec := event.NewRecorder()
	p := NewParser(event.NewStream(rec, "s"), "/src", nil)
	finished, err := parseString(t, p, report, nil)
	require.NoError(t, err)
	assert.True(t, finished)

	res := p.ParsingResult().(*ingest.InspectionResult)
	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, 1, res.Warnings)
	assert.Equal(t, 1, res.Infos)

	types := rec.Filter(event.KindInspectionType)
	require.Len(t, types, 3)
	assert.Equal(t, "errcheck", types[0].InspectionType.ID)

	insp := rec.Filter(event.KindInspection)
	require.Len(t, insp, 4)
	first := insp[0].Inspection
	assert.Equal(t, "app/main.go", first.File)
	assert.Equal(t, 12, first.Line)
	assert.Equal(t, event.SeverityError, first.Severity)
	assert.Equal(t, "app/util.go", insp[3].Inspection.File)
}

func TestParser_TruncatedThenComplete(t *testing.T) {
	t.Parallel()

	rec := event.NewRecorder()
	p := NewParser(event.NewStream(rec, "s"), "", nil)

	cut := strings.Index(report, `<error line="4"`)
	finished, err := parseString(t, p, report[:cut], nil)
	require.NoError(t, err)
	assert.False(t, finished)
	prior := p.ParsingResult().Clone()
	assert.Equal(t, 2, prior.Units())

	rec.Reset()
	p = NewParser(event.NewStream(rec, "s"), "", nil)
	finished, err = parseString(t, p, report, prior)
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Equal(t, 4, p.ParsingResult().Units())

	insp := rec.Filter(event.KindInspection)
	require.Len(t, insp, 2, "only findings after the first pass are sent")
	assert.Equal(t, 4, insp[0].Inspection.Line)
	types := rec.Filter(event.KindInspectionType)
	require.Len(t, types, 1, "errcheck was declared by the first pass")
	assert.Equal(t, "lll", types[0].Name)
}

func TestParser_Malformed(t *testing.T) {
	t.Parallel()

	p := NewParser(event.NewStream(event.NewRecorder(), "s"), "", nil)
	finished, err := parseString(t, p, `<checkstyle><file name="a"></checkstyle>`, nil)
	assert.True(t, finished)
	var pe *ingest.ParsingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "checkstyle.xml", pe.Path)

	finished, err = parseString(t, p, `<testsuite/>`, nil)
	assert.True(t, finished)
	assert.Error(t, err)
}

func TestParser_EmptyReport(t *testing.T) {
	t.Parallel()

	p := NewParser(event.NewStream(event.NewRecorder(), "s"), "", nil)
	finished, err := parseString(t, p, `<checkstyle version="5.0"/>`, nil)
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Zero(t, p.ParsingResult().Units())
}

func TestShortNameAndCategory(t *testing.T) {
	t.Parallel()

	src := "com.puppycrawl.tools.checkstyle.checks.whitespace.TabCheck"
	assert.Equal(t, "TabCheck", shortName(src))
	assert.Equal(t, "whitespace", category(src))
	assert.Equal(t, "errcheck", shortName("errcheck"))
	assert.Empty(t, category("errcheck"))
}

func TestFactory_IsReportComplete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	complete := filepath.Join(dir, "complete.xml")
	partial := filepath.Join(dir, "partial.xml")
	require.NoError(t, os.WriteFile(complete, []byte(report), 0o644))
	require.NoError(t, os.WriteFile(partial, []byte(report[:len(report)/2]), 0o644))

	f := Factory{}
	assert.True(t, f.IsReportComplete(complete))
	assert.False(t, f.IsReportComplete(partial))
	assert.Equal(t, ingest.StageBeforeFinish, f.Stage())
}

func TestFactory_MinSeverityParam(t *testing.T) {
	t.Parallel()

	rec := event.NewRecorder()
	p, ok := Factory{}.CreateParser(ingest.ParseParameters{
		Inspections: event.NewStream(rec, "s"),
		CheckoutDir: "/src",
		Params:      map[string]string{ingest.ParamMinSeverity: "warning"},
	}).(*Parser)
	require.True(t, ok)

	_, err := parseString(t, p, report, nil)
	require.NoError(t, err)

	res := p.ParsingResult().(*ingest.InspectionResult)
	assert.Equal(t, 4, res.Units(), "filtered findings still count")

	insp := rec.Filter(event.KindInspection)
	require.Len(t, insp, 3)
	for _, e := range insp {
		assert.NotEqual(t, event.SeverityInfo, e.Severity)
	}
	var ids []string
	for _, e := range rec.Filter(event.KindInspectionType) {
		ids = append(ids, e.InspectionType.ID)
	}
	assert.Equal(t, []string{"errcheck", "golint"}, ids)
}
