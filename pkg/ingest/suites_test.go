package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnterSuite(t *testing.T) {
	t.Parallel()

	id := SuiteIdentity{Name: "S", Timestamp: "t"}

	t.Run("new suite is reported", func(t *testing.T) {
		t.Parallel()
		cur := NewTestResult()
		assert.Equal(t, SuiteReport, EnterSuite(id, "a.xml", nil, cur, NewRulesState()))
		assert.True(t, cur.Open[id])
	})

	t.Run("suite owned by another file is skipped", func(t *testing.T) {
		t.Parallel()
		reg := NewRulesState()
		reg.ClaimSuite(id, "other.xml")
		cur := NewTestResult()
		assert.Equal(t, SuiteSkip, EnterSuite(id, "a.xml", nil, cur, reg))
		assert.Equal(t, 1, cur.SkippedSuites)
		assert.Empty(t, cur.Open)
	})

	t.Run("suite finished in a prior pass is replayed", func(t *testing.T) {
		t.Parallel()
		prior := NewTestResult()
		prior.Finished[id] = true
		cur := NewTestResult()
		mode := EnterSuite(id, "a.xml", prior, cur, NewRulesState())
		assert.Equal(t, SuiteReplay, mode)
		assert.False(t, LeaveSuite(id, "a.xml", mode, cur, nil))
		assert.True(t, cur.Finished[id])
		assert.Equal(t, 1, cur.Suites)
	})

	t.Run("suite left open in a prior pass is resumed", func(t *testing.T) {
		t.Parallel()
		reg := NewRulesState()
		reg.ClaimSuite(id, "a.xml")
		prior := NewTestResult()
		prior.Open[id] = true
		cur := NewTestResult()
		mode := EnterSuite(id, "a.xml", prior, cur, reg)
		assert.Equal(t, SuiteResume, mode)
		assert.True(t, LeaveSuite(id, "a.xml", mode, cur, reg))
		assert.True(t, reg.isSuiteReported(id))
		assert.Empty(t, cur.Open)
	})

	t.Run("repeat within one file is skipped", func(t *testing.T) {
		t.Parallel()
		cur := NewTestResult()
		reg := NewRulesState()
		mode := EnterSuite(id, "a.xml", nil, cur, reg)
		LeaveSuite(id, "a.xml", mode, cur, reg)
		assert.Equal(t, SuiteSkip, EnterSuite(id, "a.xml", nil, cur, reg))
	})
}
