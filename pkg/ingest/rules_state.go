package ingest

import (
	"sort"
	"sync"
)

type suiteClaim struct {
	owner    string
	reported bool
}

// RulesState is the shared table of report files and the suites they own.
// Results handed out and taken in are copies, so parsers never share mutable
// state with the table.
type RulesState struct {
	mu     sync.Mutex
	files  map[string]*FileState
	suites map[SuiteIdentity]*suiteClaim
}

var _ SuiteRegistry = (*RulesState)(nil)

// NewRulesState creates an empty table.
func NewRulesState() *RulesState {
	return &RulesState{
		files:  make(map[string]*FileState),
		suites: make(map[SuiteIdentity]*suiteClaim),
	}
}

// ParsingResult returns a copy of the stored result for path, or nil.
func (s *RulesState) ParsingResult(path string) ParsingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.files[path]
	if !ok || fs.Result == nil {
		return nil
	}
	return fs.Result.Clone()
}

// State returns what is known about path.
func (s *RulesState) State(path string) (FileState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.files[path]
	if !ok {
		return FileState{}, false
	}
	return copyState(fs), true
}

// TryQueue marks path Queued unless it is already queued or being parsed. It
// reports whether the file was marked.
func (s *RulesState) TryQueue(path, typ string, snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := s.file(path, typ)
	if fs.State.Busy() {
		return false
	}
	fs.State = StateQueued
	fs.Snapshot = snap
	return true
}

// MarkQueued unconditionally marks path Queued.
func (s *RulesState) MarkQueued(path, typ string, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := s.file(path, typ)
	fs.State = StateQueued
	fs.Snapshot = snap
}

// MarkProcessing marks path as being parsed.
func (s *RulesState) MarkProcessing(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file(path, "").State = StateProcessing
}

// Release puts path back to Discovered without touching its result, so the
// next scan may queue it again.
func (s *RulesState) Release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fs, ok := s.files[path]; ok {
		fs.State = StateDiscovered
		fs.Snapshot = Snapshot{}
	}
}

// SetReportState stores the outcome of a parse. Progress never goes backwards:
// when result has fewer units than the stored result, the stored counts are
// kept and only the problem and partial flags of result are applied.
func (s *RulesState) SetReportState(path string, state ReportState, snap Snapshot, result ParsingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs := s.file(path, "")
	fs.State = state
	fs.Snapshot = snap
	if result == nil {
		return
	}
	if fs.Result != nil && result.Units() < fs.Result.Units() {
		kept := fs.Result.Clone()
		kept.SetProblem(result.Problem())
		kept.SetPartial(result.Partial())
		fs.Result = kept
		return
	}
	fs.Result = result.Clone()
}

// ClaimSuite registers path as the owner of suite id. It returns false when
// another file already owns it.
func (s *RulesState) ClaimSuite(id SuiteIdentity, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.suites[id]
	if !ok {
		s.suites[id] = &suiteClaim{owner: path}
		return true
	}
	return c.owner == path
}

// SuiteReported records that the owner of id reported its end.
func (s *RulesState) SuiteReported(id SuiteIdentity, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.suites[id]
	if !ok {
		s.suites[id] = &suiteClaim{owner: path, reported: true}
		return
	}
	if c.owner == path {
		c.reported = true
	}
}

// isSuiteReported reports whether suite id was reported completely.
func (s *RulesState) isSuiteReported(id SuiteIdentity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.suites[id]
	return ok && c.reported
}

// Totals adds up the results of every file of typ into empty.
func (s *RulesState) Totals(typ string, empty ParsingResult) ParsingResult {
	for _, fs := range s.Files(typ) {
		if fs.Result != nil {
			empty.Accumulate(fs.Result)
		}
	}
	return empty
}

// Files returns the files of typ sorted by path. An empty typ returns all
// files.
func (s *RulesState) Files(typ string) []FileState {
	s.mu.Lock()
	out := make([]FileState, 0, len(s.files))
	for _, fs := range s.files {
		if typ == "" || fs.Type == typ {
			out = append(out, copyState(fs))
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Partial returns files whose last parse stopped before the end of the
// document.
func (s *RulesState) Partial() []FileState {
	var out []FileState
	for _, fs := range s.Files("") {
		if fs.State == StateDiscovered && fs.Result != nil && fs.Result.Partial() {
			out = append(out, fs)
		}
	}
	return out
}

func (s *RulesState) file(path, typ string) *FileState {
	fs, ok := s.files[path]
	if !ok {
		fs = &FileState{Path: path, Type: typ}
		s.files[path] = fs
	}
	if fs.Type == "" {
		fs.Type = typ
	}
	return fs
}

func copyState(fs *FileState) FileState {
	cp := *fs
	if fs.Result != nil {
		cp.Result = fs.Result.Clone()
	}
	return cp
}
