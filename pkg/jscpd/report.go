// Package jscpd parses jscpd copy/paste detector JSON reports.
package jscpd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"strconv"
)

// Report is the part of a jscpd JSON report we read.
type Report struct {
	Duplicates []Clone `json:"duplicates"`
}

// Clone records a single code duplication instance.
type Clone struct {
	Format     string `json:"format"`
	Lines      int    `json:"lines"`
	Tokens     int    `json:"tokens"`
	Fragment   string `json:"fragment"`
	FirstFile  File   `json:"firstFile"`
	SecondFile File   `json:"secondFile"`
}

// File is one side of a clone.
type File struct {
	Name     string `json:"name"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	StartLoc Loc    `json:"startLoc"`
	EndLoc   Loc    `json:"endLoc"`
}

// Loc is a position in a file.
type Loc struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// StartLine returns the first line of the clone in the file.
func (f File) StartLine() int {
	if f.StartLoc.Line > 0 {
		return f.StartLoc.Line
	}
	return f.Start
}

// Decode reads a jscpd report. A report cut short returns an error wrapping
// io.ErrUnexpectedEOF.
func Decode(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("decode jscpd: %w", err)
	}
	return &rep, nil
}

// Parse decodes a jscpd report held in memory.
func Parse(data []byte) (*Report, error) {
	return Decode(bytes.NewReader(data))
}

// Hash identifies a clone by its format, size and locations.
func (c Clone) Hash() int {
	h := fnv.New32a()
	for _, s := range []string{
		c.Format, strconv.Itoa(c.Lines),
		c.FirstFile.Name, strconv.Itoa(c.FirstFile.StartLine()),
		c.SecondFile.Name, strconv.Itoa(c.SecondFile.StartLine()),
	} {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	return int(int32(h.Sum32()))
}

// fragmentHashes derives one hash per fragment from its path, line and the
// clone hash. Equal hashes within a clone are bumped until unique.
func fragmentHashes(dup int, fragments [][2]string) []int {
	used := make(map[int]bool, len(fragments))
	out := make([]int, len(fragments))
	for i, f := range fragments {
		h := fnv.New32a()
		_, _ = h.Write([]byte(f[0] + f[1] + strconv.Itoa(dup)))
		v := int(int32(h.Sum32()))
		for used[v] {
			v++
		}
		used[v] = true
		out[i] = v
	}
	return out
}
