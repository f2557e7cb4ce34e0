// Package compare diffs two captures of the same page, typically the static
// and the rendered markup, to show what script execution added.
package compare

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChunkType classifies a run of lines in a Report.
type ChunkType string

const (
	Added   ChunkType = "added"
	Removed ChunkType = "removed"
	Equal   ChunkType = "equal"
)

// Chunk is one run of lines sharing a ChunkType.
type Chunk struct {
	Type  ChunkType `json:"type"`
	Lines []string  `json:"lines"`
}

// Report is a line diff between a base and a head capture.
type Report struct {
	BaseID  string  `json:"base_id,omitempty"`
	HeadID  string  `json:"head_id,omitempty"`
	Chunks  []Chunk `json:"chunks"`
	Added   int     `json:"added"`
	Removed int     `json:"removed"`
}

// Lines diffs base against head line by line. Equal runs are kept so the
// report can be printed with context.
func Lines(baseID, headID, base, head string) *Report {
	dmp := diffmatchpatch.New()

	// Map each line to a rune so the diff runs over whole lines
	a, b, lines := dmp.DiffLinesToChars(terminate(base), terminate(head))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	rep := &Report{BaseID: baseID, HeadID: headID, Chunks: make([]Chunk, 0, len(diffs))}
	for _, d := range diffs {
		var typ ChunkType
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			typ = Added
		case diffmatchpatch.DiffDelete:
			typ = Removed
		default:
			typ = Equal
		}

		ls := splitLines(d.Text)
		if len(ls) == 0 {
			continue
		}
		switch typ {
		case Added:
			rep.Added += len(ls)
		case Removed:
			rep.Removed += len(ls)
		}
		rep.Chunks = append(rep.Chunks, Chunk{Type: typ, Lines: ls})
	}
	return rep
}

// terminate makes a missing final newline irrelevant to the diff.
func terminate(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Identical reports whether the two captures had the same lines.
func (r *Report) Identical() bool {
	return r.Added == 0 && r.Removed == 0
}

// Unified renders the report with "+", "-" and " " line prefixes. At most
// keep unchanged lines are shown around each change; a negative keep
// prints everything.
func (r *Report) Unified(keep int) string {
	var sb strings.Builder
	if r.BaseID != "" || r.HeadID != "" {
		sb.WriteString("--- " + r.BaseID + "\n")
		sb.WriteString("+++ " + r.HeadID + "\n")
	}

	for i, c := range r.Chunks {
		switch c.Type {
		case Added:
			writePrefixed(&sb, "+", c.Lines)
		case Removed:
			writePrefixed(&sb, "-", c.Lines)
		default:
			writeContext(&sb, c.Lines, keep, i > 0, i < len(r.Chunks)-1)
		}
	}
	return sb.String()
}

func writePrefixed(sb *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		sb.WriteString(prefix + l + "\n")
	}
}

// writeContext prints up to keep lines of an equal run next to each adjacent
// change and elides the rest.
func writeContext(sb *strings.Builder, lines []string, keep int, afterChange, beforeChange bool) {
	if keep < 0 || len(lines) <= 2*keep {
		writePrefixed(sb, " ", lines)
		return
	}

	var head, tail []string
	if afterChange {
		head = lines[:keep]
	}
	if beforeChange {
		tail = lines[len(lines)-keep:]
	}
	writePrefixed(sb, " ", head)
	if skipped := len(lines) - len(head) - len(tail); skipped > 0 {
		sb.WriteString("@@ " + strconv.Itoa(skipped) + " unchanged lines @@\n")
	}
	writePrefixed(sb, " ", tail)
}

// JSON encodes the report, dropping equal chunks.
func (r *Report) JSON() (string, error) {
	out := *r
	out.Chunks = make([]Chunk, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		if c.Type != Equal {
			out.Chunks = append(out.Chunks, c)
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", eris.Wrap(err, "marshal diff")
	}
	return string(data), nil
}
