package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const diffContext = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// lineDiff returns a line-level edit script from before to after.
func lineDiff(before, after string) []diffLine {
	dmp := diffmatchpatch.New()

	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []diffLine
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, diffLine{op: d.Type, text: line})
		}
	}
	return out
}

// writeUnifiedDiff writes a unified diff of one file to w. Nothing is written
// when the contents are identical.
func writeUnifiedDiff(w io.Writer, path, before, after string) {
	lines := lineDiff(before, after)

	type hunk struct {
		oldStart, oldCount int
		newStart, newCount int
		lines              []string
	}
	var hunks []hunk

	// Line numbers before each entry of lines.
	oldAt := make([]int, len(lines))
	newAt := make([]int, len(lines))
	oldLine, newLine := 1, 1
	for i, l := range lines {
		oldAt[i], newAt[i] = oldLine, newLine
		if l.op != diffmatchpatch.DiffInsert {
			oldLine++
		}
		if l.op != diffmatchpatch.DiffDelete {
			newLine++
		}
	}

	i := 0
	for i < len(lines) {
		if lines[i].op == diffmatchpatch.DiffEqual {
			i++
			continue
		}

		start := max(i-diffContext, 0)
		end := i
		// Extend while the next change is within two context windows.
		for end < len(lines) {
			if lines[end].op != diffmatchpatch.DiffEqual {
				end++
				continue
			}
			run := end
			for run < len(lines) && lines[run].op == diffmatchpatch.DiffEqual {
				run++
			}
			if run == len(lines) || run-end > 2*diffContext {
				end = min(end+diffContext, len(lines))
				break
			}
			end = run
		}

		h := hunk{oldStart: oldAt[start], newStart: newAt[start]}
		for _, l := range lines[start:end] {
			switch l.op {
			case diffmatchpatch.DiffEqual:
				h.lines = append(h.lines, " "+l.text)
				h.oldCount++
				h.newCount++
			case diffmatchpatch.DiffDelete:
				h.lines = append(h.lines, "-"+l.text)
				h.oldCount++
			case diffmatchpatch.DiffInsert:
				h.lines = append(h.lines, "+"+l.text)
				h.newCount++
			}
		}
		hunks = append(hunks, h)
		i = end
	}

	if len(hunks) == 0 {
		return
	}

	fmt.Fprintf(w, "--- a/%s\n", path)
	fmt.Fprintf(w, "+++ b/%s\n", path)
	for _, h := range hunks {
		fmt.Fprintf(w, "@@ -%d,%d +%d,%d @@\n", h.oldStart, h.oldCount, h.newStart, h.newCount)
		for _, line := range h.lines {
			fmt.Fprintln(w, line)
		}
	}
}
