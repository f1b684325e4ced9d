package kimmo

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RunBatch executes a batch script against a compiled grammar, one
// directive per line: "g word" generates, "r word" recognizes, a bare
// word generates when it contains "+" and recognizes otherwise.
// Comment lines ("#", ";") are echoed to the output. limit caps the
// results per line; limit <= 0 keeps everything.
func RunBatch(c *Control, r io.Reader, w io.Writer, limit int) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line[0] == '#' || line[0] == ';' {
			fmt.Fprintln(w, line)
			continue
		}

		fields := strings.Fields(line)
		var results []string
		switch {
		case fields[0] == "g" && len(fields) == 2:
			results = Take(c.Generate(fields[1]), limit)
		case fields[0] == "r" && len(fields) == 2:
			results = formatRecognitions(Take(c.Recognize(fields[1]), limit))
		case strings.Contains(line, "+"):
			results = Take(c.Generate(line), limit)
		default:
			results = formatRecognitions(Take(c.Recognize(line), limit))
		}
		if len(results) > 0 {
			fmt.Fprintf(w, "%s\n", strings.Join(results, "  "))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read batch: %w", err)
	}
	return nil
}

func formatRecognitions(recs []Recognition) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		if gloss := rec.Gloss(); gloss != "" {
			out[i] = fmt.Sprintf("%s (%s)", rec.Lexical, gloss)
		} else {
			out[i] = rec.Lexical
		}
	}
	return out
}
