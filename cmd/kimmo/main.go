// Command kimmo runs a two-level grammar from the command line.
//
// Usage:
//
//	kimmo english.lex english.rul -g:cat+s -r:cats
//	kimmo grammar.yaml session.batch
//	kimmo english.lex english.rul -show:elision debug
//
// Arguments are dispatched by shape: *.lex and *.rul (or *.yaml) name
// the grammar files, -g:WORD generates, -r:WORD recognizes, -show:NAME
// prints a rule, *.batch runs a batch script, and "debug" turns on
// search tracing.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	kimmo "github.com/comp-morph/kimmo"
)

func main() {
	var (
		lexFile, rulFile, yamlFile string
		batchFiles                 []string
		generates, recognizes      []string
		shows                      []string
		debug                      bool
		limit                      int
	)
	for _, arg := range os.Args[1:] {
		switch {
		case strings.HasSuffix(arg, ".lex"):
			lexFile = arg
		case strings.HasSuffix(arg, ".rul"):
			rulFile = arg
		case strings.HasSuffix(arg, ".yaml") || strings.HasSuffix(arg, ".yml"):
			yamlFile = arg
		case strings.HasSuffix(arg, ".batch") || strings.HasSuffix(arg, ".batch_test"):
			batchFiles = append(batchFiles, arg)
		case strings.HasPrefix(arg, "-g:"):
			generates = append(generates, strings.TrimPrefix(arg, "-g:"))
		case strings.HasPrefix(arg, "-r:"):
			recognizes = append(recognizes, strings.TrimPrefix(arg, "-r:"))
		case strings.HasPrefix(arg, "-show:"):
			shows = append(shows, strings.TrimPrefix(arg, "-show:"))
		case strings.HasPrefix(arg, "-limit:"):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "-limit:"))
			if err != nil {
				fail("bad -limit value %q", arg)
			}
			limit = n
		case arg == "debug":
			debug = true
		default:
			fail("unrecognized argument %q", arg)
		}
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		ctl *kimmo.Control
		err error
	)
	switch {
	case yamlFile != "":
		var data []byte
		if data, err = os.ReadFile(yamlFile); err == nil {
			ctl, err = kimmo.LoadYAML(data)
		}
	case lexFile != "" && rulFile != "":
		ctl, err = kimmo.NewControlFromFiles(lexFile, rulFile)
	default:
		fail("need a .lex and a .rul file, or a .yaml grammar")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load grammar")
	}
	if debug {
		ctl.SetLogger(log.Level(zerolog.DebugLevel))
	}

	for _, name := range shows {
		showRule(ctl, name)
	}
	for _, word := range generates {
		results := kimmo.Take(ctl.Generate(word), limit)
		fmt.Printf("%s:\n", word)
		for _, r := range results {
			fmt.Printf("  %s\n", r)
		}
		if len(results) == 0 {
			fmt.Println("  (no surface form)")
		}
	}
	for _, word := range recognizes {
		printRecognitions(word, kimmo.Take(ctl.Recognize(word), limit))
	}
	for _, file := range batchFiles {
		f, err := os.Open(file)
		if err != nil {
			log.Fatal().Err(err).Msg("open batch")
		}
		err = kimmo.RunBatch(ctl, f, os.Stdout, limit)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("run batch")
		}
	}
}

func printRecognitions(word string, recs []kimmo.Recognition) {
	fmt.Printf("%s:\n", word)
	if len(recs) == 0 {
		fmt.Println("  (no analysis)")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Lexical", "Gloss"})
	for _, rec := range recs {
		table.Append([]string{rec.Lexical, rec.Gloss()})
	}
	table.Render()
}

// showRule prints a transition table for a named rule: the state table
// of a table rule, or the compiled context automata of an arrow rule.
func showRule(ctl *kimmo.Control, name string) {
	for _, rule := range ctl.RuleSet().Rules() {
		if rule.Name() != name {
			continue
		}
		switch r := rule.(type) {
		case *kimmo.TableRule:
			header := []string{"State"}
			for _, p := range r.Pairs() {
				header = append(header, p.String())
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.Header(header)
			for _, row := range r.Rows() {
				mark := "."
				if row.Final {
					mark = ":"
				}
				cells := []string{strconv.Itoa(row.State) + mark}
				for _, n := range row.Next {
					cells = append(cells, strconv.Itoa(n))
				}
				table.Append(cells)
			}
			table.Render()
		case *kimmo.ArrowRule:
			fmt.Printf("%s %s (left, right contexts)\n", r.Center(), r.Arrow())
			showFSA("left", r.LeftFSA())
			showFSA("right", r.RightFSA())
		}
		return
	}
	fail("no rule named %q", name)
}

func showFSA(which string, f *kimmo.FSA) {
	if f == nil {
		fmt.Printf("%s context: (empty)\n", which)
		return
	}
	fmt.Printf("%s context:\n", which)
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"From", "Label", "To", "Final"})
	for _, t := range f.Transitions() {
		final := ""
		if t.Final {
			final = "*"
		}
		table.Append([]string{strconv.Itoa(t.From), t.Label, strconv.Itoa(t.To), final})
	}
	table.Render()
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "kimmo: "+format+"\n", args...)
	os.Exit(1)
}
