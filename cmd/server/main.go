// Command server exposes a compiled two-level grammar as a JSON REST API.
//
// Endpoints:
//
//	GET  /api/generate?word=<lexical>
//	GET  /api/recognize?word=<surface>
//	POST /api/batch   body: batch script, one directive per line
//	GET  /api/rules
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"os"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	kimmo "github.com/comp-morph/kimmo"
)

// ---- JSON response types ------------------------------------------------

type generateResponse struct {
	Word     string   `json:"word"`
	Surfaces []string `json:"surfaces"`
}

type recognitionJSON struct {
	Lexical string   `json:"lexical"`
	Gloss   string   `json:"gloss,omitempty"`
	Words   []string `json:"words"`
}

type recognizeResponse struct {
	Word     string            `json:"word"`
	Analyses []recognitionJSON `json:"analyses"`
}

type batchResponse struct {
	Output string `json:"output"`
}

type rulesResponse struct {
	Rules []string `json:"rules"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- helpers ------------------------------------------------------------

func toRecognitionJSON(recs []kimmo.Recognition) []recognitionJSON {
	out := make([]recognitionJSON, 0, len(recs))
	for _, rec := range recs {
		words := make([]string, 0, len(rec.Words))
		for _, w := range rec.Words {
			words = append(words, w.Letters)
		}
		out = append(out, recognitionJSON{
			Lexical: rec.Lexical,
			Gloss:   rec.Gloss(),
			Words:   words,
		})
	}
	return out
}

func writeJSON(log zerolog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(log zerolog.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(log, w, status, errorResponse{Error: msg})
}

// ---- handlers -----------------------------------------------------------

func handleGenerate(log zerolog.Logger, ctl *kimmo.Control, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(log, w, http.StatusMethodNotAllowed, "GET required")
			return
		}
		word := r.URL.Query().Get("word")
		if word == "" {
			writeError(log, w, http.StatusBadRequest, "missing 'word' query parameter")
			return
		}
		surfaces := kimmo.Take(ctl.Generate(word), limit)
		status := http.StatusOK
		if len(surfaces) == 0 {
			status = http.StatusNotFound
			surfaces = []string{}
		}
		writeJSON(log, w, status, generateResponse{Word: word, Surfaces: surfaces})
	}
}

func handleRecognize(log zerolog.Logger, ctl *kimmo.Control, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(log, w, http.StatusMethodNotAllowed, "GET required")
			return
		}
		word := r.URL.Query().Get("word")
		if word == "" {
			writeError(log, w, http.StatusBadRequest, "missing 'word' query parameter")
			return
		}
		recs := kimmo.Take(ctl.Recognize(word), limit)
		status := http.StatusOK
		if len(recs) == 0 {
			status = http.StatusNotFound
		}
		writeJSON(log, w, status, recognizeResponse{Word: word, Analyses: toRecognitionJSON(recs)})
	}
}

func handleBatch(log zerolog.Logger, ctl *kimmo.Control, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(log, w, http.StatusMethodNotAllowed, "POST required")
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			writeError(log, w, http.StatusBadRequest, "read body: "+err.Error())
			return
		}
		var out bytes.Buffer
		if err := kimmo.RunBatch(ctl, bytes.NewReader(body), &out, limit); err != nil {
			writeError(log, w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(log, w, http.StatusOK, batchResponse{Output: out.String()})
	}
}

func handleRules(log zerolog.Logger, ctl *kimmo.Control) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(log, w, http.StatusMethodNotAllowed, "GET required")
			return
		}
		rules := ctl.RuleSet().Rules()
		names := make([]string, 0, len(rules))
		for _, rule := range rules {
			names = append(names, rule.Name())
		}
		writeJSON(log, w, http.StatusOK, rulesResponse{Rules: names})
	}
}

// ---- main ---------------------------------------------------------------

func main() {
	lexFile := flag.String("lex", "", "path to the .lex lexicon file")
	rulFile := flag.String("rul", "", "path to the .rul rule file")
	yamlFile := flag.String("grammar", "", "path to a YAML grammar (alternative to -lex/-rul)")
	addr := flag.String("addr", ":8080", "listen address")
	limit := flag.Int("limit", 100, "maximum results per query (0 = unlimited)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		ctl *kimmo.Control
		err error
	)
	switch {
	case *yamlFile != "":
		var data []byte
		if data, err = os.ReadFile(*yamlFile); err == nil {
			ctl, err = kimmo.LoadYAML(data)
		}
	case *lexFile != "" && *rulFile != "":
		ctl, err = kimmo.NewControlFromFiles(*lexFile, *rulFile)
	default:
		log.Fatal().Msg("need -lex and -rul, or -grammar")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load grammar")
	}
	log.Info().Msg("grammar compiled")

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", handleGenerate(log, ctl, *limit))
	mux.HandleFunc("/api/recognize", handleRecognize(log, ctl, *limit))
	mux.HandleFunc("/api/batch", handleBatch(log, ctl, *limit))
	mux.HandleFunc("/api/rules", handleRules(log, ctl))

	handler := cors.Default().Handler(mux)
	log.Info().Str("addr", *addr).Msg("listening")
	if err := http.ListenAndServe(*addr, handler); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
