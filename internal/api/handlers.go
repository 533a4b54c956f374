package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/matsunana829/waka-kana-conv/core/errors"
	"github.com/matsunana829/waka-kana-conv/core/pipeline"
	"github.com/matsunana829/waka-kana-conv/core/waka"
	"github.com/matsunana829/waka-kana-conv/internal/document"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Dictionary string `json:"dictionary"`
}

// CheckReport is the JSON shape of a validation report.
type CheckReport struct {
	Pattern        []int                `json:"pattern"`
	Results        []CheckPhrase        `json:"results"`
	StructureFlags []CheckStructureFlag `json:"structure_flags,omitempty"`
	Mismatches     int                  `json:"mismatches"`
}

// CheckPhrase is one phrase comparison.
type CheckPhrase struct {
	Verse    string `json:"verse"`
	Phrase   int    `json:"phrase"` // 1-based position within the verse
	Text     string `json:"text"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	Matched  bool   `json:"matched"`
}

// CheckStructureFlag marks a verse whose phrase count misses the pattern.
type CheckStructureFlag struct {
	Verse    string `json:"verse"`
	Phrases  int    `json:"phrases"`
	Expected int    `json:"expected"`
}

var startTime = time.Now()

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "waka-kana-conv API",
		"version": serverVersion,
		"endpoints": []string{
			"GET /api/v1/health",
			"POST /api/v1/convert",
			"POST /api/v1/check",
			"POST /api/v1/fix",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	dict := s.cfg.Analyzer.DictPath
	if dict == "" {
		dict = s.cfg.Analyzer.Embedded
		if dict == "" {
			dict = "ipa"
		}
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:     "healthy",
		Version:    serverVersion,
		Uptime:     time.Since(startTime).String(),
		Dictionary: dict,
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	if err := r.ParseMultipartForm(s.cfg.maxUploadBytes()); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart form")
		return
	}

	name, data, err := readUpload(r, "file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	kind, err := document.DetectKind(name)
	if err != nil {
		respondError(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
		return
	}

	mode := pipeline.Mode(r.FormValue("mode"))
	switch mode {
	case "", pipeline.ModeHiragana, pipeline.ModeKatakana:
	default:
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown mode "+string(mode))
		return
	}

	opts := pipeline.Options{
		Kind:                 kind,
		Target:               r.FormValue("target"),
		Format:               pipeline.Format(r.FormValue("format")),
		Mode:                 mode,
		ExpandIterationMarks: r.FormValue("expand") == "true",
		Progress: func(done, total int, location string) {
			s.hub.Broadcast(ProgressMessage{
				Type:      "progress",
				Operation: "convert",
				File:      name,
				Location:  location,
				Done:      done,
				Total:     total,
			})
		},
	}

	s.mu.Lock()
	ensureErr := s.handle.Ensure(s.cfg.Analyzer)
	var outputs []pipeline.Output
	if ensureErr == nil {
		opts.Analyzer = s.handle
		outputs, err = pipeline.Convert(data, opts)
	}
	s.mu.Unlock()

	if ensureErr != nil {
		respondConvError(w, ensureErr)
		return
	}
	if err != nil {
		s.hub.Broadcast(ProgressMessage{
			Type:      "error",
			Operation: "convert",
			File:      name,
			Message:   err.Error(),
		})
		respondConvError(w, err)
		return
	}

	s.hub.Broadcast(ProgressMessage{
		Type:      "complete",
		Operation: "convert",
		File:      name,
	})

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + "_converted"
	if len(outputs) == 1 {
		writeAttachment(w, base+"."+outputs[0].Ext, outputs[0].MIME, outputs[0].Data)
		return
	}

	files := make(map[string][]byte, len(outputs))
	for _, out := range outputs {
		files[base+"."+out.Ext] = out.Data
	}
	bundle, err := pipeline.BundleZip(files)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeAttachment(w, base+".zip", "application/zip", bundle)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	if err := r.ParseMultipartForm(s.cfg.maxUploadBytes()); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart form")
		return
	}

	_, orig, err := readUpload(r, "original")
	if err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	_, conv, err := readUpload(r, "converted")
	if err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	report, err := waka.Validate(orig, conv, waka.Options{
		LineTag:              r.FormValue("line_tag"),
		PhraseTag:            r.FormValue("phrase_tag"),
		ExpandIterationMarks: r.FormValue("expand") == "true",
	})
	if err != nil {
		if errors.Is(err, errors.ErrStructuralMismatch) {
			respondError(w, http.StatusUnprocessableEntity, "STRUCTURAL_MISMATCH", err.Error())
			return
		}
		respondConvError(w, err)
		return
	}

	respond(w, http.StatusOK, checkReport(report))
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	if err := r.ParseMultipartForm(s.cfg.maxUploadBytes()); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart form")
		return
	}

	name, conv, err := readUpload(r, "converted")
	if err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var edits map[string][]string
	if err := json.Unmarshal([]byte(r.FormValue("edits")), &edits); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "edits must be a JSON object of verse label to phrase texts")
		return
	}

	fixed, err := waka.ApplyCorrections(conv, edits, waka.Options{
		LineTag:   r.FormValue("line_tag"),
		PhraseTag: r.FormValue("phrase_tag"),
	})
	if err != nil {
		respondConvError(w, err)
		return
	}

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + "_fixed"
	writeAttachment(w, base+".xml", "application/xml", fixed)
}

func checkReport(report *waka.Report) CheckReport {
	out := CheckReport{
		Pattern:    report.Pattern,
		Results:    make([]CheckPhrase, 0, len(report.Results)),
		Mismatches: len(report.Mismatches()),
	}
	for _, res := range report.Results {
		out.Results = append(out.Results, CheckPhrase{
			Verse:    res.Verse.Label(),
			Phrase:   res.Index + 1,
			Text:     res.Text,
			Expected: res.Expected,
			Actual:   res.Actual,
			Matched:  res.Matched,
		})
	}
	for _, flag := range report.StructureFlags {
		out.StructureFlags = append(out.StructureFlags, CheckStructureFlag{
			Verse:    flag.Verse.Label(),
			Phrases:  flag.Phrases,
			Expected: flag.Expected,
		})
	}
	return out
}

// readUpload reads one uploaded file from a parsed multipart form.
func readUpload(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("missing %q upload", field)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("reading %q upload: %w", field, err)
	}
	return header.Filename, data, nil
}

func writeAttachment(w http.ResponseWriter, name, mime string, data []byte) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// respondConvError maps pipeline and validation errors to HTTP statuses.
// Caller mistakes (bad fields, malformed input) are 4xx; everything else
// is a 500.
func respondConvError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrFormat):
		respondError(w, http.StatusBadRequest, "FORMAT_ERROR", err.Error())
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, errors.ErrConfig):
		respondError(w, http.StatusInternalServerError, "CONFIG_ERROR", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
