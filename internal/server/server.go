// Package server exposes the datasets and their acquisition flows over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"challenge-harvester/internal/dataset"
	"challenge-harvester/internal/ioformats"
	"challenge-harvester/internal/pipeline"
	"challenge-harvester/internal/scraper"
)

type Server struct {
	datasets   *dataset.Registry
	pipeline   *pipeline.Pipeline
	scraper    *scraper.Scraper
	listingURL string
	log        zerolog.Logger
	router     *mux.Router
}

type Deps struct {
	Datasets *dataset.Registry
	Pipeline *pipeline.Pipeline
	// Scraper may be nil, which disables POST /scrape.
	Scraper    *scraper.Scraper
	ListingURL string
	Log        zerolog.Logger
}

func New(d Deps) *Server {
	s := &Server{
		datasets:   d.Datasets,
		pipeline:   d.Pipeline,
		scraper:    d.Scraper,
		listingURL: d.ListingURL,
		log:        d.Log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{section}", s.listRows).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{section}/entries", s.addEntry).Methods(http.MethodPost)
	r.HandleFunc("/datasets/{section}/analyze", s.analyze).Methods(http.MethodPost)
	r.HandleFunc("/datasets/{section}/export", s.export).Methods(http.MethodGet)
	r.HandleFunc("/scrape", s.scrape).Methods(http.MethodPost)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errBody("method not allowed"))
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errBody("not found"))
	})
	s.router = r
}

func (s *Server) Handler() http.Handler {
	return logRequest(s.log, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) section(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	ds, err := s.datasets.Get(mux.Vars(r)["section"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errBody(err.Error()))
		return nil, false
	}
	return ds, true
}

// acquire takes the section's token, answering 409 when another flow holds it.
func (s *Server) acquire(w http.ResponseWriter, ds *dataset.Dataset, op string) (func(), bool) {
	release, err := ds.Acquire(op)
	if err != nil {
		writeJSON(w, http.StatusConflict, errBody(err.Error()))
		return nil, false
	}
	return release, true
}

func (s *Server) listRows(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.section(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"section": ds.Name,
		"busy":    ds.Holder(),
		"rows":    ds.Rows(),
	})
}

type entryReq struct {
	Title string `json:"title"`
	Brief string `json:"brief"`
}

// POST /datasets/{section}/entries  {"title": "...", "brief": "..."}
func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.section(w, r)
	if !ok {
		return
	}
	var req entryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("invalid payload"))
		return
	}
	release, ok := s.acquire(w, ds, "manual entry")
	if !ok {
		return
	}
	defer release()

	res, err := s.pipeline.AddManual(r.Context(), ds, req.Title, req.Brief)
	if err != nil {
		writeStageError(w, err)
		return
	}
	code := http.StatusOK
	if res.State == pipeline.StateInserted {
		code = http.StatusCreated
	}
	writeJSON(w, code, newRecordView(res))
}

// POST /datasets/{section}/analyze (multipart file=..., sheet=...)
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.section(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("multipart parse error"))
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("file part 'file' required"))
		return
	}
	defer f.Close()

	tables, err := readUpload(f, hdr.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	tbl, err := ioformats.Sheet(tables, r.FormValue("sheet"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	recs, err := pipeline.RecordsFromTable(tbl)
	if err != nil {
		writeStageError(w, err)
		return
	}

	release, ok := s.acquire(w, ds, "analysis")
	if !ok {
		return
	}
	defer release()

	rep, err := s.pipeline.Run(r.Context(), ds, recs, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("section", ds.Name).Msg("analysis interrupted")
	}
	writeJSON(w, http.StatusOK, newReportView(rep))
}

// readUpload reads workbooks straight from the request; other formats are
// spooled to a temp file so the format reader can sniff them by extension.
func readUpload(src io.Reader, filename string) ([]ioformats.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xlsx" || ext == ".xlsm" {
		return ioformats.ReadWorkbookFrom(src)
	}
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return ioformats.ReadTables(tmp.Name())
}

type scrapeReq struct {
	URL string `json:"url"`
}

// POST /scrape  {"url": "https://..."}; an empty body scrapes the configured listing.
func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	if s.scraper == nil {
		writeJSON(w, http.StatusNotImplemented, errBody("scraping is disabled"))
		return
	}
	var req scrapeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errBody("invalid payload"))
		return
	}
	if req.URL == "" {
		req.URL = s.listingURL
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errBody("url required"))
		return
	}

	ds, err := s.datasets.Get(dataset.SectionScrape)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errBody(err.Error()))
		return
	}
	release, ok := s.acquire(w, ds, "scrape")
	if !ok {
		return
	}
	defer release()

	res, err := s.scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"stage": pipeline.StageScrape, "error": err.Error()})
		return
	}
	rep, err := s.pipeline.Run(r.Context(), ds, res.Records, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("scrape analysis interrupted")
	}
	view := newReportView(rep)
	for _, sk := range res.Skipped {
		view.SkippedPages = append(view.SkippedPages, skippedPage{Title: sk.Entry.Title, URL: sk.Entry.URL, Error: sk.Err.Error()})
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /datasets/{section}/export?format=xlsx|ndjson
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.section(w, r)
	if !ok {
		return
	}
	rows := ds.Rows()
	switch format := r.URL.Query().Get("format"); format {
	case "", "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+ioformats.TimestampedName(ds.Name+"_", time.Now())+`"`)
		if err := ioformats.WriteWorkbook(w, ioformats.ChallengeTable(ds.Sheet, rows)); err != nil {
			s.log.Error().Err(err).Str("section", ds.Name).Msg("export failed")
		}
	case "ndjson":
		w.Header().Set("Content-Type", "application/x-ndjson")
		if err := ioformats.WriteNDJSON(w, rows); err != nil {
			s.log.Error().Err(err).Str("section", ds.Name).Msg("export failed")
		}
	default:
		writeJSON(w, http.StatusBadRequest, errBody("unknown format "+format))
	}
}

func writeStageError(w http.ResponseWriter, err error) {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"stage": se.Stage, "error": se.Err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errBody(err.Error()))
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequest(l zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.code).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
