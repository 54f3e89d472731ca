package server

import (
	"challenge-harvester/internal/models"
	"challenge-harvester/internal/pipeline"
)

type recordView struct {
	Title   string            `json:"title"`
	State   pipeline.State    `json:"state"`
	Trail   []pipeline.State  `json:"trail"`
	Outcome string            `json:"outcome,omitempty"`
	Error   string            `json:"error,omitempty"`
	Record  *models.Challenge `json:"record,omitempty"`
}

func newRecordView(r pipeline.RecordResult) recordView {
	v := recordView{Title: r.Title, State: r.State, Trail: r.Trail, Outcome: string(r.Outcome)}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	if r.Committed() {
		rec := r.Record
		v.Record = &rec
	}
	return v
}

type skippedPage struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

type reportView struct {
	RunID            string        `json:"run_id"`
	Dataset          string        `json:"dataset"`
	Total            int           `json:"total"`
	Inserted         int           `json:"inserted"`
	Replaced         int           `json:"replaced"`
	Skipped          int           `json:"skipped"`
	GenerationFailed int           `json:"generation_failed"`
	Merged           int           `json:"merged"`
	MergeFailed      int           `json:"merge_failed"`
	Aborted          bool          `json:"aborted"`
	ElapsedMs        int64         `json:"elapsed_ms"`
	Results          []recordView  `json:"results"`
	SkippedPages     []skippedPage `json:"skipped_pages,omitempty"`
}

func newReportView(rep pipeline.Report) reportView {
	v := reportView{
		RunID:            rep.RunID,
		Dataset:          rep.Dataset,
		Total:            rep.Total,
		Inserted:         rep.Inserted,
		Replaced:         rep.Replaced,
		Skipped:          rep.Skipped,
		GenerationFailed: rep.GenerationFailed,
		Merged:           rep.Merged,
		MergeFailed:      rep.MergeFailed,
		Aborted:          rep.Aborted,
		ElapsedMs:        rep.Elapsed.Milliseconds(),
		Results:          make([]recordView, 0, len(rep.Results)),
	}
	for _, r := range rep.Results {
		v.Results = append(v.Results, newRecordView(r))
	}
	return v
}
