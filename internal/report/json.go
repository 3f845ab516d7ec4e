package report

import (
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/samcharles93/appendscan/internal/scan"
)

// ResultRecord is the JSON form of a scan.Result.
type ResultRecord struct {
	Type          string `json:"type"`
	RunID         string `json:"run_id,omitempty"`
	Path          string `json:"path"`
	Format        string `json:"format"`
	Size          int    `json:"size"`
	EndOffset     int    `json:"end_offset"`
	AppendedBytes int    `json:"appended_bytes"`
	PreviewHex    string `json:"preview_hex,omitempty"`
	CopiedTo      string `json:"copied_to,omitempty"`
	DataFile      string `json:"data_file,omitempty"`
	Error         string `json:"error,omitempty"`
}

// SummaryRecord is the JSON form of a scan.Summary.
type SummaryRecord struct {
	Type       string     `json:"type"`
	RunID      string     `json:"run_id"`
	Targets    []string   `json:"targets,omitempty"`
	Scanned    int        `json:"scanned"`
	Found      int        `json:"found"`
	Failed     int        `json:"failed"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewResultRecord converts r for encoding.
func NewResultRecord(runID string, r scan.Result) ResultRecord {
	rec := ResultRecord{
		Type:          "result",
		RunID:         runID,
		Path:          r.Path,
		Format:        r.Format.String(),
		Size:          r.Size,
		EndOffset:     r.End,
		AppendedBytes: r.Appended(),
		PreviewHex:    hex.EncodeToString(r.Preview),
	}
	if r.Saved != nil {
		rec.CopiedTo = r.Saved.CopyPath
		rec.DataFile = r.Saved.DataPath
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
		rec.Format = ""
		rec.Size, rec.EndOffset, rec.AppendedBytes = 0, 0, 0
	}
	return rec
}

func newSummaryRecord(typ string, s scan.Summary) SummaryRecord {
	rec := SummaryRecord{
		Type:      typ,
		RunID:     s.RunID,
		Targets:   s.Targets,
		Scanned:   s.Scanned,
		Found:     s.Found,
		Failed:    s.Failed,
		StartedAt: s.Started,
	}
	if !s.Finished.IsZero() {
		finished := s.Finished
		rec.FinishedAt = &finished
	}
	return rec
}

// JSON writes newline-delimited JSON: a "start" record, one "result" per
// scanned file and a closing "summary".
type JSON struct {
	mu    sync.Mutex
	enc   *json.Encoder
	runID string
	// All includes clean files, not only hits and failures.
	All bool
}

func NewJSON(w io.Writer, all bool) *JSON {
	return &JSON{enc: json.NewEncoder(w), All: all}
}

func (j *JSON) Begin(s scan.Summary) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runID = s.RunID
	return j.enc.Encode(newSummaryRecord("start", s))
}

func (j *JSON) Report(r scan.Result) error {
	if !j.All && r.Err == nil && !r.Found() {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(NewResultRecord(j.runID, r))
}

func (j *JSON) End(s scan.Summary) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(newSummaryRecord("summary", s))
}
