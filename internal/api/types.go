package api

import "github.com/samcharles93/appendscan/pkg/imgend"

type ScanResponse struct {
	ID            string        `json:"id"`
	Object        string        `json:"object"`
	CreatedAt     int64         `json:"created_at"`
	Filename      string        `json:"filename,omitempty"`
	Format        string        `json:"format"`
	Size          int           `json:"size"`
	EndOffset     int           `json:"end_offset"`
	AppendedBytes int           `json:"appended_bytes"`
	PreviewHex    string        `json:"preview_hex,omitempty"`
	Parts         []imgend.Part `json:"parts,omitempty"`
}

type ScanList struct {
	Object  string         `json:"object"`
	Data    []ScanResponse `json:"data"`
	FirstID string         `json:"first_id,omitempty"`
	LastID  string         `json:"last_id,omitempty"`
	HasMore bool           `json:"has_more"`
}

type DeleteScanResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type FormatInfo struct {
	Name       string   `json:"name"`
	MagicHex   []string `json:"magic_hex"`
	Extensions []string `json:"extensions"`
}

type FormatList struct {
	Object string       `json:"object"`
	Data   []FormatInfo `json:"data"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}
