package api

import (
	"encoding/hex"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/appendscan/internal/scan"
	"github.com/samcharles93/appendscan/internal/webui"
	"github.com/samcharles93/appendscan/pkg/imgend"
)

// DefaultMaxUploadBytes caps request bodies when the server is built with a
// non-positive limit.
const DefaultMaxUploadBytes int64 = 64 << 20

var formatExtensions = map[imgend.Format][]string{
	imgend.GIF:  {"gif"},
	imgend.JPEG: {"jpg", "jpeg"},
	imgend.PNG:  {"png"},
}

type Server struct {
	store     *ScanStore
	maxUpload int64
	clock     func() time.Time
}

func NewServer(store *ScanStore, maxUpload int64) *Server {
	if store == nil {
		store = NewScanStore(0)
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Server{
		store:     store,
		maxUpload: maxUpload,
		clock:     time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/", s.handleIndex)
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/formats", s.handleFormats)

	e.POST("/v1/scan", s.handleScan)
	e.POST("/v1/extract", s.handleExtract)

	e.GET("/v1/scans", s.handleListScans)
	e.GET("/v1/scans/:id", s.handleGetScan)
	e.GET("/v1/scans/:id/appended", s.handleGetAppended)
	e.DELETE("/v1/scans/:id", s.handleDeleteScan)
}

func (s *Server) handleIndex(c *echo.Context) error {
	http.FileServer(webui.StaticFS()).ServeHTTP(c.Response(), c.Request())
	return nil
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFormats(c *echo.Context) error {
	out := FormatList{Object: "list"}
	index := map[imgend.Format]int{}
	for _, sig := range imgend.Signatures() {
		i, ok := index[sig.Format]
		if !ok {
			i = len(out.Data)
			index[sig.Format] = i
			out.Data = append(out.Data, FormatInfo{
				Name:       sig.Format.String(),
				Extensions: formatExtensions[sig.Format],
			})
		}
		out.Data[i].MagicHex = append(out.Data[i].MagicHex, hex.EncodeToString(sig.Magic))
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleScan(c *echo.Context) error {
	data, err := readUpload(c.Request().Body, s.maxUpload)
	if err != nil {
		return s.writeUploadError(c, err)
	}

	name := filepath.Base(c.QueryParam("filename"))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	res := scan.Measure(name, data)
	resp := ScanResponse{
		ID:            newScanID(),
		Object:        "scan",
		CreatedAt:     s.clock().Unix(),
		Filename:      name,
		Format:        res.Format.String(),
		Size:          res.Size,
		EndOffset:     res.End,
		AppendedBytes: res.Appended(),
		PreviewHex:    hex.EncodeToString(res.Preview),
	}
	if boolParam(c, "parts") {
		resp.Parts = imgend.Walk(data).Parts
	}
	s.store.Put(resp, data[res.End:])
	return writeJSON(c, http.StatusOK, resp)
}

func (s *Server) handleExtract(c *echo.Context) error {
	data, err := readUpload(c.Request().Body, s.maxUpload)
	if err != nil {
		return s.writeUploadError(c, err)
	}
	appended := imgend.Appended(data)
	if len(appended) == 0 {
		return writeNotFound(c, "no appended data")
	}
	return writeBytes(c, http.StatusOK, "application/octet-stream", appended)
}

func (s *Server) handleListScans(c *echo.Context) error {
	limit, err := intParam(c, "limit", 20, 100)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	data, more := s.store.List(c.QueryParam("after"), limit)
	out := ScanList{
		Object:  "list",
		Data:    data,
		HasMore: more,
	}
	if out.Data == nil {
		out.Data = []ScanResponse{}
	}
	if len(data) > 0 {
		out.FirstID = data[0].ID
		out.LastID = data[len(data)-1].ID
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleGetScan(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "scan not found")
	}
	return writeJSON(c, http.StatusOK, rec.Response)
}

func (s *Server) handleGetAppended(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "scan not found")
	}
	if len(rec.Appended) == 0 {
		return writeNotFound(c, "no appended data")
	}
	return writeBytes(c, http.StatusOK, "application/octet-stream", rec.Appended)
}

func (s *Server) handleDeleteScan(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "scan not found")
	}
	return writeJSON(c, http.StatusOK, DeleteScanResp{
		ID:      id,
		Object:  "scan",
		Deleted: true,
	})
}
