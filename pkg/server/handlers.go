package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"orgmap/pkg/app"
	"orgmap/pkg/engine"
	"orgmap/pkg/report"
	"orgmap/pkg/schema"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UploadResponse is returned when a session is created.
type UploadResponse struct {
	ID string `json:"id"`
	app.View
}

type mappingRequest struct {
	Mapping schema.ColumnMapping `json:"mapping" validate:"required"`
}

type filterRequest struct {
	Field           string   `json:"field" validate:"omitempty,oneof=level employeeType teamProject"`
	Values          []string `json:"values"`
	DifferentCampus *bool    `json:"differentCampus"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) createUpload(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, st, err := s.sessions.Upload("", fileName, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, UploadResponse{ID: id, View: app.NewView(st)})
}

func (s *Server) replaceFile(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_, st, err := s.sessions.Upload(mux.Vars(r)["id"], fileName, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeView(w, st)
}

// readUpload pulls the multipart "file" part, bounded by MaxUploadBytes, and
// rejects content that is plainly not text.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var me *http.MaxBytesError
		if errors.As(err, &me) {
			return "", nil, me
		}
		return "", nil, badRequest("read multipart form: %v", err)
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return "", nil, badRequest("missing file part: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, errors.Wrap(err, "read upload")
	}
	fileName := path.Base(strings.ReplaceAll(hdr.Filename, "\\", "/"))
	if err := sniff(fileName, data); err != nil {
		return "", nil, err
	}
	return fileName, data, nil
}

// sniff accepts text content and content mimetype cannot classify. Anything
// recognized as another format (a workbook renamed to .csv, an image) is
// refused before parsing.
func sniff(fileName string, data []byte) error {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return nil
		}
	}
	if mt.Is("application/octet-stream") {
		return nil
	}
	return &app.ParseError{FileName: fileName, Err: errors.Errorf("content looks like %s, not CSV", mt.String())}
}

func (s *Server) getUpload(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeView(w, st)
}

func (s *Server) deleteUpload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.sessions.Get(id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putMapping(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req mappingRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.sessions.Get(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !st.HasFile() {
		s.fail(w, r, app.ErrNoData)
		return
	}
	meta := map[string]string{}
	for _, f := range schema.Fields {
		if h, ok := req.Mapping.Header(f); ok && !slices.Contains(st.Headers, h) {
			meta[string(f)] = h
		}
	}
	if len(meta) > 0 {
		_ = WriteError(w, http.StatusBadRequest, "unknown_column", "mapping names columns the file does not have", meta)
		return
	}
	s.dispatch(w, r, id, app.MappingReplaced{Mapping: req.Mapping})
}

func (s *Server) suggest(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Suggest(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusAccepted, app.NewView(st))
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Dispatch(mux.Vars(r)["id"], app.MappingsApplied{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if st.Err != nil {
		status, code := statusFor(st.Err)
		var meta map[string]string
		if missing := st.Mapping.Missing(st.Required); len(missing) > 0 && errors.Is(st.Err, app.ErrIncompleteMapping) {
			meta = map[string]string{}
			for _, f := range missing {
				meta[string(f)] = "required"
			}
		}
		_ = WriteError(w, status, code, st.Err.Error(), meta)
		return
	}
	s.writeView(w, st)
}

func (s *Server) putFilters(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req filterRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Field == "" && req.DifferentCampus == nil {
		s.fail(w, r, badRequest("either field or differentCampus is required"))
		return
	}

	var actions []app.Action
	if req.Field != "" {
		f, _ := schema.ParseField(req.Field)
		actions = append(actions, app.FacetChanged{Field: f, Values: req.Values})
	}
	if req.DifferentCampus != nil {
		actions = append(actions, app.CampusToggled{On: *req.DifferentCampus})
	}
	s.dispatch(w, r, id, actions...)
}

func (s *Server) resetFilters(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, mux.Vars(r)["id"], app.FiltersReset{})
}

func (s *Server) click(w http.ResponseWriter, r *http.Request) {
	var ev engine.ClickEvent
	if err := s.decode(r, &ev); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := engine.ParseClick(ev)
	if err != nil {
		s.fail(w, r, badRequest("%v", err))
		return
	}
	s.dispatch(w, r, mux.Vars(r)["id"], app.NodeClicked{Click: c})
}

func (s *Server) hierarchy(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, st.Hierarchy)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !st.Applied() {
		s.fail(w, r, app.ErrNoData)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, report.Build(report.FromState(st))); err != nil {
		s.fail(w, r, err)
		return
	}
	base := strings.TrimSuffix(st.FileName, path.Ext(st.FileName))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_orgmap.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, id string, actions ...app.Action) {
	var (
		st  app.State
		err error
	)
	for _, a := range actions {
		if st, err = s.sessions.Dispatch(id, a); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.writeView(w, st)
}

func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return badRequest("decode body: %v", err)
	}
	return s.validate.Struct(v)
}

func (s *Server) writeView(w http.ResponseWriter, st app.State) {
	_ = WriteJSON(w, http.StatusOK, app.NewView(st))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request-id", w.Header().Get(RequestIDHeader)),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	_ = WriteError(w, status, code, err.Error(), validationMeta(err))
}
