package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/bitrec/pkg/bitfield"
	"github.com/ssargent/bitrec/pkg/bitstream"
	"github.com/ssargent/bitrec/pkg/codec"
	"github.com/ssargent/bitrec/pkg/config"
	"github.com/ssargent/bitrec/pkg/storage"
)

// EncodeResponse carries one encoded record payload.
type EncodeResponse struct {
	Schema      string `json:"schema"`
	Payload     []byte `json:"payload"`
	Size        int    `json:"size"`
	Bits        int    `json:"bits"`
	DataVersion int    `json:"data_version"`
}

// FieldView is the decoded view of one record field.
type FieldView struct {
	Name   string      `json:"name,omitempty"`
	Kind   string      `json:"kind"`
	Width  int         `json:"width,omitempty"`
	Count  int         `json:"count,omitempty"`
	Signed bool        `json:"signed,omitempty"`
	Value  interface{} `json:"value"`
}

// InspectResponse carries the decoded view of a payload.
type InspectResponse struct {
	Schema      string                 `json:"schema"`
	DataVersion int                    `json:"data_version"`
	Fields      []FieldView            `json:"fields"`
	Values      map[string]interface{} `json:"values"`
}

// DiffResponse carries a delta payload between two records.
type DiffResponse struct {
	Schema  string `json:"schema"`
	Payload []byte `json:"payload"`
	Size    int    `json:"size"`
	Bits    int    `json:"bits"`
	Changed int    `json:"changed"`
}

// ApplyResponse carries a base payload with a delta applied.
type ApplyResponse struct {
	Schema      string                 `json:"schema"`
	Payload     []byte                 `json:"payload"`
	Size        int                    `json:"size"`
	Bits        int                    `json:"bits"`
	DataVersion int                    `json:"data_version"`
	Values      map[string]interface{} `json:"values"`
}

// MigrateResponse carries elements repacked into the target layout.
type MigrateResponse struct {
	From     string              `json:"from"`
	To       string              `json:"to"`
	Migrated int                 `json:"migrated"`
	Elements []map[string]uint64 `json:"elements"`
	Payload  []byte              `json:"payload"`
	Size     int                 `json:"size"`
}

// CaptureView is the list view of a stored capture, payload elided.
type CaptureView struct {
	ID        string    `json:"id"`
	Schema    string    `json:"schema"`
	Label     string    `json:"label,omitempty"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// CaptureInspectResponse pairs a stored capture with its decoded view.
type CaptureInspectResponse struct {
	Capture *CaptureView     `json:"capture"`
	Record  *InspectResponse `json:"record"`
}

// Server holds the API server state
type Server struct {
	captures ICaptureStore
	config   ServerConfig
	schemas  map[string]*config.SchemaDef
	layouts  map[string]*config.LayoutDef
	metrics  *Metrics
}

// NewServer creates a new API server
func NewServer(captures ICaptureStore, cfg ServerConfig, metrics *Metrics) *Server {
	schemas := make(map[string]*config.SchemaDef, len(cfg.Schemas))
	for i := range cfg.Schemas {
		schemas[cfg.Schemas[i].Name] = &cfg.Schemas[i]
	}
	layouts := make(map[string]*config.LayoutDef, len(cfg.Layouts))
	for i := range cfg.Layouts {
		layouts[cfg.Layouts[i].Name] = &cfg.Layouts[i]
	}
	return &Server{
		captures: captures,
		config:   cfg,
		schemas:  schemas,
		layouts:  layouts,
		metrics:  metrics,
	}
}

const defaultMaxRecordSize = 4096

func (s *Server) maxRecordSize() int {
	if s.config.MaxRecordSize > 0 {
		return s.config.MaxRecordSize
	}
	return defaultMaxRecordSize
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleEncode godoc
//
//	@Summary		Encode a record
//	@Description	Encode named field values into a payload using the given schema
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			request	body		EncodeRequest	true	"Encode request"
//	@Success		200		{object}	EncodeResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Router			/records/encode [post]
//	@Security		ApiKeyAuth
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EncodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.RecordCodecOperation("encode", false, time.Since(start))
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	def, ok := s.schemas[req.Schema]
	if !ok {
		s.metrics.RecordCodecOperation("encode", false, time.Since(start))
		sendError(w, fmt.Sprintf("Unknown schema %q", req.Schema), http.StatusNotFound)
		return
	}

	payload, bits, rec, err := s.encodePayload(def, req.Values)
	if err != nil {
		s.metrics.RecordCodecOperation("encode", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to encode record: %v", err), codecStatus(err))
		return
	}

	s.metrics.RecordCodecOperation("encode", true, time.Since(start))
	s.metrics.ObservePayloadSize("encode", len(payload))
	sendSuccess(w, EncodeResponse{
		Schema:      def.Name,
		Payload:     payload,
		Size:        len(payload),
		Bits:        bits,
		DataVersion: rec.DataVersion(),
	})
}

// handleInspect godoc
//
//	@Summary		Inspect a payload
//	@Description	Decode a payload against the given schema and return the field values
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			request	body		InspectRequest	true	"Inspect request"
//	@Success		200		{object}	InspectResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Router			/records/inspect [post]
//	@Security		ApiKeyAuth
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req InspectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.RecordCodecOperation("inspect", false, time.Since(start))
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	def, ok := s.schemas[req.Schema]
	if !ok {
		s.metrics.RecordCodecOperation("inspect", false, time.Since(start))
		sendError(w, fmt.Sprintf("Unknown schema %q", req.Schema), http.StatusNotFound)
		return
	}

	if len(req.Payload) == 0 {
		s.metrics.RecordCodecOperation("inspect", false, time.Since(start))
		sendError(w, "Payload is required", http.StatusBadRequest)
		return
	}
	if len(req.Payload) > s.maxRecordSize() {
		s.metrics.RecordCodecOperation("inspect", false, time.Since(start))
		sendError(w, fmt.Sprintf("Payload exceeds the %d byte limit", s.maxRecordSize()),
			http.StatusRequestEntityTooLarge)
		return
	}

	resp, err := s.inspectPayload(def, req.Payload)
	if err != nil {
		s.metrics.RecordCodecOperation("inspect", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to decode payload: %v", err), http.StatusBadRequest)
		return
	}

	s.metrics.RecordCodecOperation("inspect", true, time.Since(start))
	sendSuccess(w, resp)
}

// handleDiff godoc
//
//	@Summary		Encode a delta
//	@Description	Encode the delta between two value sets of one schema; applying the result to From yields To
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DiffRequest	true	"Diff request"
//	@Success		200		{object}	DiffResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Router			/records/diff [post]
//	@Security		ApiKeyAuth
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req DiffRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.RecordCodecOperation("diff", false, time.Since(start))
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	def, ok := s.schemas[req.Schema]
	if !ok {
		s.metrics.RecordCodecOperation("diff", false, time.Since(start))
		sendError(w, fmt.Sprintf("Unknown schema %q", req.Schema), http.StatusNotFound)
		return
	}

	from, err := s.buildRecord(def, req.From)
	if err != nil {
		s.metrics.RecordCodecOperation("diff", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to build base record: %v", err), codecStatus(err))
		return
	}
	to, err := s.buildRecord(def, req.To)
	if err != nil {
		s.metrics.RecordCodecOperation("diff", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to build target record: %v", err), codecStatus(err))
		return
	}

	hint := from.SizeHint()
	if hint > s.maxRecordSize() {
		s.metrics.RecordCodecOperation("diff", false, time.Since(start))
		sendError(w, fmt.Sprintf("Record needs %d bytes, limit %d", hint, s.maxRecordSize()),
			http.StatusRequestEntityTooLarge)
		return
	}

	stream := bitstream.New(hint)
	if err := from.SerializeDiff(stream, to); err != nil {
		s.metrics.RecordCodecOperation("diff", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to encode delta: %v", err), codecStatus(err))
		return
	}

	changed := 0
	for i := 0; i < from.Len(); i++ {
		if !from.Field(i).Equal(to.Field(i)) {
			changed++
		}
	}

	s.metrics.RecordCodecOperation("diff", true, time.Since(start))
	s.metrics.ObservePayloadSize("diff", stream.Size())
	sendSuccess(w, DiffResponse{
		Schema:  def.Name,
		Payload: stream.Bytes(),
		Size:    stream.Size(),
		Bits:    stream.Tell(),
		Changed: changed,
	})
}

// handleApply godoc
//
//	@Summary		Apply a delta
//	@Description	Decode a base payload, apply a delta payload on top and return the updated record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ApplyRequest	true	"Apply request"
//	@Success		200		{object}	ApplyResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Router			/records/apply [post]
//	@Security		ApiKeyAuth
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ApplyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.RecordCodecOperation("apply", false, time.Since(start))
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	def, ok := s.schemas[req.Schema]
	if !ok {
		s.metrics.RecordCodecOperation("apply", false, time.Since(start))
		sendError(w, fmt.Sprintf("Unknown schema %q", req.Schema), http.StatusNotFound)
		return
	}

	if len(req.Base) == 0 || len(req.Diff) == 0 {
		s.metrics.RecordCodecOperation("apply", false, time.Since(start))
		sendError(w, "Base and diff payloads are required", http.StatusBadRequest)
		return
	}
	if len(req.Base) > s.maxRecordSize() || len(req.Diff) > s.maxRecordSize() {
		s.metrics.RecordCodecOperation("apply", false, time.Since(start))
		sendError(w, fmt.Sprintf("Payload exceeds the %d byte limit", s.maxRecordSize()),
			http.StatusRequestEntityTooLarge)
		return
	}

	rec, err := def.Build()
	if err != nil {
		s.metrics.RecordCodecOperation("apply", false, time.Since(start))
		sendError(w, fmt.Sprintf("Invalid schema %q: %v", def.Name, err), http.StatusBadRequest)
		return
	}
	if err := rec.Deserialize(bitstream.FromBytes(req.Base)); err != nil {
		s.metrics.RecordCodecOperation("apply", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to decode base payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := rec.DeserializeDiff(bitstream.FromBytes(req.Diff)); err != nil {
		s.metrics.RecordCodecOperation("apply", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to apply delta: %v", err), http.StatusBadRequest)
		return
	}

	stream := bitstream.New(rec.SizeHint())
	if err := rec.Serialize(stream); err != nil {
		s.metrics.RecordCodecOperation("apply", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to encode record: %v", err), codecStatus(err))
		return
	}

	s.metrics.RecordCodecOperation("apply", true, time.Since(start))
	s.metrics.ObservePayloadSize("apply", stream.Size())
	sendSuccess(w, ApplyResponse{
		Schema:      def.Name,
		Payload:     stream.Bytes(),
		Size:        stream.Size(),
		Bits:        stream.Tell(),
		DataVersion: rec.DataVersion(),
		Values:      recordValues(def, rec),
	})
}

// handleMigrate godoc
//
//	@Summary		Migrate bit-field elements
//	@Description	Pack elements in the source layout and unpack them into the target layout, reconciling widths at word granularity
//	@Tags			bitfields
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MigrateRequest	true	"Migrate request"
//	@Success		200		{object}	MigrateResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Router			/bitfields/migrate [post]
//	@Security		ApiKeyAuth
func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req MigrateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	fromDef, ok := s.layouts[req.From]
	if !ok {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, fmt.Sprintf("Unknown layout %q", req.From), http.StatusNotFound)
		return
	}
	toDef, ok := s.layouts[req.To]
	if !ok {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, fmt.Sprintf("Unknown layout %q", req.To), http.StatusNotFound)
		return
	}
	if len(req.Elements) == 0 {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, "At least one element is required", http.StatusBadRequest)
		return
	}

	from, err := fromDef.Build()
	if err != nil {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, fmt.Sprintf("Invalid layout %q: %v", fromDef.Name, err), http.StatusBadRequest)
		return
	}
	to, err := toDef.Build()
	if err != nil {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, fmt.Sprintf("Invalid layout %q: %v", toDef.Name, err), http.StatusBadRequest)
		return
	}

	n := len(req.Elements)
	if from.PackedSize(n) > s.maxRecordSize() {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, fmt.Sprintf("Packed dump needs %d bytes, limit %d", from.PackedSize(n), s.maxRecordSize()),
			http.StatusRequestEntityTooLarge)
		return
	}

	src := from.NewArray(n)
	for i, elem := range req.Elements {
		for name, v := range elem {
			if !from.Has(name) {
				s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
				sendError(w, fmt.Sprintf("Layout %q has no field %q", fromDef.Name, name), http.StatusBadRequest)
				return
			}
			src.Set(i, name, v)
		}
	}

	stream := bitstream.New(from.PackedSize(n))
	if err := bitfield.Pack(stream, src); err != nil {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to pack elements: %v", err), codecStatus(err))
		return
	}
	payload := stream.Bytes()

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = n
	}
	dst := to.NewArray(capacity)
	stream.Reset()
	migrated, err := bitfield.Unpack(stream, dst)
	if err != nil {
		s.metrics.RecordCodecOperation("migrate", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to unpack elements: %v", err), http.StatusBadRequest)
		return
	}

	fields := to.Fields()
	elements := make([]map[string]uint64, migrated)
	for i := 0; i < migrated; i++ {
		elem := make(map[string]uint64, len(fields))
		for _, f := range fields {
			elem[f.Name] = dst.Get(i, f.Name)
		}
		elements[i] = elem
	}

	s.metrics.RecordCodecOperation("migrate", true, time.Since(start))
	s.metrics.ObservePayloadSize("migrate", len(payload))
	sendSuccess(w, MigrateResponse{
		From:     fromDef.Name,
		To:       toDef.Name,
		Migrated: migrated,
		Elements: elements,
		Payload:  payload,
		Size:     len(payload),
	})
}

// handleCreateCapture godoc
//
//	@Summary		Store a capture
//	@Description	Persist a payload under a new capture id. Values, when present, are encoded against the schema first; a given payload is stored verbatim.
//	@Tags			captures
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CaptureRequest	true	"Capture request"
//	@Success		200		{object}	storage.Capture
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Router			/captures [post]
//	@Security		ApiKeyAuth
func (s *Server) handleCreateCapture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.RecordCaptureOperation("create", false)
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	def, ok := s.schemas[req.Schema]
	if !ok {
		s.metrics.RecordCaptureOperation("create", false)
		sendError(w, fmt.Sprintf("Unknown schema %q", req.Schema), http.StatusNotFound)
		return
	}

	payload, err := s.capturePayload(def, &req)
	if err != nil {
		s.metrics.RecordCaptureOperation("create", false)
		sendError(w, fmt.Sprintf("Failed to resolve payload: %v", err), codecStatus(err))
		return
	}

	capture, err := s.captures.Create(def.Name, req.Label, payload)
	if err != nil {
		s.metrics.RecordCaptureOperation("create", false)
		sendError(w, fmt.Sprintf("Failed to store capture: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordCaptureOperation("create", true)
	sendSuccess(w, capture)
}

// handleListCaptures godoc
//
//	@Summary		List captures
//	@Description	List stored captures without their payloads
//	@Tags			captures
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Failure		500	{object}	map[string]string
//	@Router			/captures [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	captures, err := s.captures.List()
	if err != nil {
		s.metrics.RecordCaptureOperation("list", false)
		sendError(w, fmt.Sprintf("Failed to list captures: %v", err), http.StatusInternalServerError)
		return
	}

	views := make([]CaptureView, len(captures))
	for i, c := range captures {
		views[i] = CaptureView{
			ID:        c.ID,
			Schema:    c.Schema,
			Label:     c.Label,
			Size:      len(c.Payload),
			CreatedAt: c.CreatedAt,
		}
	}

	s.metrics.RecordCaptureOperation("list", true)
	sendSuccess(w, map[string]interface{}{"captures": views})
}

// handleGetCapture godoc
//
//	@Summary		Get a capture
//	@Description	Get a stored capture including its payload
//	@Tags			captures
//	@Produce		json
//	@Param			id	path		string	true	"Capture id"
//	@Success		200	{object}	storage.Capture
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/captures/{id} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	capture, err := s.captures.Read(id)
	if err != nil {
		s.metrics.RecordCaptureOperation("get", false)
		captureError(w, err, "read")
		return
	}

	s.metrics.RecordCaptureOperation("get", true)
	sendSuccess(w, capture)
}

// handleUpdateCapture godoc
//
//	@Summary		Update a capture
//	@Description	Replace a capture's schema, label and payload. Values, when present, are re-encoded against the capture's schema.
//	@Tags			captures
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Capture id"
//	@Param			request	body		CaptureRequest	true	"Capture request"
//	@Success		200		{object}	storage.Capture
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Router			/captures/{id} [put]
//	@Security		ApiKeyAuth
func (s *Server) handleUpdateCapture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CaptureRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.RecordCaptureOperation("update", false)
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	capture, err := s.captures.Read(id)
	if err != nil {
		s.metrics.RecordCaptureOperation("update", false)
		captureError(w, err, "read")
		return
	}

	if req.Schema != "" {
		capture.Schema = req.Schema
	}
	def, ok := s.schemas[capture.Schema]
	if !ok {
		s.metrics.RecordCaptureOperation("update", false)
		sendError(w, fmt.Sprintf("Unknown schema %q", capture.Schema), http.StatusNotFound)
		return
	}
	capture.Label = req.Label

	if req.Values != nil || len(req.Payload) > 0 {
		payload, err := s.capturePayload(def, &req)
		if err != nil {
			s.metrics.RecordCaptureOperation("update", false)
			sendError(w, fmt.Sprintf("Failed to resolve payload: %v", err), codecStatus(err))
			return
		}
		capture.Payload = payload
	}

	if err := s.captures.Update(capture); err != nil {
		s.metrics.RecordCaptureOperation("update", false)
		captureError(w, err, "update")
		return
	}

	s.metrics.RecordCaptureOperation("update", true)
	sendSuccess(w, capture)
}

// handleDeleteCapture godoc
//
//	@Summary		Delete a capture
//	@Description	Delete a stored capture
//	@Tags			captures
//	@Produce		json
//	@Param			id	path		string	true	"Capture id"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/captures/{id} [delete]
//	@Security		ApiKeyAuth
func (s *Server) handleDeleteCapture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.captures.Delete(id); err != nil {
		s.metrics.RecordCaptureOperation("delete", false)
		captureError(w, err, "delete")
		return
	}

	s.metrics.RecordCaptureOperation("delete", true)
	sendSuccess(w, map[string]string{"message": "Capture deleted successfully"})
}

// handleInspectCapture godoc
//
//	@Summary		Inspect a capture
//	@Description	Decode a stored capture's payload against its schema
//	@Tags			captures
//	@Produce		json
//	@Param			id	path		string	true	"Capture id"
//	@Success		200	{object}	CaptureInspectResponse
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/captures/{id}/inspect [get]
//	@Security		ApiKeyAuth
func (s *Server) handleInspectCapture(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id := chi.URLParam(r, "id")
	capture, err := s.captures.Read(id)
	if err != nil {
		s.metrics.RecordCodecOperation("inspect", false, time.Since(start))
		captureError(w, err, "read")
		return
	}

	def, ok := s.schemas[capture.Schema]
	if !ok {
		s.metrics.RecordCodecOperation("inspect", false, time.Since(start))
		sendError(w, fmt.Sprintf("Schema %q is not configured", capture.Schema), http.StatusBadRequest)
		return
	}

	record, err := s.inspectPayload(def, capture.Payload)
	if err != nil {
		s.metrics.RecordCodecOperation("inspect", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to decode payload: %v", err), http.StatusBadRequest)
		return
	}

	s.metrics.RecordCodecOperation("inspect", true, time.Since(start))
	sendSuccess(w, CaptureInspectResponse{
		Capture: &CaptureView{
			ID:        capture.ID,
			Schema:    capture.Schema,
			Label:     capture.Label,
			Size:      len(capture.Payload),
			CreatedAt: capture.CreatedAt,
		},
		Record: record,
	})
}

// handleStats godoc
//
//	@Summary		Get store statistics
//	@Description	Get capture count and total payload volume
//	@Tags			diagnostics
//	@Produce		json
//	@Success		200	{object}	storage.StoreStats
//	@Failure		500	{object}	map[string]string
//	@Router			/stats [get]
//	@Security		ApiKeyAuth
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.captures.Stats()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to read store stats: %v", err), http.StatusInternalServerError)
		return
	}

	// Update metrics with current stats
	s.metrics.UpdateCaptureStats(stats.Captures, stats.PayloadBytes)
	sendSuccess(w, stats)
}

// errTooLarge marks requests whose buffers would exceed MaxRecordSize.
var errTooLarge = errors.New("record exceeds the configured maximum size")

// decodeJSON decodes a request body, keeping numbers as json.Number so
// full 64-bit values survive the trip.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// codecStatus maps encode-side failures onto HTTP status codes. Size
// overruns are 413; everything else the codec rejects traces back to
// request content and is a 400.
func codecStatus(err error) int {
	if errors.Is(err, errTooLarge) || errors.Is(err, bitstream.ErrCapacity) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// captureError maps storage errors onto HTTP responses.
func captureError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		sendError(w, "Capture not found", http.StatusNotFound)
	case strings.Contains(err.Error(), "invalid capture id"):
		sendError(w, err.Error(), http.StatusBadRequest)
	default:
		sendError(w, fmt.Sprintf("Failed to %s capture: %v", action, err), http.StatusInternalServerError)
	}
}

// buildRecord builds a schema's record and overlays the given values.
func (s *Server) buildRecord(def *config.SchemaDef, values map[string]interface{}) (*codec.Record, error) {
	rec, err := def.Build()
	if err != nil {
		return nil, err
	}
	if err := applyValues(def, rec, values); err != nil {
		return nil, err
	}
	return rec, nil
}

// encodePayload builds a record from the schema, overlays the request
// values and serializes it. bits is the exact encoded length; the
// payload is its byte view.
func (s *Server) encodePayload(def *config.SchemaDef, values map[string]interface{}) (payload []byte, bits int, rec *codec.Record, err error) {
	rec, err = s.buildRecord(def, values)
	if err != nil {
		return nil, 0, nil, err
	}

	hint := rec.SizeHint()
	if hint > s.maxRecordSize() {
		return nil, 0, nil, fmt.Errorf("%w: needs %d bytes, limit %d", errTooLarge, hint, s.maxRecordSize())
	}

	stream := bitstream.New(hint)
	if err := rec.Serialize(stream); err != nil {
		return nil, 0, nil, err
	}
	return stream.Bytes(), stream.Tell(), rec, nil
}

// inspectPayload decodes a payload against the schema. A payload from
// a newer writer decodes cleanly up to the first unknown generation;
// fields past it keep their schema defaults.
func (s *Server) inspectPayload(def *config.SchemaDef, payload []byte) (*InspectResponse, error) {
	rec, err := def.Build()
	if err != nil {
		return nil, err
	}
	if err := rec.Deserialize(bitstream.FromBytes(payload)); err != nil {
		return nil, err
	}
	return &InspectResponse{
		Schema:      def.Name,
		DataVersion: rec.DataVersion(),
		Fields:      fieldViews(def, rec),
		Values:      recordValues(def, rec),
	}, nil
}

// capturePayload resolves the payload for a capture request: explicit
// payloads are stored verbatim, value maps are encoded first.
func (s *Server) capturePayload(def *config.SchemaDef, req *CaptureRequest) ([]byte, error) {
	if req.Values != nil {
		payload, _, _, err := s.encodePayload(def, req.Values)
		return payload, err
	}
	if len(req.Payload) == 0 {
		return nil, errors.New("either values or payload is required")
	}
	if len(req.Payload) > s.maxRecordSize() {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", errTooLarge, len(req.Payload), s.maxRecordSize())
	}
	return req.Payload, nil
}

// startMetricsUpdater periodically refreshes capture store metrics
func (s *Server) startMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats, err := s.captures.Stats()
		if err != nil {
			continue
		}
		s.metrics.UpdateCaptureStats(stats.Captures, stats.PayloadBytes)
	}
}
