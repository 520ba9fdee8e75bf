package api

//go:generate mockgen -destination=./mock_store.go -package=api . ICaptureStore

import (
	"github.com/ssargent/bitrec/pkg/config"
	"github.com/ssargent/bitrec/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// EncodeRequest asks for named field values to be encoded against a
// schema. Fields not named keep their schema defaults.
type EncodeRequest struct {
	Schema string                 `json:"schema"`
	Values map[string]interface{} `json:"values"`
}

// InspectRequest asks for a payload to be decoded against a schema.
// Payload travels base64-encoded, as Go marshals []byte.
type InspectRequest struct {
	Schema  string `json:"schema"`
	Payload []byte `json:"payload"`
}

// DiffRequest asks for a delta payload between two value sets of the
// same schema. Applying the result to From yields To.
type DiffRequest struct {
	Schema string                 `json:"schema"`
	From   map[string]interface{} `json:"from"`
	To     map[string]interface{} `json:"to"`
}

// ApplyRequest asks for a delta payload to be applied on top of a base
// payload.
type ApplyRequest struct {
	Schema string `json:"schema"`
	Base   []byte `json:"base"`
	Diff   []byte `json:"diff"`
}

// MigrateRequest asks for bit-field elements to be repacked from one
// layout into another. Capacity, when larger than the element count,
// sizes the destination so a longer dump can be replayed later.
type MigrateRequest struct {
	From     string              `json:"from"`
	To       string              `json:"to"`
	Capacity int                 `json:"capacity,omitempty"`
	Elements []map[string]uint64 `json:"elements"`
}

// CaptureRequest asks for a payload to be persisted. Values, when
// present, is encoded against the schema first; otherwise Payload is
// stored as given.
type CaptureRequest struct {
	Schema  string                 `json:"schema"`
	Label   string                 `json:"label,omitempty"`
	Payload []byte                 `json:"payload,omitempty"`
	Values  map[string]interface{} `json:"values,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port          int
	Bind          string
	APIKey        string
	DataDir       string
	MaxRecordSize int // Byte cap for a single encode/decode buffer
	Schemas       []config.SchemaDef
	Layouts       []config.LayoutDef
}

// ICaptureStore defines the interface for the capture store operations
type ICaptureStore interface {
	Create(schema, label string, payload []byte) (*storage.Capture, error)
	Read(id string) (*storage.Capture, error)
	Update(capture *storage.Capture) error
	Delete(id string) error
	List() ([]*storage.Capture, error)

	// Diagnostics
	Stats() (*storage.StoreStats, error)
}
