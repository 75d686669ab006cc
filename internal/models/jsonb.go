package models

// JSONB represents a PostgreSQL jsonb payload. The core treats these as
// opaque key-value maps; per-license-type shape validation happens at the
// request layer.
type JSONB map[string]interface{}
