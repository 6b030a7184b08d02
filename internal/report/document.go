// Package report converts output records into plain documents shared by
// the serializing reporters.
package report

import (
	"time"

	"firestige.xyz/framepeek/internal/core"
	"firestige.xyz/framepeek/internal/preview"
)

// Document keys.
const (
	KeyIndex          = "index"
	KeyTimestamp      = "timestamp"
	KeyCaptureLength  = "capture_length"
	KeyOriginalLength = "original_length"
	KeyFields         = "fields"
	KeyError          = "error"
	KeyPreview        = "preview"
)

// Document flattens rec into maps, strings, int64 and bool values only.
// Byte fields are rendered through f so every serializer sees the same text.
func Document(rec *core.OutputRecord, f preview.Formatter) map[string]any {
	doc := map[string]any{
		KeyIndex:          int64(rec.Index),
		KeyTimestamp:      rec.Timestamp.UTC().Format(time.RFC3339Nano),
		KeyCaptureLength:  int64(rec.CaptureLen),
		KeyOriginalLength: int64(rec.OrigLen),
		KeyPreview:        rec.Preview,
	}
	if rec.Fields != nil {
		doc[KeyFields] = Fields(rec.Fields, f)
	}
	if rec.Err != nil {
		doc[KeyError] = rec.Err.Error()
	}
	return doc
}

// Fields converts a record, rendering byte values as hex previews.
func Fields(r core.Record, f preview.Formatter) map[string]any {
	m := make(map[string]any, len(r))
	for k, v := range r {
		m[k] = value(v, f)
	}
	return m
}

func value(v core.Value, f preview.Formatter) any {
	switch v.Kind() {
	case core.KindBytes:
		b, _ := v.Bytes()
		return f.Hex(b)
	case core.KindRecord:
		sub, _ := v.Record()
		return Fields(sub, f)
	default:
		return v.Interface()
	}
}
