// Package catalog defines the image catalog data model: the aggregate
// images.json document, its per-image entries, and the variant/size records
// describing every resized rendition of an original.
//
// The same types serve both persistence paths: JSON for the aggregate S3
// document and dynamodbav attributes for the per-image DynamoDB records.
package catalog

import (
	"encoding/json"
	"fmt"
)

// Format is an output image format. It is a closed enumeration; external
// input (event payloads, stored documents) must go through ParseFormat.
type Format string

const (
	FormatJPG  Format = "jpg"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
)

// ParseFormat validates a format string read from an external source.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJPG, FormatWebP, FormatAVIF:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

// MIMEType returns the Content-Type for objects encoded in this format.
func (f Format) MIMEType() string {
	if f == FormatJPG {
		return "image/jpeg"
	}
	return "image/" + string(f)
}

// Size records one stored rendition: the pixel width it was resized to and
// the object key it lives under.
type Size struct {
	Size int    `json:"size" dynamodbav:"size"`
	Path string `json:"path" dynamodbav:"path"`
}

// Variant groups the renditions of one image in a single output format.
// Sizes are kept in the order they were generated (ascending width).
type Variant struct {
	Format Format `json:"format" dynamodbav:"format"`
	Sizes  []Size `json:"sizes" dynamodbav:"sizes"`
}

// Entry is the catalog record for one image identifier.
type Entry struct {
	ID          string    `json:"id" dynamodbav:"id"`
	Description string    `json:"description" dynamodbav:"description"`
	Variants    []Variant `json:"variants" dynamodbav:"variants"`
}

// ReplaceVariant installs v in the entry's variant list, discarding any
// existing variant of the same format. Variants of other formats are
// untouched. There is never a partial merge of size lists.
func (e *Entry) ReplaceVariant(v Variant) {
	kept := e.Variants[:0]
	for _, existing := range e.Variants {
		if existing.Format != v.Format {
			kept = append(kept, existing)
		}
	}
	e.Variants = append(kept, v)
}

// Document is the aggregate catalog: image identifier to entry.
type Document map[string]Entry

// Upsert installs the entry under its identifier, fully replacing any
// previous entry with the same ID.
func (d Document) Upsert(e Entry) {
	d[e.ID] = e
}

// ParseDocument decodes a stored aggregate document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Marshal encodes the document for storage. Indented so the served
// images.json stays human-readable.
func (d Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog document: %w", err)
	}
	return data, nil
}
