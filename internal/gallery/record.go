package gallery

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"
)

var (
	ErrMissingContent     = errors.New("record has no content")
	ErrMissingContentType = errors.New("record has no content type")
	ErrCorruptContent     = errors.New("record content is corrupt")
)

// ImageRecord is one stored image as shown in the gallery
type ImageRecord struct {
	ID          string
	Filename    string
	Category    string
	ContentType string
	Content     []byte
	UploadDate  time.Time
	DataURI     string
}

type rawRecord struct {
	ID          string          `json:"_id"`
	Filename    string          `json:"filename"`
	Category    string          `json:"category"`
	Content     json.RawMessage `json:"content"`
	ContentType string          `json:"contentType"`
	UploadDate  string          `json:"uploadDate"`
}

// bufferContent is the JSON form of a binary buffer: {"type":"Buffer","data":[...]}
type bufferContent struct {
	Data json.RawMessage `json:"data"`
}

// DecodeRecord decodes one listing entry and builds its data URI
func DecodeRecord(raw json.RawMessage) (ImageRecord, error) {
	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ImageRecord{}, fmt.Errorf("%w: %v", ErrCorruptContent, err)
	}

	contentType := strings.TrimSpace(rec.ContentType)
	if contentType == "" {
		return ImageRecord{}, ErrMissingContentType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("%w: content type %q: %v", ErrCorruptContent, contentType, err)
	}

	content, err := decodeContent(rec.Content)
	if err != nil {
		return ImageRecord{}, err
	}

	record := ImageRecord{
		ID:          rec.ID,
		Filename:    rec.Filename,
		Category:    rec.Category,
		ContentType: mediaType,
		Content:     content,
		DataURI:     "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(content),
	}
	if rec.UploadDate != "" {
		if ts, err := time.Parse(time.RFC3339Nano, rec.UploadDate); err == nil {
			record.UploadDate = ts
		}
	}
	return record, nil
}

// decodeContent accepts a buffer object whose data is a byte array or a base64 string
func decodeContent(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrMissingContent
	}

	var buffer bufferContent
	if err := json.Unmarshal(raw, &buffer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptContent, err)
	}
	if len(buffer.Data) == 0 || string(buffer.Data) == "null" {
		return nil, ErrMissingContent
	}

	var values []int
	if err := json.Unmarshal(buffer.Data, &values); err == nil {
		if len(values) == 0 {
			return nil, ErrMissingContent
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: byte %d out of range: %d", ErrCorruptContent, i, v)
			}
			out[i] = byte(v)
		}
		return out, nil
	}

	var encoded string
	if err := json.Unmarshal(buffer.Data, &encoded); err != nil {
		return nil, fmt.Errorf("%w: data is neither a byte array nor base64", ErrCorruptContent)
	}
	out, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptContent, err)
	}
	if len(out) == 0 {
		return nil, ErrMissingContent
	}
	return out, nil
}

// DecodeRecords decodes every entry, dropping the ones that fail
func DecodeRecords(raws []json.RawMessage) ([]ImageRecord, []error) {
	records := make([]ImageRecord, 0, len(raws))
	var dropped []error
	for i, raw := range raws {
		record, err := DecodeRecord(raw)
		if err != nil {
			dropped = append(dropped, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		records = append(records, record)
	}
	return records, dropped
}
