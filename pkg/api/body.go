package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
)

// FormData is a multipart/form-data body, used for uploads such as property images.
type FormData struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name, value string
}

type formFile struct {
	field, filename string
	content         []byte
}

func NewFormData() *FormData {
	return &FormData{}
}

// Add appends a text field. Repeated names are sent as repeated parts.
func (f *FormData) Add(name, value string) *FormData {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

func (f *FormData) AddFile(field, filename string, content []byte) *FormData {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

func (f *FormData) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// encodeBody buffers the request body so a replay after a token refresh
// sends identical bytes.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *FormData:
		return b.encode()
	case json.RawMessage:
		return b, "application/json", nil
	case []byte:
		return b, "application/octet-stream", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read body: %w", err)
		}
		return data, "application/octet-stream", nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}
