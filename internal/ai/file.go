package ai

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxFileText bounds how much of a text upload is sent to the model.
const MaxFileText = 20000

type FileKind int

const (
	FileImage FileKind = iota + 1
	FileText
	FilePDF
)

// File is an upload to extract a task from.
type File struct {
	Data     []byte
	MimeType string
	Name     string
}

// DecodeFile builds a File from a base64 payload.
func DecodeFile(b64, mimeType, name string) (File, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return File{}, fmt.Errorf("decode file: %w", err)
	}
	return File{Data: data, MimeType: mimeType, Name: name}, nil
}

// Kind classifies the upload. Binary formats other than images and PDF are unsupported.
func (f File) Kind() (FileKind, error) {
	mt, _, err := mime.ParseMediaType(f.MimeType)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFile, f.MimeType)
	}
	switch {
	case mt == "image/png", mt == "image/jpeg", mt == "image/gif", mt == "image/webp":
		return FileImage, nil
	case strings.HasPrefix(mt, "text/"), mt == "application/json":
		return FileText, nil
	case mt == "application/pdf":
		return FilePDF, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFile, mt)
}

// Text returns the decoded contents of a text upload.
func (f File) Text() (string, error) {
	if !utf8.Valid(f.Data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedFile, f.Name)
	}
	return truncate(string(f.Data), MaxFileText), nil
}

// PDFText extracts the plain text layer of a PDF upload.
func (f File) PDFText() (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %s is not a readable PDF", ErrUnsupportedFile, f.Name)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a readable PDF: %v", ErrUnsupportedFile, f.Name, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: read text of %s: %v", ErrUnsupportedFile, f.Name, err)
	}
	raw, err := io.ReadAll(io.LimitReader(plain, 4*MaxFileText))
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", f.Name, err)
	}
	text = strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
	if text == "" {
		return "", fmt.Errorf("%w: %s has no text layer", ErrUnsupportedFile, f.Name)
	}
	return truncate(text, MaxFileText), nil
}

// DataURL encodes an image upload for the vision model.
func (f File) DataURL() string {
	return "data:" + f.MimeType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
