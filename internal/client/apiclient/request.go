package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// Request describes one outbound API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded when non-nil. Ignored when Form is set.
	Body any

	// Form is sent as multipart/form-data.
	Form *Form

	// SkipRefresh disables the 401 refresh-and-retry stage for this call.
	// Used by the auth endpoints themselves.
	SkipRefresh bool

	// Header carries per-call headers set by pipeline stages.
	Header http.Header

	// retried is the retry marker: set once a refresh was attempted for this
	// request, so a second 401 is returned as-is.
	retried bool

	// token overrides the stored access token when re-attaching after refresh.
	token string

	encoded     []byte
	contentType string
	built       bool
	statusCode  int
}

// Retried reports whether the request was resubmitted after a token refresh.
func (r *Request) Retried() bool {
	return r.retried
}

// StatusCode returns the HTTP status of the last response, or 0.
func (r *Request) StatusCode() int {
	return r.statusCode
}

// body encodes the payload once, so a resend after refresh reuses the exact
// same bytes (multipart readers cannot be read twice).
func (r *Request) body() ([]byte, string, error) {
	if r.built {
		return r.encoded, r.contentType, nil
	}

	switch {
	case r.Form != nil:
		data, ct, err := r.Form.encode()
		if err != nil {
			return nil, "", err
		}
		r.encoded, r.contentType = data, ct
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("marshal body: %w", err)
		}
		r.encoded, r.contentType = data, "application/json"
	}

	r.built = true
	return r.encoded, r.contentType, nil
}

// Form is a multipart/form-data payload.
type Form struct {
	Fields map[string]string
	Files  []File
}

// File is one file part of a Form.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     io.Reader
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for name, value := range f.Fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	for _, file := range f.Files {
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.Field), escapeQuotes(file.Name)))
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", file.Field, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("copy file %s: %w", file.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func escapeSegment(s string) string {
	return url.PathEscape(s)
}
