// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package rest

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
)

// encodeMultipart renders parts in order. Repeated names are kept, the API
// reads them as a list.
func encodeMultipart(parts []Part) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		if p.Data == nil && p.FileName == "" {
			if err := w.WriteField(p.Name, p.Value); err != nil {
				return nil, "", fmt.Errorf("field %s: %w", p.Name, err)
			}
			continue
		}

		contentType := p.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(p.Data)
		}
		fileName := p.FileName
		if fileName == "" {
			fileName = p.Name
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(p.Name), escapeQuotes(fileName)))
		h.Set("Content-Type", contentType)

		fw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("file %s: %w", p.Name, err)
		}
		if _, err := fw.Write(p.Data); err != nil {
			return nil, "", fmt.Errorf("file %s: %w", p.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// progress reports monotonic upload fractions across retried attempts.
type progress struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last float64
}

func newProgress(fn ProgressFunc) *progress {
	if fn == nil {
		return nil
	}
	return &progress{fn: fn, last: -1}
}

func (p *progress) report(fraction float64) {
	if fraction > 1 {
		fraction = 1
	}
	p.mu.Lock()
	if fraction <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = fraction
	p.mu.Unlock()
	p.fn(fraction)
}

// reader wraps r so that reads advance the reported fraction.
func (p *progress) reader(r io.Reader, total int64) io.Reader {
	if p == nil || total <= 0 {
		return r
	}
	return &progressReader{r: r, total: total, p: p}
}

type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	p     *progress
}

func (pr *progressReader) Read(b []byte) (int, error) {
	n, err := pr.r.Read(b)
	if n > 0 {
		pr.read += int64(n)
		pr.p.report(float64(pr.read) / float64(pr.total))
	}
	return n, err
}
