// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

package handler

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/tomtom215/olapic-go/internal/entity"
	"github.com/tomtom215/olapic-go/internal/rest"
	"github.com/tomtom215/olapic-go/internal/validation"
)

// Field is one named metadata value.
type Field struct {
	Name  string
	Value any
}

// Metadata is an ordered list of form fields. Order is kept on the wire.
type Metadata []Field

// Add appends a field and returns the extended list.
func (m Metadata) Add(name string, value any) Metadata {
	return append(m, Field{Name: name, Value: value})
}

// identifier is satisfied by every entity type.
type identifier interface {
	ID() string
}

// PrepareMetadataForPOST flattens metadata into multipart parts. Slices
// expand into one part per element under the same name; entities are sent
// by id. Nil values are skipped.
func (b *Base) PrepareMetadataForPOST(metadata Metadata) []rest.Part {
	return PrepareMetadataForPOST(metadata)
}

// PrepareMetadataForPOST is the stateless form of Base.PrepareMetadataForPOST.
func PrepareMetadataForPOST(metadata Metadata) []rest.Part {
	parts := make([]rest.Part, 0, len(metadata))
	for _, f := range metadata {
		parts = appendValue(parts, f.Name, f.Value)
	}
	return parts
}

func appendValue(parts []rest.Part, name string, value any) []rest.Part {
	if value == nil {
		return parts
	}
	switch v := value.(type) {
	case []byte:
		return append(parts, rest.Part{Name: name, Value: string(v)})
	case []any:
		for _, item := range v {
			parts = appendValue(parts, name, item)
		}
		return parts
	case []string:
		for _, item := range v {
			parts = append(parts, rest.Part{Name: name, Value: item})
		}
		return parts
	}

	if s, ok := scalarString(value); ok {
		return append(parts, rest.Part{Name: name, Value: s})
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			parts = appendValue(parts, name, rv.Index(i).Interface())
		}
		return parts
	case reflect.Ptr:
		if rv.IsNil() {
			return parts
		}
		return appendValue(parts, name, rv.Elem().Interface())
	}
	return append(parts, rest.Part{Name: name, Value: fmt.Sprint(value)})
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case identifier:
		if reflect.ValueOf(v).Kind() == reflect.Ptr && reflect.ValueOf(v).IsNil() {
			return "", false
		}
		return v.ID(), true
	case fmt.Stringer:
		return v.String(), true
	case string:
		return v, true
	case bool, float64, float32, int, int64:
		return entity.FormatScalar(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case uint, uint32, uint64:
		return fmt.Sprint(v), true
	}
	return "", false
}

// UploadRequest describes a media upload.
type UploadRequest struct {
	Caption   string           `json:"caption" validate:"required"`
	Latitude  *float64         `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64         `json:"longitude" validate:"omitempty,longitude"`
	Streams   []*entity.Stream `json:"stream"`
	Extra     Metadata         `json:"-"`
}

// Validate checks the request fields.
func (r *UploadRequest) Validate() error {
	return validation.ValidateStruct(r)
}

// Metadata renders the request in API field order.
func (r *UploadRequest) Metadata() Metadata {
	md := Metadata{}.Add("caption", r.Caption)
	if r.Latitude != nil && r.Longitude != nil {
		md = md.Add("latitude", *r.Latitude).Add("longitude", *r.Longitude)
	}
	if len(r.Streams) > 0 {
		md = md.Add("stream", r.Streams)
	}
	return append(md, r.Extra...)
}

// ReportRequest describes a media report.
type ReportRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason" validate:"required,max=1000"`
}

// Validate checks the request fields.
func (r *ReportRequest) Validate() error {
	return validation.ValidateStruct(r)
}

// Metadata renders the request as form fields.
func (r *ReportRequest) Metadata() Metadata {
	return Metadata{}.Add("email", r.Email).Add("reason", r.Reason)
}

// UploaderRequest describes a new uploader for a customer.
type UploaderRequest struct {
	Email      string `json:"email" validate:"required,email"`
	ScreenName string `json:"screen_name" validate:"required,max=100"`
}

// Validate checks the request fields.
func (r *UploaderRequest) Validate() error {
	return validation.ValidateStruct(r)
}

// Metadata renders the request as form fields.
func (r *UploaderRequest) Metadata() Metadata {
	return Metadata{}.Add("email", r.Email).Add("screen_name", r.ScreenName)
}
