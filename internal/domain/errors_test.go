package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{
			name: "without cause",
			err:  ValidationError("threshold out of range", nil),
			want: "[validation] threshold out of range",
		},
		{
			name: "with cause",
			err:  DecodeError("failed to open a.pdf", errors.New("no trailer")),
			want: "[decode] failed to open a.pdf: no trailer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := IOError("failed to write page", cause)

	assert.ErrorIs(t, err, cause)
}

func TestIsType(t *testing.T) {
	inner := DecodeError("bad page", nil)
	outer := NoOutputError("all documents failed", inner)
	wrapped := fmt.Errorf("batch: %w", outer)

	assert.True(t, IsType(wrapped, ErrorTypeNoOutput))
	assert.True(t, IsType(wrapped, ErrorTypeDecode), "nested types are found")
	assert.False(t, IsType(wrapped, ErrorTypeEncoding))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeDecode))
	assert.False(t, IsType(nil, ErrorTypeDecode))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeEmptyDocument, TypeOf(fmt.Errorf("x: %w", EmptyDocumentError("no pages", nil))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		want ErrorType
	}{
		{ValidationError("m", nil), ErrorTypeValidation},
		{DecodeError("m", nil), ErrorTypeDecode},
		{EmptyDocumentError("m", nil), ErrorTypeEmptyDocument},
		{EncodingError("m", nil), ErrorTypeEncoding},
		{NoInputError("m", nil), ErrorTypeNoInput},
		{NoOutputError("m", nil), ErrorTypeNoOutput},
		{ConfigError("m", nil), ErrorTypeConfig},
		{IOError("m", nil), ErrorTypeIO},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.Equal(t, "m", tt.err.Message)
		})
	}
}
