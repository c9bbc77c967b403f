package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"localchef/models"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

// ObjectIDParam parses the named path parameter as a document id.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", models.ErrInvalidInput, raw)
	}
	return id, nil
}

// DecodeJSON reads a JSON body into dst. Every failure is a client error.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", models.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// DecodeFields reads a JSON object body for a partial update. Field names
// are checked so they cannot smuggle update operators or dotted paths.
func DecodeFields(r *http.Request) (map[string]any, error) {
	var fields map[string]any
	if err := DecodeJSON(r, &fields); err != nil {
		return nil, err
	}
	for name := range fields {
		if err := models.ValidateFieldName(name); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

// PositiveInt parses a query value as a positive integer; anything else,
// including an empty value, yields 0.
func PositiveInt(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Email normalizes an address taken from a path or body.
func Email(raw string) string {
	return strings.TrimSpace(raw)
}
