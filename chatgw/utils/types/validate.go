package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected input, located by its JSON path.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationErrors is returned for any request body the gateway refuses to process.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, strings.Join(fe.Loc, ".")+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeChatRequest parses and validates a chat body. Any failure, including
// malformed JSON and wrong field types, comes back as ValidationErrors.
func DecodeChatRequest(r io.Reader) (ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return ChatRequest{}, decodeError(err)
	}
	if err := ValidateChatRequest(req); err != nil {
		return ChatRequest{}, err
	}
	return req, nil
}

// ValidateChatRequest applies the struct tags on ChatRequest.
func ValidateChatRequest(req ChatRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Loc:  namespaceLoc(fe.Namespace()),
			Msg:  fieldMessage(fe),
			Type: fe.Tag(),
		})
	}
	return out
}

func decodeError(err error) ValidationErrors {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		return ValidationErrors{{
			Loc:  loc,
			Msg:  "Input should be a valid " + kindName(typeErr.Type),
			Type: "type_error",
		}}
	}
	if errors.Is(err, io.EOF) {
		return ValidationErrors{{Loc: []string{"body"}, Msg: "Field required", Type: "missing"}}
	}
	return ValidationErrors{{Loc: []string{"body"}, Msg: "JSON decode error: " + err.Error(), Type: "json_invalid"}}
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Struct, reflect.Map:
		return "object"
	}
	return t.String()
}

// namespaceLoc turns "ChatRequest.messages[0].content" into
// ["body", "messages", "0", "content"].
func namespaceLoc(ns string) []string {
	loc := []string{"body"}
	segments := strings.Split(ns, ".")
	if len(segments) > 0 {
		segments = segments[1:]
	}
	for _, seg := range segments {
		for seg != "" {
			open := strings.IndexByte(seg, '[')
			if open < 0 {
				loc = append(loc, seg)
				break
			}
			if open > 0 {
				loc = append(loc, seg[:open])
			}
			end := strings.IndexByte(seg[open:], ']')
			if end < 0 {
				loc = append(loc, seg[open:])
				break
			}
			loc = append(loc, seg[open+1:open+end])
			seg = seg[open+end+1:]
		}
	}
	return loc
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.String {
			return "String should have at least 1 character"
		}
		return "Field required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("List should have at least %s item after validation", fe.Param())
		}
		return "Value is too short"
	case "max":
		return fmt.Sprintf("Value should have at most %s characters", fe.Param())
	case "oneof":
		opts := strings.Fields(fe.Param())
		for i, o := range opts {
			opts[i] = strconv.Quote(o)
		}
		return "Input should be " + strings.Join(opts, ", ")
	case "gte":
		return "Input should be greater than or equal to " + fe.Param()
	case "lte":
		return "Input should be less than or equal to " + fe.Param()
	}
	return fmt.Sprintf("failed on the %q rule", fe.Tag())
}
