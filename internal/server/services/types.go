package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// TypeValidator checks a payload against the declared type of an entry.
type TypeValidator interface {
	// Constrains reports whether Validate can reject content for typ.
	Constrains(typ string) bool
	Validate(typ string, c models.Content) error
}

// ScalarTypes validates text payloads for the scalar types integer, float,
// boolean and json. Other types (media types, "string") accept anything.
type ScalarTypes struct{}

func (ScalarTypes) Constrains(typ string) bool {
	switch strings.ToLower(typ) {
	case "integer", "float", "boolean", "json":
		return true
	}
	return false
}

func (v ScalarTypes) Validate(typ string, c models.Content) error {
	if !v.Constrains(typ) {
		return nil
	}
	text, ok := c.(models.Text)
	if !ok {
		return fmt.Errorf("%w: type %s requires a string value", common.ErrorValidation, typ)
	}
	s := string(text)

	var err error
	switch strings.ToLower(typ) {
	case "integer":
		_, err = strconv.ParseInt(s, 10, 64)
	case "float":
		_, err = strconv.ParseFloat(s, 64)
	case "boolean":
		if s != "true" && s != "false" {
			err = fmt.Errorf("not true or false")
		}
	case "json":
		if !json.Valid([]byte(s)) {
			err = fmt.Errorf("malformed json")
		}
	}
	if err != nil {
		return fmt.Errorf("%w: value %q is not a valid %s", common.ErrorValidation, s, typ)
	}
	return nil
}
