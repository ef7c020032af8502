package service

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/NoManNayeem/Terraform-POC/internal/models"
)

// createItemRequest is the POST body. Both fields are kept raw so that
// missing, null and wrongly typed values can be told apart.
type createItemRequest struct {
	Name        json.RawMessage `json:"name"`
	Description json.RawMessage `json:"description"`
}

// decodeCreateItem parses and type-checks a create body.
// It returns field-level errors instead of a Go error for bad input.
func decodeCreateItem(data []byte) (models.NewItem, []FieldError) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return models.NewItem{}, []FieldError{{
				Loc: []string{"body"}, Msg: "Expecting value", Type: "value_error.jsondecode",
			}}
		}
		return models.NewItem{}, []FieldError{{
			Loc: []string{"body"}, Msg: "value is not a valid dict", Type: "type_error.dict",
		}}
	}

	var req createItemRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return models.NewItem{}, []FieldError{{
			Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode",
		}}
	}

	var (
		item models.NewItem
		errs []FieldError
	)

	switch {
	case req.Name == nil:
		errs = append(errs, FieldError{Loc: []string{"body", "name"}, Msg: "field required", Type: "value_error.missing"})
	case isNull(req.Name):
		errs = append(errs, FieldError{Loc: []string{"body", "name"}, Msg: "none is not an allowed value", Type: "type_error.none.not_allowed"})
	default:
		if err := json.Unmarshal(req.Name, &item.Name); err != nil {
			errs = append(errs, FieldError{Loc: []string{"body", "name"}, Msg: "str type expected", Type: "type_error.str"})
		}
	}

	if req.Description != nil && !isNull(req.Description) {
		var d string
		if err := json.Unmarshal(req.Description, &d); err != nil {
			errs = append(errs, FieldError{Loc: []string{"body", "description"}, Msg: "str type expected", Type: "type_error.str"})
		} else {
			item.Description = &d
		}
	}

	if len(errs) > 0 {
		return models.NewItem{}, errs
	}
	return item, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// parseItemID validates the {item_id} path segment.
func parseItemID(s string) (int64, []FieldError) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, []FieldError{{
			Loc: []string{"path", "item_id"}, Msg: "value is not a valid integer", Type: "type_error.integer",
		}}
	}
	return id, nil
}
