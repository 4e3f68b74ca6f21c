package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// AllDepartmentsID identifies the pseudo-department used by filter lists.
const AllDepartmentsID = "all"

// Department is a department record as returned by the backend.
type Department struct {
	ID          FlexString `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Color       string     `json:"color,omitempty"`
}

// DisplayDepartment is the UI-ready department tuple.
type DisplayDepartment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	ActiveColor string `json:"activeColor,omitempty"`
}

// DepartmentRefKind tags how a movement record referenced its department.
type DepartmentRefKind int

const (
	DepartmentRefNone DepartmentRefKind = iota
	// DepartmentRefText is a bare string; it may hold an id or a name.
	DepartmentRefText
	DepartmentRefID
	DepartmentRefName
)

// DepartmentRef is the single internal representation of the department
// field in movement history, which the backend sends as a string, an object
// carrying an id, or an object carrying only a name.
type DepartmentRef struct {
	Kind  DepartmentRefKind
	Value string
	// Name is set when an id-bearing object also carried a name.
	Name string
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *DepartmentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = DepartmentRef{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			*r = DepartmentRef{Kind: DepartmentRefText, Value: s}
		}
		return nil
	}

	if data[0] != '{' {
		return nil
	}

	var obj struct {
		ID   FlexString `json:"id"`
		Name string     `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	name := strings.TrimSpace(obj.Name)
	switch {
	case obj.ID != "":
		*r = DepartmentRef{Kind: DepartmentRefID, Value: string(obj.ID), Name: name}
	case name != "":
		*r = DepartmentRef{Kind: DepartmentRefName, Value: name}
	}
	return nil
}

// MarshalJSON writes the reference back as a plain string.
func (r DepartmentRef) MarshalJSON() ([]byte, error) {
	if r.Kind == DepartmentRefNone {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// Resolve returns a display name for the reference using the provided
// directory entries. Unknown references fall back to the raw value.
func (r DepartmentRef) Resolve(directory []DisplayDepartment) string {
	switch r.Kind {
	case DepartmentRefNone:
		return ""
	case DepartmentRefName:
		return r.Value
	}

	for _, d := range directory {
		if d.ID == r.Value {
			return d.Name
		}
	}
	if r.Kind == DepartmentRefText {
		for _, d := range directory {
			if strings.EqualFold(d.Name, r.Value) {
				return d.Name
			}
		}
	}
	if r.Name != "" {
		return r.Name
	}
	return r.Value
}
