package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/yukikurage/field-service-api/internal/services"
)

var ErrPatchNotObject = errors.New("request body must be a JSON object")

// fields is a decoded JSON object where a missing key and a null value
// stay distinguishable.
type fields struct {
	raw     map[string]json.RawMessage
	invalid []services.FieldError
}

func decodeFields(body []byte) (*fields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, ErrPatchNotObject
	}
	return &fields{raw: raw}, nil
}

func (f *fields) keys() []string {
	keys := make([]string, 0, len(f.raw))
	for key := range f.raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (f *fields) has(key string) bool {
	_, ok := f.raw[key]
	return ok
}

func (f *fields) null(key string) bool {
	value, ok := f.raw[key]
	return ok && bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

// str returns the string value of key, or nil when absent, null or not a
// string. The last case is recorded as invalid.
func (f *fields) str(key string) *string {
	if !f.has(key) || f.null(key) {
		return nil
	}
	var s string
	if err := json.Unmarshal(f.raw[key], &s); err != nil {
		f.fail(key, key+" must be a string")
		return nil
	}
	return &s
}

// required is str for keys that cannot be cleared.
func (f *fields) required(key string) *string {
	if f.null(key) {
		f.fail(key, key+" cannot be null")
		return nil
	}
	return f.str(key)
}

func (f *fields) fail(key, message string) {
	f.invalid = append(f.invalid, services.FieldError{Field: key, Message: message})
}

func (f *fields) err() error {
	if len(f.invalid) == 0 {
		return nil
	}
	return &services.ValidationError{Fields: f.invalid}
}

// ParseJobPatch decodes a job update body. Keys lists every key sent.
// Values of the wrong type end up in Invalid rather than failing, so the
// access check still sees every key first.
func ParseJobPatch(body []byte) (services.JobPatch, error) {
	f, err := decodeFields(body)
	if err != nil {
		return services.JobPatch{}, err
	}

	patch := services.JobPatch{
		Keys:                f.keys(),
		CustomerID:          f.required("customerId"),
		StatusID:            f.required("statusId"),
		Title:               f.required("title"),
		Description:         f.str("description"),
		ClearDescription:    f.null("description"),
		AssignedWorkerID:    f.str("assignedWorkerId"),
		ClearAssignedWorker: f.null("assignedWorkerId"),
		ClearScheduledDate:  f.null("scheduledDate"),
	}

	if s := f.str("scheduledDate"); s != nil {
		if strings.TrimSpace(*s) == "" {
			patch.ClearScheduledDate = true
		} else if t, err := ParseDate(*s); err != nil {
			f.fail("scheduledDate", "scheduledDate must be a valid date")
		} else {
			patch.ScheduledDate = &t
		}
	}

	patch.Invalid = f.invalid
	return patch, nil
}

// ParseCustomerPatch decodes a customer update body
func ParseCustomerPatch(body []byte) (services.CustomerInput, error) {
	f, err := decodeFields(body)
	if err != nil {
		return services.CustomerInput{}, err
	}

	input := services.CustomerInput{
		Name:         f.required("name"),
		Email:        f.str("email"),
		Phone:        f.str("phone"),
		Address:      f.str("address"),
		ClearEmail:   f.null("email"),
		ClearPhone:   f.null("phone"),
		ClearAddress: f.null("address"),
	}
	return input, f.err()
}

// ParseTaskPatch decodes a task update body
func ParseTaskPatch(body []byte) (services.UpdateTaskInput, error) {
	f, err := decodeFields(body)
	if err != nil {
		return services.UpdateTaskInput{}, err
	}

	input := services.UpdateTaskInput{
		Title:            f.required("title"),
		Description:      f.str("description"),
		ClearDescription: f.null("description"),
	}
	return input, f.err()
}
