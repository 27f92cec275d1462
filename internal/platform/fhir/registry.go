package fhir

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntryResult is the outcome of a single resource operation executed on
// behalf of a Bundle entry.
type EntryResult struct {
	Resource     interface{} // converted FHIR resource; nil after a delete
	ResourceType string
	ID           string
	Version      int
	LastModified time.Time
	Created      bool
}

// ResourceHandler executes Bundle entry operations for one resource type.
// Domain packages implement it over their converter, service, and
// repository; the registry gives the Bundle processor compile-time-checked
// dispatch instead of a resourceType switch.
type ResourceHandler interface {
	CreateEntry(ctx context.Context, resource json.RawMessage) (*EntryResult, error)
	ReadEntry(ctx context.Context, id string) (*EntryResult, error)
	UpdateEntry(ctx context.Context, id string, resource json.RawMessage) (*EntryResult, error)
	DeleteEntry(ctx context.Context, id string) (*EntryResult, error)
}

// Interactions flags which entry operations a registration accepts. An
// operation outside the declared set fails as invalid, surfaced per the
// Bundle's atomicity mode.
type Interactions struct {
	Create bool
	Read   bool
	Update bool
	Delete bool
}

type registration struct {
	handler ResourceHandler
	ops     Interactions
}

// Registry maps resource types to their Bundle entry handlers.
type Registry struct {
	entries map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

func (r *Registry) Register(resourceType string, h ResourceHandler, ops Interactions) {
	r.entries[resourceType] = registration{handler: h, ops: ops}
}

// Dispatch resolves a Bundle entry request to the registered handler and
// renders the response entry.
func (r *Registry) Dispatch(ctx context.Context, method, entryURL string, resource json.RawMessage) (BundleEntry, error) {
	resourceType, id := ParseEntryURL(entryURL)
	reg, ok := r.entries[resourceType]
	if !ok {
		return BundleEntry{}, fmt.Errorf("%w: unsupported resource type %q", ErrInvalid, resourceType)
	}

	var (
		result *EntryResult
		err    error
	)
	switch strings.ToUpper(method) {
	case "POST":
		if !reg.ops.Create {
			return BundleEntry{}, fmt.Errorf("%w: create is not supported for %s entries", ErrInvalid, resourceType)
		}
		result, err = reg.handler.CreateEntry(ctx, resource)
	case "GET":
		if !reg.ops.Read {
			return BundleEntry{}, fmt.Errorf("%w: read is not supported for %s entries", ErrInvalid, resourceType)
		}
		if id == "" {
			return BundleEntry{}, fmt.Errorf("%w: read entries require %s/{id}", ErrInvalid, resourceType)
		}
		result, err = reg.handler.ReadEntry(ctx, id)
	case "PUT":
		if !reg.ops.Update {
			return BundleEntry{}, fmt.Errorf("%w: update is not supported for %s entries", ErrInvalid, resourceType)
		}
		if id == "" {
			return BundleEntry{}, fmt.Errorf("%w: update entries require %s/{id}", ErrInvalid, resourceType)
		}
		result, err = reg.handler.UpdateEntry(ctx, id, resource)
	case "DELETE":
		if !reg.ops.Delete {
			return BundleEntry{}, fmt.Errorf("%w: delete is not supported for %s entries", ErrInvalid, resourceType)
		}
		if id == "" {
			return BundleEntry{}, fmt.Errorf("%w: delete entries require %s/{id}", ErrInvalid, resourceType)
		}
		result, err = reg.handler.DeleteEntry(ctx, id)
	default:
		return BundleEntry{}, fmt.Errorf("%w: unsupported method %q", ErrInvalid, method)
	}
	if err != nil {
		return BundleEntry{}, err
	}

	return entryFromResult(method, result), nil
}

// ParseEntryURL splits a Bundle entry request URL into resource type and
// optional id; query strings are dropped.
func ParseEntryURL(entryURL string) (resourceType, id string) {
	entryURL = strings.TrimPrefix(entryURL, "/")
	if idx := strings.Index(entryURL, "?"); idx >= 0 {
		entryURL = entryURL[:idx]
	}
	parts := strings.SplitN(entryURL, "/", 3)
	resourceType = parts[0]
	if len(parts) >= 2 {
		id = parts[1]
	}
	return resourceType, id
}

func entryFromResult(method string, result *EntryResult) BundleEntry {
	lastMod := result.LastModified.UTC()
	resp := &BundleResponse{
		LastModified: &lastMod,
	}

	switch strings.ToUpper(method) {
	case "POST":
		resp.Status = "201 Created"
		resp.Location = FormatReference(result.ResourceType, result.ID)
	case "DELETE":
		resp.Status = "204 No Content"
	default:
		resp.Status = "200 OK"
		resp.Location = FormatReference(result.ResourceType, result.ID)
	}
	if result.Version > 0 {
		resp.ETag = FormatETag(result.Version)
	}

	entry := BundleEntry{Response: resp}
	if result.Resource != nil {
		raw, err := json.Marshal(result.Resource)
		if err == nil {
			entry.Resource = raw
		}
	}
	return entry
}
