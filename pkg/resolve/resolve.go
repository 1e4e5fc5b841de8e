// Package resolve determines the identifier of an entity the target just
// created: first from the creation response, then by listing.
package resolve

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

// Resolver is a two-stage identifier lookup.
type Resolver interface {
	// TryExtract reads the id from a creation response.
	TryExtract(resp jsonv.Value) (string, bool)
	// ResolveByListing lists the collection and looks for name.
	ResolveByListing(ctx context.Context, name string) (string, bool, error)
}

// Source says which stage produced an id.
type Source string

const (
	FromResponse Source = "response"
	FromListing  Source = "listing"
)

// Resolve chains r's stages. When both come up empty it returns a
// resolution *step.Failure naming what was sought.
func Resolve(ctx context.Context, r Resolver, resp jsonv.Value, kind, name string) (string, Source, error) {
	if id, ok := r.TryExtract(resp); ok {
		return id, FromResponse, nil
	}
	id, ok, err := r.ResolveByListing(ctx, name)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", step.Resolutionf("Could not determine %s id for %q.", kind, name)
	}
	return id, FromListing, nil
}

// ExtractUUID returns the last whitespace-separated token of text that
// parses as a UUID.
func ExtractUUID(text string) (string, bool) {
	fields := strings.Fields(text)
	for i := len(fields) - 1; i >= 0; i-- {
		if err := uuid.Validate(fields[i]); err == nil {
			return fields[i], true
		}
	}
	return "", false
}

// IDOrMessage is the common first stage: a non-empty "id" member, else a
// UUID inside the "message" member.
func IDOrMessage(resp jsonv.Value) (string, bool) {
	if id, ok := resp.Str("id"); ok && id != "" {
		return id, true
	}
	if msg, ok := resp.Str("message"); ok {
		return ExtractUUID(msg)
	}
	return "", false
}

// FindID scans a listing for the first object whose field equals value and
// returns its "id".
func FindID(list jsonv.Value, field, value string) (string, bool) {
	obj, ok := list.FindObject(field, value)
	if !ok {
		return "", false
	}
	id, ok := obj.Str("id")
	return id, ok && id != ""
}

// FirstID returns the id of the first object in a listing, accepting any of
// keys in order.
func FirstID(list jsonv.Value, keys ...string) (string, bool) {
	for _, item := range list.Items() {
		if item.Kind() != jsonv.Object {
			continue
		}
		for _, k := range keys {
			if id, ok := item.Str(k); ok && id != "" {
				return id, true
			}
		}
	}
	return "", false
}

// Func adapts plain functions to Resolver.
type Func struct {
	Extract func(resp jsonv.Value) (string, bool)
	List    func(ctx context.Context, name string) (string, bool, error)
}

func (f Func) TryExtract(resp jsonv.Value) (string, bool) {
	if f.Extract == nil {
		return "", false
	}
	return f.Extract(resp)
}

func (f Func) ResolveByListing(ctx context.Context, name string) (string, bool, error) {
	if f.List == nil {
		return "", false, nil
	}
	return f.List(ctx, name)
}
