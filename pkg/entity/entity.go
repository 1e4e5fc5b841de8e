// Package entity creates and cleans up the target's entities (chats,
// skills, personalities, knowledge-index entries) and resolves their ids.
package entity

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/log"
	"github.com/ormasoftchile/thinkuc/pkg/resolve"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

// Helpers binds an executor to an execution context.
type Helpers struct {
	Exec *step.Executor
	RC   runctx.Context

	log log.Logger
}

// New returns Helpers for rc.
func New(exec *step.Executor, rc runctx.Context) *Helpers {
	return &Helpers{Exec: exec, RC: rc, log: log.Named("entity")}
}

// WithContext returns Helpers sharing the executor but targeting rc.
func (h *Helpers) WithContext(rc runctx.Context) *Helpers {
	return &Helpers{Exec: h.Exec, RC: rc, log: h.log}
}

// collection describes how an entity kind is listed.
type collection struct {
	kind     string
	listStep string
	listArgs []string
	match    string
}

var (
	chats         = collection{kind: "chat", listStep: "chat_list", listArgs: []string{"chat", "list", "--format", "json"}, match: "title"}
	skills        = collection{kind: "skill", listStep: "skills_list", listArgs: []string{"skills", "list", "--format", "json"}, match: "name"}
	personalities = collection{kind: "personality", listStep: "personality_list", listArgs: []string{"personality", "list", "--format", "json"}, match: "name"}
)

func (h *Helpers) resolver(c collection) resolve.Resolver {
	return resolve.Func{
		Extract: resolve.IDOrMessage,
		List: func(ctx context.Context, name string) (string, bool, error) {
			return h.Discover(ctx, c.listStep, c.listArgs, c.match, name)
		},
	}
}

func (h *Helpers) create(ctx context.Context, c collection, stepName, name string, args []string) (string, error) {
	res, err := h.Exec.Run(ctx, h.RC, stepName, args, step.JSON())
	if err != nil {
		return "", err
	}
	id, src, err := resolve.Resolve(ctx, h.resolver(c), res.JSON, c.kind, name)
	if err != nil {
		return "", err
	}
	h.log.Debugf("%s %q -> %s (from %s)", c.kind, name, id, src)
	if err := h.Exec.Trace.EmitEntityResolved(c.kind, name, id, string(src)); err != nil {
		h.log.Warnf("trace: %v", err)
	}
	return id, nil
}

// Discover lists a collection and returns the "id" of the first object whose
// field equals value. A listing that is not an array yields no match.
func (h *Helpers) Discover(ctx context.Context, stepName string, listArgs []string, field, value string) (string, bool, error) {
	res, err := h.Exec.Run(ctx, h.RC, stepName, listArgs, step.JSON())
	if err != nil {
		return "", false, err
	}
	id, ok := resolve.FindID(res.JSON, field, value)
	return id, ok, nil
}

// CreateChat creates a chat titled title and returns its id.
func (h *Helpers) CreateChat(ctx context.Context, title string) (string, error) {
	return h.create(ctx, chats, "chat_create", title,
		[]string{"chat", "create", "--title", title, "--format", "json"})
}

// CreateSkill creates a skill allowed to use tools.
func (h *Helpers) CreateSkill(ctx context.Context, name string, tools []string, instructions string) (string, error) {
	args := []string{
		"skills", "create",
		"--name", name,
		"--description", "autogen:" + name,
		"--instructions", instructions,
		"--format", "json",
	}
	for _, t := range tools {
		args = append(args, "--tools", t)
	}
	return h.create(ctx, skills, "skill_create_"+name, name, args)
}

// PersonalityInstructions is the instruction text given to generated
// personalities.
func PersonalityInstructions(name string) string {
	return fmt.Sprintf("You are %s. Keep outputs structured and actionable.", name)
}

// CreatePersonality creates a personality in category.
func (h *Helpers) CreatePersonality(ctx context.Context, name, category string) (string, error) {
	return h.create(ctx, personalities, "personality_create_"+name, name, []string{
		"personality", "create",
		"--name", name,
		"--description", "autogen:" + name,
		"--instructions", PersonalityInstructions(name),
		"--category", category,
		"--format", "json",
	})
}

// OpenPersonalityChat opens a chat bound to personality pid. The chat id is
// read from the response message; ok is false when none is present.
func (h *Helpers) OpenPersonalityChat(ctx context.Context, stepName, pid string) (string, bool, error) {
	res, err := h.Exec.Run(ctx, h.RC, stepName, []string{"personality", "chat", pid, "--format", "json"}, step.JSON())
	if err != nil {
		return "", false, err
	}
	msg, ok := res.JSON.Str("message")
	if !ok {
		return "", false, nil
	}
	id, ok := resolve.ExtractUUID(msg)
	return id, ok, nil
}

// NewContentID returns a fresh upper-case UUID for a knowledge-index entry.
func NewContentID() string {
	return strings.ToUpper(uuid.NewString())
}

// IndexFile indexes the file at path for chatID and returns the entry id.
func (h *Helpers) IndexFile(ctx context.Context, chatID, path string) (string, error) {
	id := NewContentID()
	_, err := h.Exec.Run(ctx, h.RC, "rag_index_"+filepath.Base(path),
		[]string{"rag", "index", "--chat", chatID, "--id", id, "--file", path})
	if err != nil {
		return "", err
	}
	return id, nil
}

// IndexText indexes literal text for chatID and returns the entry id.
func (h *Helpers) IndexText(ctx context.Context, chatID, text string) (string, error) {
	id := NewContentID()
	_, err := h.Exec.Run(ctx, h.RC, "rag_index_text",
		[]string{"rag", "index", "--chat", chatID, "--id", id, "--text", text})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteIndexEntry removes an entry this run created.
func (h *Helpers) DeleteIndexEntry(ctx context.Context, chatID, id string) error {
	_, err := h.Exec.Run(ctx, h.RC, "rag_delete_"+id, []string{"rag", "delete", "--chat", chatID, id})
	return err
}

// Search runs a retrieval query scoped to chatID.
func (h *Helpers) Search(ctx context.Context, stepName, chatID, query string, limit int) (jsonv.Value, error) {
	res, err := h.Exec.Run(ctx, h.RC, stepName, []string{
		"rag", "search", "--chat", chatID, "--query", query, "--limit", fmt.Sprint(limit), "--format", "json",
	}, step.JSON())
	if err != nil {
		return jsonv.Value{}, err
	}
	return res.JSON, nil
}
