// Package usecases holds the scenario catalog: a bootstrap unit, thirty
// use cases exercising the target end to end, and a closing status
// snapshot.
package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/resolve"
	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

// Tags used across the catalog.
const (
	TagChat        = "chat"
	TagRAG         = "rag"
	TagTools       = "tools"
	TagSchedules   = "schedules"
	TagModels      = "models"
	TagGateway     = "gateway"
	TagSkills      = "skills"
	TagPersonality = "personality"
	TagCanvas      = "canvas"
	TagSecurity    = "security"
	TagStore       = "store"
	TagStress      = "stress"
)

// Catalog returns uc01 through uc30 in run order.
func Catalog() []scenario.Scenario {
	var list []scenario.Scenario
	list = append(list, setup()...)
	list = append(list, assistants()...)
	list = append(list, governance()...)
	list = append(list, workflows()...)
	list = append(list, operations()...)
	return list
}

// Plan wraps a selection of the catalog with the bootstrap unit and the
// final status snapshot, which always run.
func Plan(selected []scenario.Scenario) []scenario.Scenario {
	plan := make([]scenario.Scenario, 0, len(selected)+2)
	plan = append(plan, Bootstrap())
	plan = append(plan, selected...)
	return append(plan, FinalStatus())
}

// FinalStatus takes the closing status snapshot.
func FinalStatus() scenario.Scenario {
	return scenario.Scenario{
		Name:        "final_status",
		Description: "Closing status snapshot",
		Run: func(ctx context.Context, s *scenario.Session) error {
			_, err := s.JSON(ctx, "status_final", "status", "--format", "json")
			return err
		},
	}
}

func listArgs(noun string) []string {
	return []string{noun, "list", "--format", "json"}
}

// scheduleSteps names the steps of one schedule lifecycle. Verb is a
// format with a single %s for enable, disable or delete.
type scheduleSteps struct {
	Create, List, Verb string
}

// cycleSchedule creates a disabled schedule, finds it by title and walks
// it through enable, disable and delete. A schedule that does not show up
// in the listing is skipped.
func cycleSchedule(ctx context.Context, s *scenario.Session, names scheduleSteps, title string, create []string) error {
	if _, err := s.JSON(ctx, names.Create, create...); err != nil {
		return err
	}
	id, ok, err := s.Entities.Discover(ctx, names.List, listArgs("schedules"), "title", title)
	if err != nil || !ok {
		return err
	}
	for _, verb := range []string{"enable", "disable", "delete"} {
		if _, err := s.Step(ctx, fmt.Sprintf(names.Verb, verb), "schedules", verb, id); err != nil {
			return err
		}
	}
	return nil
}

// scheduleArgs builds a disabled `schedules create` for chatID.
func scheduleArgs(title, prompt, cron, chatID string, extra ...string) []string {
	args := []string{"schedules", "create", "--title", title, "--prompt", prompt, "--cron", cron}
	args = append(args, extra...)
	return append(args, "--chat", chatID, "--disabled", "--format", "json")
}

// indexFile indexes a workspace-relative file for chatID.
func indexFile(ctx context.Context, s *scenario.Session, chatID, rel string) (string, error) {
	return s.Entities.IndexFile(ctx, chatID, s.RC.WorkspacePath(rel))
}

// searchAndClean runs a retrieval query and then deletes the entries ids.
func searchAndClean(ctx context.Context, s *scenario.Session, stepName, chatID, query string, limit int, ids ...string) error {
	if _, err := s.Entities.Search(ctx, stepName, chatID, query, limit); err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Entities.DeleteIndexEntry(ctx, chatID, id); err != nil {
			return err
		}
	}
	return nil
}

// writeWorkspace writes content to a workspace file through the target's
// workspace tool.
func writeWorkspace(ctx context.Context, s *scenario.Session, stepName, rel, content string) error {
	_, err := s.Tool(ctx, stepName, "workspace", map[string]any{"action": "write", "path": rel, "content": content})
	return err
}

func readWorkspace(ctx context.Context, s *scenario.Session, stepName, rel string) error {
	_, err := s.Tool(ctx, stepName, "workspace", map[string]any{"action": "read", "path": rel})
	return err
}

func listWorkspace(ctx context.Context, s *scenario.Session, stepName, rel string, opts ...step.Option) error {
	_, err := s.Exec.RunTool(ctx, s.RC, stepName, "workspace",
		map[string]any{"action": "list", "path": rel, "recursive": false}, opts...)
	return err
}

func canvas(ctx context.Context, s *scenario.Session, stepName string, args map[string]any) (jsonv.Value, error) {
	return s.Tool(ctx, stepName, "canvas", args)
}

func memory(ctx context.Context, s *scenario.Session, stepName, kind, content string, keywords ...string) error {
	_, err := s.Tool(ctx, stepName, "memory", map[string]any{"type": kind, "content": content, "keywords": keywords})
	return err
}

func python(ctx context.Context, s *scenario.Session, stepName, code string, timeout int, opts ...step.Option) error {
	_, err := s.Exec.RunTool(ctx, s.RC, stepName, "python_exec", map[string]any{"code": code, "timeout": timeout}, opts...)
	return err
}

// short is the leading eight characters of an id, used in step names.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// personalityChat opens a chat for personality pid; ok is false when the
// response carries no chat id.
func personalityChat(ctx context.Context, s *scenario.Session, stepName, pid string) (string, bool, error) {
	return s.Entities.OpenPersonalityChat(ctx, stepName, pid)
}

// firstCanvasID returns the id of the first canvas in a listing.
func firstCanvasID(list jsonv.Value) (string, bool) {
	items := list.Items()
	if len(items) == 0 {
		return "", false
	}
	first := jsonv.From([]any{items[0].Raw()})
	return resolve.FirstID(first, "id", "canvas_id")
}

func writeLocal(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
