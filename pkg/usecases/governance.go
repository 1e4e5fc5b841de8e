package usecases

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

func governance() []scenario.Scenario {
	return []scenario.Scenario{
		{Name: "uc17", Description: "OpenAPI contract audit", Tags: []string{TagRAG, TagChat, TagTools}, Run: uc17},
		{Name: "uc18", Description: "Tool gating: deny, then allow", Tags: []string{TagSecurity, TagTools, TagChat}, Run: uc18},
		{Name: "uc19", Description: "Canvas documentation workflow", Tags: []string{TagCanvas, TagChat}, Run: uc19},
		{Name: "uc20", Description: "Churn: personalities, chats and schedules created and removed", Tags: []string{TagStress, TagPersonality, TagChat, TagSchedules}, Run: uc20},
	}
}

// SummarizeOpenAPI describes the contract at path by its number of paths.
func SummarizeOpenAPI(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "openapi/openapi.json missing"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("failed to parse openapi/openapi.json: %v", err)
	}
	doc, err := jsonv.Parse(data)
	if err != nil {
		return fmt.Sprintf("failed to parse openapi/openapi.json: %v", err)
	}
	paths := doc.Field("paths")
	n := len(paths.Keys())
	if paths.Kind() == jsonv.Array {
		n = len(paths.Items())
	}
	return fmt.Sprintf("paths=%d", n)
}

func uc17(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc17-openapi-audit")
	if err != nil {
		return err
	}
	summary := SummarizeOpenAPI(s.RC.WorkspacePath("openapi", "openapi.json"))
	const report = ".codex-uc17-openapi-report.txt"
	if err := writeWorkspace(ctx, s, "uc17_ws_write_report", report, "UC17 OpenAPI audit summary: "+summary+"\n"); err != nil {
		return err
	}
	id, err := indexFile(ctx, s, chat, report)
	if err != nil {
		return err
	}
	if _, err := s.Entities.Search(ctx, "rag_search_uc17", chat, "OpenAPI", 5); err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc17", chat,
		"Explain why OpenAPI-first matters and list 5 failure modes when openapi.json drifts."); err != nil {
		return err
	}
	return s.Entities.DeleteIndexEntry(ctx, chat, id)
}

// withAccess prefixes args with the global --tool-access flag.
func withAccess(mode string, args ...string) []string {
	return append([]string{"--tool-access", mode}, args...)
}

func uc18(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc18-security")
	if err != nil {
		return err
	}
	if _, err := s.TryJSON(ctx, "uc18_chat_send_denied_tools", withAccess("deny",
		scenario.SendArgs(chat, "Use web search to find OpenClaw cron docs.", "--tools", "browser.search")...)...); err != nil {
		return err
	}
	denied, err := step.ToolArgs("browser.search", map[string]any{"query": "OpenClaw cron jobs", "resultCount": 2})
	if err != nil {
		return err
	}
	if _, err := s.TryJSON(ctx, "uc18_tools_run_denied", withAccess("deny", denied...)...); err != nil {
		return err
	}
	allowed, err := step.ToolArgs("browser.search", map[string]any{"query": "OpenClaw use cases", "resultCount": 2})
	if err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "uc18_tools_run_allowed", withAccess("allow", allowed...)...); err != nil {
		return err
	}
	_, err = s.JSON(ctx, "uc18_chat_send_allowed", withAccess("allow",
		scenario.SendArgs(chat, "Operate with tools allowed but do not call any tools. Provide a security checklist.")...)...)
	return err
}

func uc19(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc19-canvas")
	if err != nil {
		return err
	}
	if _, err := canvas(ctx, s, "uc19_canvas_create", map[string]any{
		"action": "create", "chat_id": chat, "title": "Spec Draft", "content": "Initial spec stub.",
	}); err != nil {
		return err
	}
	for i, section := range []string{"Section 1: Goals.", "Section 2: Non-goals."} {
		if _, err := canvas(ctx, s, fmt.Sprintf("uc19_canvas_append_%d", i+1), map[string]any{
			"action": "append", "chat_id": chat, "content": section,
		}); err != nil {
			return err
		}
	}
	list, err := canvas(ctx, s, "uc19_canvas_list", map[string]any{"action": "list", "chat_id": chat})
	if err != nil {
		return err
	}
	if cid, ok := firstCanvasID(list); ok {
		get := map[string]any{"action": "get", "chat_id": chat, "canvas_id": cid}
		if _, err := canvas(ctx, s, "uc19_canvas_get", get); err != nil {
			return err
		}
		if _, err := canvas(ctx, s, "uc19_canvas_update", map[string]any{
			"action": "update", "chat_id": chat, "canvas_id": cid,
			"content": "Updated spec: Goals/Non-goals + Acceptance criteria.",
		}); err != nil {
			return err
		}
		got, err := canvas(ctx, s, "uc19_canvas_get2", get)
		if err != nil {
			return err
		}
		if err := writeWorkspace(ctx, s, "uc19_ws_write_canvas", ".codex-uc19-canvas.md", got.Pretty()); err != nil {
			return err
		}
	} else {
		s.Log.Infof("uc19: canvas listing has no id, skipping get/update")
	}
	_, err = s.Send(ctx, "chat_send_uc19", chat, "Summarize the current canvas into 5 bullet acceptance criteria.")
	return err
}

func uc20(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc20-stress")
	if err != nil {
		return err
	}
	var pids, chats []string
	for i := 1; i <= 5; i++ {
		pid, err := s.Entities.CreatePersonality(ctx, fmt.Sprintf("uc20-personality-%d", i), "productivity")
		if err != nil {
			return err
		}
		pids = append(pids, pid)
		cid, ok, err := personalityChat(ctx, s, fmt.Sprintf("uc20_personality_chat_%d", i), pid)
		if err != nil {
			return err
		}
		if ok {
			chats = append(chats, cid)
		}
	}
	if _, err := s.JSON(ctx, "uc20_chat_list_1", listArgs("chat")...); err != nil {
		return err
	}
	for _, cid := range chats[:min(3, len(chats))] {
		tag := short(cid)
		if _, err := s.JSON(ctx, "uc20_chat_get_"+tag, "chat", "get", cid, "--format", "json"); err != nil {
			return err
		}
		if _, err := s.Step(ctx, "uc20_chat_rename_"+tag, "chat", "rename", "--session", cid, "uc20-renamed-"+tag); err != nil {
			return err
		}
		if _, err := s.JSON(ctx, "uc20_chat_history_"+tag, "chat", "history", "--session", cid, "--format", "json"); err != nil {
			return err
		}
	}

	const title = "uc20 temp"
	if err := cycleSchedule(ctx, s, scheduleSteps{"uc20_schedule_create", "uc20_schedules_list", "uc20_schedule_%s"}, title, scheduleArgs(title, "temp", "*/30 * * * *", chat)); err != nil {
		return err
	}

	// Deleting a personality also removes its chat, so only the first chat
	// is deleted explicitly and the first personality is kept.
	if len(chats) > 0 {
		if _, err := s.Step(ctx, "uc20_chat_delete_"+short(chats[0]), "chat", "delete", "--session", chats[0]); err != nil {
			return err
		}
	}
	for _, pid := range pids[1:] {
		if _, err := s.Step(ctx, "uc20_personality_delete_"+short(pid), "personality", "delete", pid); err != nil {
			return err
		}
	}
	_, err = s.JSON(ctx, "uc20_chat_list_2", listArgs("chat")...)
	return err
}
