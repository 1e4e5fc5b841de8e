package usecases

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/step"
	"github.com/ormasoftchile/thinkuc/pkg/store"
)

// IsolatedStore is the store uc27 resets and repopulates.
const IsolatedStore = "codex-uc27"

// Gateway settings for the remote-model lifecycle.
const (
	lifecyclePort  = 9999
	lifecycleToken = "uc26-token"
)

func operations() []scenario.Scenario {
	return []scenario.Scenario{
		{Name: "uc26", Description: "Gateway resilience and remote model lifecycle", Tags: []string{TagGateway, TagModels}, Run: uc26},
		{Name: "uc27", Description: "Isolated store reset smoke test", Tags: []string{TagStore, TagSkills}, Run: uc27},
		{Name: "uc28", Description: "json-lines streaming output is parseable", Tags: []string{TagChat}, Run: uc28},
		{Name: "uc29", Description: "Tool inventory and minimal executions", Tags: []string{TagTools, TagCanvas}, Run: uc29},
		{Name: "uc30", Description: "Operational controls and listings", Tags: []string{TagChat, TagPersonality, TagSkills}, Run: uc30},
	}
}

func uc26(ctx context.Context, s *scenario.Session) error {
	port := fmt.Sprint(lifecyclePort)
	if _, err := s.Step(ctx, "uc26_gateway_start_once", "gateway", "start", "--once", "--port", port, "--token", lifecycleToken); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "uc26_gateway_status", "gateway", "status", "--format", "json"); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "uc26_models_add_remote",
		"models", "add-remote", "--name", "uc26-remote", "--location", "http://localhost:"+port,
		"--type", "language", "--format", "json"); err != nil {
		return err
	}
	id, ok, err := s.Entities.Discover(ctx, "uc26_models_list", listArgs("models"), "name", "uc26-remote")
	if err != nil || !ok {
		return err
	}
	if _, err := s.JSON(ctx, "uc26_models_info", "models", "info", id, "--format", "json"); err != nil {
		return err
	}
	_, err = s.JSON(ctx, "uc26_models_remove", "models", "remove", id, "--format", "json")
	return err
}

func uc27(ctx context.Context, s *scenario.Session) error {
	iso := s.WithStore(IsolatedStore)
	store.Reset(s.Config.SupportRoot, IsolatedStore)

	if _, err := iso.TryJSON(ctx, "uc27_store_path", "store", "path", "--format", "json"); err != nil {
		return err
	}
	if _, err := iso.JSON(ctx, "uc27_status_pre_reset", "status", "--format", "json"); err != nil {
		return err
	}
	skill, err := iso.Entities.CreateSkill(ctx, "uc27-skill", []string{"workspace"},
		"UC27 smoke skill for testing store reset behavior.")
	if err != nil {
		return err
	}
	if _, err := iso.Step(ctx, "uc27_skill_enable", "skills", "enable", skill); err != nil {
		return err
	}
	if _, err := iso.JSON(ctx, "uc27_skills_list_pre_reset", listArgs("skills")...); err != nil {
		return err
	}
	if _, err := iso.TryJSON(ctx, "uc27_store_reset_dry", "store", "reset", "--dry-run", "--format", "json"); err != nil {
		return err
	}
	if _, err := iso.TryJSON(ctx, "uc27_store_reset", "store", "reset", "--format", "json"); err != nil {
		return err
	}
	if _, err := iso.JSON(ctx, "uc27_status_post_reset", "status", "--format", "json"); err != nil {
		return err
	}
	_, err = iso.JSON(ctx, "uc27_skills_list_post_reset", listArgs("skills")...)
	return err
}

func uc28(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc28-jsonlines")
	if err != nil {
		return err
	}
	res, err := s.Step(ctx, "uc28_chat_send_json_lines",
		"chat", "send", "--session", chat, "--prompt", "Output two short paragraphs.", "--format", "json-lines")
	if err != nil {
		return err
	}
	// Progress noise between records is tolerated.
	if jsonv.CountLines(res.Stdout) < 1 {
		return step.Checkf("uc28 expected at least one parseable json-lines object in stdout")
	}
	return nil
}

func uc29(ctx context.Context, s *scenario.Session) error {
	tools, err := s.JSON(ctx, "uc29_tools_list", listArgs("tools")...)
	if err != nil {
		return err
	}
	if err := listWorkspace(ctx, s, "uc29_ws_list_root", "."); err != nil {
		return err
	}
	if err := python(ctx, s, "uc29_py_smoke", "print('py_ok')", 10); err != nil {
		return err
	}
	if _, err := s.Tool(ctx, "uc29_memory_smoke", "memory", map[string]any{
		"type": "shortTerm", "content": "UC29 tool smoke", "keywords": []string{"uc29", "smoke"},
	}); err != nil {
		return err
	}
	chat, err := s.Entities.CreateChat(ctx, "uc29-canvas")
	if err != nil {
		return err
	}
	if _, err := canvas(ctx, s, "uc29_canvas_smoke", map[string]any{
		"action": "create", "chat_id": chat, "title": "UC29", "content": "tool belt",
	}); err != nil {
		return err
	}
	if _, err := s.TryTool(ctx, "uc29_weather_smoke", "weather",
		map[string]any{"location": "San Francisco, CA", "days": 1}); err != nil {
		return err
	}
	if _, err := s.TryTool(ctx, "uc29_browser_search_smoke", "browser.search",
		map[string]any{"query": "OpenClaw workflows", "resultCount": 1}); err != nil {
		return err
	}
	if tools.Kind() != jsonv.Array {
		return step.Checkf("uc29 tools list did not return a list")
	}
	return nil
}

func uc30(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc30-ops")
	if err != nil {
		return err
	}
	if _, err := s.Send(ctx, "uc30_chat_send", chat, "Provide 3 operational tips for running long ThinkCLI sessions."); err != nil {
		return err
	}
	if _, err := s.Step(ctx, "uc30_chat_stop", "chat", "stop", "--session", chat); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "uc30_status", "status", "--format", "json"); err != nil {
		return err
	}
	for _, noun := range []string{"chat", "personality", "skills"} {
		if _, err := s.JSON(ctx, "uc30_"+noun+"_list", listArgs(noun)...); err != nil {
			return err
		}
	}
	return nil
}
