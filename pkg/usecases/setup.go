package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ormasoftchile/thinkuc/pkg/scenario"
)

func setup() []scenario.Scenario {
	return []scenario.Scenario{
		{Name: "uc01", Description: "Bootstrap check: chat, retrieval, one-shot gateway", Tags: []string{TagChat, TagRAG, TagGateway}, Run: uc01},
		{Name: "uc02", Description: "Retrieval-backed repo audit with the workspace tool", Tags: []string{TagChat, TagRAG, TagTools}, Run: uc02},
		{Name: "uc03", Description: "Zero-trust: tool access denied", Tags: []string{TagChat, TagSecurity}, Run: uc03},
		{Name: "uc04", Description: "Local model registration and skill config set/clear", Tags: []string{TagModels, TagSkills}, Run: uc04},
		{Name: "uc05", Description: "Image generation and an image schedule lifecycle", Tags: []string{TagChat, TagSchedules}, Run: uc05},
		{Name: "uc06", Description: "Incident runbook with retrieval and a pulse schedule", Tags: []string{TagChat, TagRAG, TagSchedules}, Run: uc06},
		{Name: "uc07", Description: "Gateway with token and a remote model reference", Tags: []string{TagGateway, TagModels}, Run: uc07},
		{Name: "uc08", Description: "Skill-driven engineering assistant", Tags: []string{TagSkills, TagChat, TagTools}, Run: uc08},
		{Name: "uc09", Description: "Daily briefing schedule backed by retrieval", Tags: []string{TagChat, TagRAG, TagSchedules}, Run: uc09},
		{Name: "uc10", Description: "Personality panel and synthesis chat", Tags: []string{TagPersonality, TagChat, TagRAG}, Run: uc10},
	}
}

func uc01(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc1-bootstrap")
	if err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc1", chat, "Confirm setup; summarize config."); err != nil {
		return err
	}
	agents, err := indexFile(ctx, s, chat, "AGENTS.md")
	if err != nil {
		return err
	}
	note, err := s.Entities.IndexText(ctx, chat, "OpenAPI workflow is critical; never edit openapi/openapi.json manually.")
	if err != nil {
		return err
	}
	if _, err := s.Entities.Search(ctx, "rag_search_uc1", chat, "OpenAPI workflow", 3); err != nil {
		return err
	}
	port := strconv.Itoa(s.Config.GatewayPorts.Local)
	if _, err := s.Step(ctx, "gateway_start_once", "gateway", "start", "--once", "--port", port); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "gateway_status", "gateway", "status", "--format", "json"); err != nil {
		return err
	}
	for _, id := range []string{agents, note} {
		if err := s.Entities.DeleteIndexEntry(ctx, chat, id); err != nil {
			return err
		}
	}
	return nil
}

func uc02(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc2-audit")
	if err != nil {
		return err
	}
	var ids []string
	for _, doc := range []string{"AGENTS.md", "CLAUDE.md"} {
		id, err := indexFile(ctx, s, chat, doc)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if _, err := s.JSON(ctx, "tools_list_uc2", listArgs("tools")...); err != nil {
		return err
	}
	if err := listWorkspace(ctx, s, "tools_run_workspace_list", "."); err != nil {
		return err
	}
	if err := readWorkspace(ctx, s, "tools_run_workspace_read_agents", "AGENTS.md"); err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc2", chat, "Using the indexed docs, propose a repo audit checklist."); err != nil {
		return err
	}
	return searchAndClean(ctx, s, "rag_search_uc2", chat, "OpenAPI", 5, ids...)
}

func uc03(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc3-zero-trust")
	if err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "status_deny", "status", "--tool-access", "deny", "--format", "json"); err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc3_no_tools", chat, "Operate without tools. Explain limitations.", "--no-tools"); err != nil {
		return err
	}
	// Requesting a tool under deny is expected to fail.
	_, err = s.TryJSON(ctx, "chat_send_uc3_expect_denied",
		"chat", "send", "--session", chat, "--prompt", "Try to use a tool.",
		"--tools", "workspace", "--no-stream", "--tool-access", "deny", "--format", "json")
	return err
}

func uc04(ctx context.Context, s *scenario.Session) error {
	dummy := s.RC.LogPath("dummy.model")
	if err := writeLocal(dummy, "dummy"); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "models_add_local_dummy",
		"models", "add-local", "--name", "dummy-local", "--path", dummy,
		"--backend", "mlx", "--type", "language", "--format", "json"); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "models_list_uc4", listArgs("models")...); err != nil {
		return err
	}
	if _, err := s.TryJSON(ctx, "config_set_skills_empty", "config", "set", "--skills", "nonexistent-skill", "--format", "json"); err != nil {
		return err
	}
	_, err := s.JSON(ctx, "config_clear_skills", "config", "set", "--clear-skills", "--format", "json")
	return err
}

func uc05(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc5-image")
	if err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_image", chat, "Generate a simple abstract image prompt.", "--image"); err != nil {
		return err
	}
	const title = "uc5 nightly image"
	return cycleSchedule(ctx, s, scheduleSteps{"schedule_create_img", "schedules_list_uc5", "schedule_%s_uc5"}, title,
		scheduleArgs(title, "Generate an image for testing.", "0 2 * * *", chat, "--action", "image"))
}

func uc06(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc6-incident")
	if err != nil {
		return err
	}
	if _, err := s.Step(ctx, "chat_rename_uc6", "chat", "rename", "--session", chat, "incident-uc6"); err != nil {
		return err
	}
	id, err := s.Entities.IndexText(ctx, chat, "ERROR timeout contacting upstream service X")
	if err != nil {
		return err
	}
	if _, err := s.Entities.Search(ctx, "rag_search_uc6", chat, "timeout", 5); err != nil {
		return err
	}
	const title = "uc6 pulse"
	if err := cycleSchedule(ctx, s, scheduleSteps{"schedule_create_pulse", "schedules_list_uc6", "schedule_%s_uc6"}, title,
		scheduleArgs(title, "Summarize incident context and propose next checks.", "*/15 * * * *", chat)); err != nil {
		return err
	}
	return s.Entities.DeleteIndexEntry(ctx, chat, id)
}

func uc07(ctx context.Context, s *scenario.Session) error {
	port := strconv.Itoa(s.Config.GatewayPorts.Remote)
	if _, err := s.Step(ctx, "gateway_start_once_uc7",
		"gateway", "start", "--once", "--port", port, "--token", s.Config.GatewayToken); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "models_add_remote_gateway",
		"models", "add-remote", "--name", "team-gateway", "--location", fmt.Sprintf("http://localhost:%s", port),
		"--type", "language", "--format", "json"); err != nil {
		return err
	}
	_, err := s.JSON(ctx, "models_list_uc7", listArgs("models")...)
	return err
}

func uc08(ctx context.Context, s *scenario.Session) error {
	skill, err := s.Entities.CreateSkill(ctx, "eng-implementer", []string{"workspace", "python_exec"},
		"When asked to change code: inspect files, propose minimal diffs, and request tests.")
	if err != nil {
		return err
	}
	if _, err := s.Step(ctx, "skill8_enable", "skills", "enable", skill); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "config_set_skill8", "config", "set", "--skills", "eng-implementer", "--format", "json"); err != nil {
		return err
	}
	chat, err := s.Entities.CreateChat(ctx, "uc8-eng")
	if err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc8", chat, "List 3 potential improvements to AGENTS.md style guidelines."); err != nil {
		return err
	}
	return python(ctx, s, "tools_run_python_exec", "print('ok')", 30)
}

func uc09(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc9-daily")
	if err != nil {
		return err
	}
	id, err := indexFile(ctx, s, chat, "AGENTS.md")
	if err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc9", chat, "Generate a daily briefing skeleton using the indexed guidelines."); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "schedule_create_daily",
		scheduleArgs("uc9 daily briefing", "Generate daily briefing.", "0 9 * * 1-5", chat)...); err != nil {
		return err
	}
	return s.Entities.DeleteIndexEntry(ctx, chat, id)
}

func uc10(ctx context.Context, s *scenario.Session) error {
	type member struct{ name, step, prompt string }
	panel := []member{
		{"panel-optimist", "personality_chat_opt", "Argue for shipping quickly; propose plan."},
		{"panel-skeptic", "personality_chat_ske", "Argue against; list risks and failure modes."},
		{"panel-auditor", "personality_chat_aud", "Define acceptance criteria and test gates."},
	}
	pids := make([]string, len(panel))
	for i, m := range panel {
		pid, err := s.Entities.CreatePersonality(ctx, m.name, "productivity")
		if err != nil {
			return err
		}
		pids[i] = pid
	}
	chats := make([]string, len(panel))
	for i, m := range panel {
		chat, _, err := personalityChat(ctx, s, m.step, pids[i])
		if err != nil {
			return err
		}
		chats[i] = chat
	}

	synth, err := s.Entities.CreateChat(ctx, "uc10-synthesis")
	if err != nil {
		return err
	}
	id, err := s.Entities.IndexText(ctx, synth, "Proposal: adopt stricter OpenAPI-first enforcement in CI.")
	if err != nil {
		return err
	}
	for i, m := range panel {
		if chats[i] == "" {
			s.Log.Warnf("%s: no chat id in response, skipping its turn", m.name)
			continue
		}
		if _, err := s.Send(ctx, "panel_send_"+short(chats[i]), chats[i], m.prompt); err != nil {
			return err
		}
	}
	if _, err := s.Send(ctx, "chat_send_synth", synth, "Synthesize the panel positions into a decision and checklist."); err != nil {
		return err
	}
	return s.Entities.DeleteIndexEntry(ctx, synth, id)
}
