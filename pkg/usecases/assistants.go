package usecases

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/scenario"
)

func assistants() []scenario.Scenario {
	return []scenario.Scenario{
		{Name: "uc11", Description: "Research assistant: web search, memory, canvas and retrieval", Tags: []string{TagTools, TagCanvas, TagRAG, TagChat}, Run: uc11},
		{Name: "uc12", Description: "Personal life manager: weather, memory and cron tool", Tags: []string{TagTools, TagSchedules, TagChat}, Run: uc12},
		{Name: "uc13", Description: "Agency deliverables: brief, plan and canvas", Tags: []string{TagTools, TagCanvas, TagRAG, TagChat}, Run: uc13},
		{Name: "uc14", Description: "E-commerce inventory reorder automation", Tags: []string{TagTools, TagSchedules, TagRAG, TagChat}, Run: uc14},
		{Name: "uc15", Description: "Content creator: research, outline, draft", Tags: []string{TagTools, TagCanvas, TagRAG, TagChat}, Run: uc15},
		{Name: "uc16", Description: "Simulated smart home with a one-shot schedule", Tags: []string{TagTools, TagSchedules, TagChat}, Run: uc16},
	}
}

// researchReport assembles the markdown notes uc11 writes from three
// search results.
func researchReport(ddg, brave, browser jsonv.Value) string {
	var b strings.Builder
	b.WriteString("# UC11 Web Research Notes\n\n")
	b.WriteString("## DuckDuckGo\n" + ddg.Pretty() + "\n\n")
	b.WriteString("## Brave\n" + brave.Pretty() + "\n\n")
	b.WriteString("## Browser.Search\n" + browser.Pretty() + "\n")
	return b.String()
}

func uc11(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc11-research")
	if err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "chat_get_uc11", "chat", "get", chat, "--format", "json"); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "chat_list_uc11", listArgs("chat")...); err != nil {
		return err
	}
	ddg, err := s.Tool(ctx, "uc11_ddg_search", "duckduckgo_search",
		map[string]any{"query": "OpenClaw use cases automation workflows", "count": 5, "region": "us-en"})
	if err != nil {
		return err
	}
	brave, err := s.Tool(ctx, "uc11_brave_search", "brave_search",
		map[string]any{"query": "openclaw lobster workflow runner yaml json pipeline", "count": 5, "safe_search": "moderate"})
	if err != nil {
		return err
	}
	browser, err := s.Tool(ctx, "uc11_browser_search", "browser.search",
		map[string]any{"query": "OpenClaw cron jobs tools skills", "resultCount": 3})
	if err != nil {
		return err
	}
	if err := memory(ctx, s, "uc11_memory_write", "longTerm",
		"Use Case: Research assistant that can search the web, synthesize findings, and save a report to workspace for later retrieval.",
		"openclaw", "research", "tools", "rag"); err != nil {
		return err
	}

	const notes = ".codex-uc11-web.md"
	if err := writeWorkspace(ctx, s, "uc11_ws_write_report", notes, researchReport(ddg, brave, browser)); err != nil {
		return err
	}
	if err := readWorkspace(ctx, s, "uc11_ws_read_report", notes); err != nil {
		return err
	}
	if _, err := canvas(ctx, s, "uc11_canvas_create", map[string]any{
		"action": "create", "chat_id": chat, "title": "UC11 Findings",
		"content": "Web research findings will be summarized here.",
	}); err != nil {
		return err
	}
	if _, err := canvas(ctx, s, "uc11_canvas_append", map[string]any{
		"action": "append", "chat_id": chat,
		"content": "Key themes: cron automation, tool plugins, workflow runner, memory + retrieval.",
	}); err != nil {
		return err
	}
	if _, err := canvas(ctx, s, "uc11_canvas_list", map[string]any{"action": "list", "chat_id": chat}); err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc11", chat,
		"Summarize the research notes and propose 5 ThinkCLI feature checks to validate parity."); err != nil {
		return err
	}
	id, err := indexFile(ctx, s, chat, notes)
	if err != nil {
		return err
	}
	return searchAndClean(ctx, s, "rag_search_uc11", chat, "workflow", 5, id)
}

func uc12(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc12-personal")
	if err != nil {
		return err
	}
	if _, err := s.Tool(ctx, "uc12_weather_now", "weather", map[string]any{
		"location": "San Francisco, CA", "units": "fahrenheit", "forecast": true, "days": 3,
	}); err != nil {
		return err
	}
	if err := memory(ctx, s, "uc12_memory_daily", "daily",
		"User wants a morning briefing including weather + top repo tasks.", "briefing", "weather"); err != nil {
		return err
	}
	if _, err := s.Tool(ctx, "uc12_cron_create", "cron", map[string]any{
		"action": "create", "title": "uc12 morning brief",
		"prompt": "Generate a morning briefing: weather + tasks.",
		"cron":   "0 8 * * 1-5", "chat_id": chat, "action_type": "text",
	}); err != nil {
		return err
	}
	if _, err := s.Tool(ctx, "uc12_cron_list", "cron", map[string]any{"action": "list"}); err != nil {
		return err
	}
	// The update path is exercised without a schedule id; the target may
	// reject it.
	if _, err := s.TryTool(ctx, "uc12_cron_update", "cron", map[string]any{
		"action": "update", "title": "uc12 morning brief (updated)",
		"prompt": "Morning briefing: weather + top 3 tasks.",
		"cron":   "5 8 * * 1-5", "chat_id": chat, "action_type": "text",
	}); err != nil {
		return err
	}
	_, err = s.Send(ctx, "chat_send_uc12", chat,
		"Draft a short morning briefing template. Include weather placeholders and a checklist.")
	return err
}

func uc13(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc13-agency")
	if err != nil {
		return err
	}
	const brief = ".codex-uc13-brief.md"
	if err := writeWorkspace(ctx, s, "uc13_ws_write_brief", brief,
		"# Client Brief\n\n"+
			"Goal: Ship a feature safely.\n"+
			"Constraints: Offline-first; OpenAPI-first; avoid manual edits to openapi/openapi.json.\n"+
			"Deliverable: Checklist + timeline.\n"); err != nil {
		return err
	}
	if err := listWorkspace(ctx, s, "uc13_ws_list_root", "."); err != nil {
		return err
	}
	id, err := indexFile(ctx, s, chat, brief)
	if err != nil {
		return err
	}
	if _, err := s.Entities.Search(ctx, "rag_search_uc13", chat, "OpenAPI-first", 5); err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc13_plan", chat, "Using the brief, produce a 7-day delivery plan with risk gates."); err != nil {
		return err
	}
	if _, err := canvas(ctx, s, "uc13_canvas_create", map[string]any{
		"action": "create", "chat_id": chat, "title": "Client Deliverable",
		"content": "Checklist and timeline will be kept here.",
	}); err != nil {
		return err
	}
	if _, err := canvas(ctx, s, "uc13_canvas_append_1", map[string]any{
		"action": "append", "chat_id": chat,
		"content": "Day 1-2: requirements + schema; Day 3: openapi generate; Day 4-5: clients verify; Day 6: rollout; Day 7: retro.",
	}); err != nil {
		return err
	}
	if _, err := canvas(ctx, s, "uc13_canvas_list", map[string]any{"action": "list", "chat_id": chat}); err != nil {
		return err
	}
	if err := writeWorkspace(ctx, s, "uc13_ws_write_deliverable", ".codex-uc13-deliverable.md", "See UC13 canvas for details."); err != nil {
		return err
	}
	return s.Entities.DeleteIndexEntry(ctx, chat, id)
}

const inventoryCSV = "sku,on_hand,reorder_point\nA,3,5\nB,10,5\nC,0,2\n"

const reorderScript = "import csv,io\n" +
	"s='''sku,on_hand,reorder_point\\nA,3,5\\nB,10,5\\nC,0,2\\n'''\n" +
	"rows=list(csv.DictReader(io.StringIO(s)))\n" +
	"reorder=[r['sku'] for r in rows if int(r['on_hand'])<int(r['reorder_point'])]\n" +
	"print('REORDER:', ','.join(reorder))\n"

func uc14(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc14-ecomm")
	if err != nil {
		return err
	}
	const inventory = ".codex-uc14-inventory.csv"
	if err := writeWorkspace(ctx, s, "uc14_ws_write_inventory", inventory, inventoryCSV); err != nil {
		return err
	}
	if err := python(ctx, s, "uc14_tools_python_reorder", reorderScript, 30); err != nil {
		return err
	}
	if err := memory(ctx, s, "uc14_memory_write", "longTerm",
		"Reorder automation flags SKUs below reorder_point from inventory CSV.", "ecomm", "inventory", "cron"); err != nil {
		return err
	}
	if _, err := s.Tool(ctx, "uc14_cron_create", "cron", map[string]any{
		"action": "create", "title": "uc14 inventory check",
		"prompt": "Check inventory and list SKUs needing reorder.",
		"cron":   "0 6 * * *", "chat_id": chat, "action_type": "text",
	}); err != nil {
		return err
	}
	if _, err := s.Tool(ctx, "uc14_cron_list", "cron", map[string]any{"action": "list"}); err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc14", chat, "Write an ops runbook for inventory reorder based on a daily job output."); err != nil {
		return err
	}
	id, err := indexFile(ctx, s, chat, inventory)
	if err != nil {
		return err
	}
	return searchAndClean(ctx, s, "rag_search_uc14", chat, "sku", 5, id)
}

func uc15(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc15-content")
	if err != nil {
		return err
	}
	sources, err := s.Tool(ctx, "uc15_web_search", "browser.search",
		map[string]any{"query": "OpenClaw automation assistant use cases", "resultCount": 3})
	if err != nil {
		return err
	}
	outline := "# Blog Outline\n\n" +
		"- What is an agentic assistant\n" +
		"- Tools, schedules, memory\n" +
		"- Safety model (tool gating)\n\n" +
		"Sources:\n" + sources.Pretty()
	if _, err := canvas(ctx, s, "uc15_canvas_create", map[string]any{
		"action": "create", "chat_id": chat, "title": "UC15 Outline", "content": outline,
	}); err != nil {
		return err
	}
	if _, err := s.Send(ctx, "chat_send_uc15_draft", chat, "Turn the outline into a 500-word draft with headings."); err != nil {
		return err
	}
	const draft = ".codex-uc15-draft.md"
	if err := writeWorkspace(ctx, s, "uc15_ws_write_draft", draft, "Draft generated in UC15 chat."); err != nil {
		return err
	}
	id, err := indexFile(ctx, s, chat, draft)
	if err != nil {
		return err
	}
	return searchAndClean(ctx, s, "rag_search_uc15", chat, "Tools", 5, id)
}

// homeState is the simulated device state uc16 stores in the workspace.
type homeState struct {
	Lights     map[string]string `json:"lights"`
	Thermostat struct {
		TargetF int `json:"target_f"`
	} `json:"thermostat"`
}

func homeStateJSON() (string, error) {
	var st homeState
	st.Lights = map[string]string{"kitchen": "off", "bedroom": "off"}
	st.Thermostat.TargetF = 70
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func uc16(ctx context.Context, s *scenario.Session) error {
	chat, err := s.Entities.CreateChat(ctx, "uc16-smarthome")
	if err != nil {
		return err
	}
	state, err := homeStateJSON()
	if err != nil {
		return err
	}
	const home = ".codex-uc16-home.json"
	if err := writeWorkspace(ctx, s, "uc16_ws_write_state", home, state); err != nil {
		return err
	}
	if err := readWorkspace(ctx, s, "uc16_ws_read_state", home); err != nil {
		return err
	}
	if _, err := s.TryTool(ctx, "uc16_cron_create_one_shot", "cron", map[string]any{
		"action": "create", "title": "uc16 lights on",
		"prompt": "Turn kitchen lights ON (simulated).",
		"cron":   "2026-02-08", "schedule_kind": "one_shot",
		"chat_id": chat, "action_type": "text",
	}); err != nil {
		return err
	}
	if _, err := s.Tool(ctx, "uc16_cron_list", "cron", map[string]any{"action": "list"}); err != nil {
		return err
	}
	_, err = s.Send(ctx, "chat_send_uc16", chat,
		"Given the home state JSON, propose a safe automation strategy (no real device access).")
	return err
}
