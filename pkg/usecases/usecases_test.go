package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/thinkuc/pkg/config"
	"github.com/ormasoftchile/thinkuc/pkg/process/processtest"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

// fakeTarget scripts plausible responses for every command the catalog
// issues.
type fakeTarget struct {
	*processtest.Script
	n         int
	chats     map[string]string // title -> id
	schedules []string
}

func (f *fakeTarget) uuid() string {
	f.n++
	return fmt.Sprintf("%08x-0000-4000-8000-000000000000", f.n)
}

func newFakeTarget() *fakeTarget {
	f := &fakeTarget{Script: processtest.New(), chats: map[string]string{}}
	f.OnFunc(func(args []string) processtest.Response {
		title, _ := processtest.Flag(args, "--title")
		id := f.uuid()
		f.chats[title] = id
		return processtest.Response{Stdout: fmt.Sprintf(`{"id":%q,"title":%q}`+"\n", id, title)}
	}, "chat", "create")
	f.OnJSON(`{"type":"token","text":"hi"}`+"\n\n"+`{"type":"done"}`, "--format", "json-lines")
	f.OnFunc(func([]string) processtest.Response {
		return processtest.Response{Stdout: fmt.Sprintf(`{"message":"Created skill %s"}`+"\n", f.uuid())}
	}, "skills", "create")
	f.OnFunc(func([]string) processtest.Response {
		return processtest.Response{Stdout: fmt.Sprintf(`{"message":"Created personality %s"}`+"\n", f.uuid())}
	}, "personality", "create")
	f.OnFunc(func([]string) processtest.Response {
		return processtest.Response{Stdout: fmt.Sprintf(`{"message":"Started chat %s"}`+"\n", f.uuid())}
	}, "personality", "chat")
	f.OnFunc(func(args []string) processtest.Response {
		title, _ := processtest.Flag(args, "--title")
		f.schedules = append(f.schedules, title)
		return processtest.Response{Stdout: `{"message":"ok"}` + "\n"}
	}, "schedules", "create")
	f.OnFunc(func([]string) processtest.Response {
		var items []string
		for i, t := range f.schedules {
			items = append(items, fmt.Sprintf(`{"id":"sched-%d","title":%q}`, i+1, t))
		}
		return processtest.Response{Stdout: "[" + strings.Join(items, ",") + "]\n"}
	}, "schedules", "list")
	f.OnJSON(`[{"id":"m-1","name":"uc26-remote"},{"id":"m-2","name":"dummy-local"}]`, "models", "list")
	f.OnJSON(`[{"name":"workspace"},{"name":"canvas"}]`, "tools", "list")
	f.OnFunc(func(args []string) processtest.Response {
		raw, _ := processtest.Flag(args, "--args")
		if strings.Contains(raw, `"action":"list"`) {
			return processtest.Response{Stdout: `[{"id":"cv-1","title":"Spec Draft"}]` + "\n"}
		}
		return processtest.Response{Stdout: `{"ok":true}` + "\n"}
	}, "tools", "run", "canvas")
	f.On(processtest.Response{Stdout: "All checks passed\n"}, "doctor")
	f.On(processtest.Response{Stdout: "Gateway served one request\n"}, "gateway", "start")
	return f
}

func newSession(t *testing.T, runner *fakeTarget) *scenario.Session {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.SupportRoot = t.TempDir()
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	rc := runctx.New(runctx.Spec{
		Binary:    "/opt/think",
		Workspace: t.TempDir(),
		Store:     cfg.Store,
		LogDir:    t.TempDir(),
	})
	return scenario.NewSession(step.NewExecutor(runner), rc, cfg)
}

func TestCatalog(t *testing.T) {
	cat := Catalog()
	if len(cat) != 30 {
		t.Fatalf("catalog has %d scenarios", len(cat))
	}
	for i, sc := range cat {
		if want := fmt.Sprintf("uc%02d", i+1); sc.Name != want {
			t.Errorf("position %d: %s, want %s", i, sc.Name, want)
		}
		if sc.Description == "" || len(sc.Tags) == 0 {
			t.Errorf("%s lacks description or tags", sc.Name)
		}
	}
	plan := Plan(cat)
	if err := scenario.Validate(plan); err != nil {
		t.Fatal(err)
	}
	if plan[0].Name != "bootstrap" || plan[len(plan)-1].Name != "final_status" {
		t.Errorf("plan = %v", scenario.Names(plan))
	}
}

func TestChatAndRetrieval(t *testing.T) {
	target := newFakeTarget()
	s := newSession(t, target)
	if err := uc01(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	chat := target.chats["uc1-bootstrap"]
	if chat == "" {
		t.Fatal("chat was not created")
	}
	send, ok := target.Find("chat", "send")
	if !ok {
		t.Fatal("no chat send")
	}
	if got, _ := processtest.Flag(send.Args, "--session"); got != chat {
		t.Errorf("send session = %q, want %q", got, chat)
	}
	if !processtest.Contains(send.Args, "--no-stream", "--format", "json") {
		t.Errorf("send args = %v", send.Args)
	}

	indexed := map[string]bool{}
	deleted := map[string]bool{}
	var searched bool
	for _, c := range target.Calls() {
		switch {
		case processtest.Contains(c.Args, "rag", "index"):
			if got, _ := processtest.Flag(c.Args, "--chat"); got != chat {
				t.Errorf("index scoped to %q", got)
			}
			id, _ := processtest.Flag(c.Args, "--id")
			if id != strings.ToUpper(id) || len(id) != 36 {
				t.Errorf("content id %q", id)
			}
			indexed[id] = true
		case processtest.Contains(c.Args, "rag", "delete", "--chat", chat):
			deleted[c.Args[len(c.Args)-1]] = true
		case processtest.Contains(c.Args, "rag", "search"):
			searched = true
			if q, _ := processtest.Flag(c.Args, "--query"); q != "OpenAPI workflow" {
				t.Errorf("query = %q", q)
			}
			if l, _ := processtest.Flag(c.Args, "--limit"); l != "3" {
				t.Errorf("limit = %q", l)
			}
		}
	}
	if len(indexed) != 2 || !searched {
		t.Fatalf("indexed=%v searched=%v", indexed, searched)
	}
	for id := range indexed {
		if !deleted[id] {
			t.Errorf("entry %s not cleaned up", id)
		}
	}
	if _, ok := target.Find("gateway", "start", "--once", "--port", "9876"); !ok {
		t.Error("gateway not started on the local port")
	}
}

func TestFullPlan(t *testing.T) {
	target := newFakeTarget()
	s := newSession(t, target)

	rep, err := (&scenario.Driver{}).Run(context.Background(), s, Plan(Catalog()))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Outcomes) != 32 {
		t.Errorf("%d outcomes", len(rep.Outcomes))
	}
	if s.LanguageModel != "mlx-community/SmolLM-135M-4bit" {
		t.Errorf("language model = %q", s.LanguageModel)
	}

	calls := target.Calls()
	for _, c := range calls {
		if c.Path != "/opt/think" || len(c.Args) < 4 || c.Args[0] != "--store" || c.Args[2] != "--workspace" {
			t.Fatalf("malformed invocation %s", c)
		}
	}
	if last := calls[len(calls)-1]; !processtest.Contains(last.Args, "status", "--format", "json") {
		t.Errorf("last call = %s", last)
	}

	counts := []struct {
		words []string
		want  int
	}{
		{[]string{"--store", IsolatedStore}, 9},
		{[]string{"schedules", "enable"}, 4},
		{[]string{"schedules", "disable"}, 4},
		{[]string{"schedules", "delete"}, 4},
		{[]string{"personality", "delete"}, 4},
		{[]string{"models", "remove", "m-1"}, 1},
		{[]string{"models", "info", "m-1"}, 1},
		{[]string{"onboard", "--non-interactive"}, 1},
		{[]string{"models", "download"}, 2},
	}
	for _, tc := range counts {
		if got := target.Count(tc.words...); got != tc.want {
			t.Errorf("%v: %d calls, want %d", tc.words, got, tc.want)
		}
	}

	var gets int
	for _, c := range calls {
		raw, _ := processtest.Flag(c.Args, "--args")
		if processtest.Contains(c.Args, "tools", "run", "canvas") &&
			strings.Contains(raw, `"action":"get"`) && strings.Contains(raw, `"canvas_id":"cv-1"`) {
			gets++
		}
	}
	if gets != 2 {
		t.Errorf("canvas gets = %d", gets)
	}

	dummy, err := os.ReadFile(s.RC.LogPath("dummy.model"))
	if err != nil || string(dummy) != "dummy" {
		t.Errorf("dummy model = %q, %v", dummy, err)
	}
}

func TestBootstrapPrefersLocalModels(t *testing.T) {
	target := newFakeTarget()
	s := newSession(t, target)
	second := s.Config.LanguageModels[1]
	if err := os.MkdirAll(s.Models.LocalPath(second), 0o755); err != nil {
		t.Fatal(err)
	}
	diff := s.Config.DiffusionModels[0]
	if err := os.MkdirAll(s.Models.LocalPath(diff), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := bootstrap(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if n := target.Count("models", "download"); n != 0 {
		t.Errorf("%d downloads despite local models", n)
	}
	onboard, _ := target.Find("onboard")
	if got, _ := processtest.Flag(onboard.Args, "--model"); got != second.RepoID {
		t.Errorf("onboarded with %q", got)
	}
}

func TestJSONLinesNeedsOneRecord(t *testing.T) {
	target := newFakeTarget()
	target.Script = processtest.New().
		OnJSON(`{"id":"aaaaaaaa-0000-4000-8000-000000000000"}`, "chat", "create").
		On(processtest.Response{Stdout: "loading model...\n"}, "--format", "json-lines")
	s := newSession(t, target)

	err := uc28(context.Background(), s)
	f, ok := step.AsFailure(err)
	if !ok || f.Kind != step.KindCheck {
		t.Fatalf("err = %v", err)
	}
}

func TestToolInventoryMustBeList(t *testing.T) {
	target := newFakeTarget()
	target.Script = processtest.New().
		OnJSON(`{"tools":[]}`, "tools", "list").
		OnJSON(`{"id":"bbbbbbbb-0000-4000-8000-000000000000"}`, "chat", "create")
	s := newSession(t, target)

	err := uc29(context.Background(), s)
	f, ok := step.AsFailure(err)
	if !ok || f.Kind != step.KindCheck || !strings.Contains(f.Error(), "did not return a list") {
		t.Fatalf("err = %v", err)
	}
}

func TestSummarizeOpenAPI(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	cases := []struct {
		path, want string
	}{
		{filepath.Join(dir, "absent.json"), "openapi/openapi.json missing"},
		{write("ok.json", `{"paths":{"/a":{},"/b":{}}}`), "paths=2"},
		{write("nopaths.json", `{"openapi":"3.1.0"}`), "paths=0"},
		{write("bad.json", `{"paths":`), "failed to parse openapi/openapi.json: "},
	}
	for _, tc := range cases {
		if got := SummarizeOpenAPI(tc.path); !strings.HasPrefix(got, tc.want) {
			t.Errorf("%s: %q, want prefix %q", filepath.Base(tc.path), got, tc.want)
		}
	}
}

func TestWorkflowDocument(t *testing.T) {
	doc, err := EncodeWorkflow(sampleWorkflow())
	if err != nil {
		t.Fatal(err)
	}
	w, err := ParseWorkflow(doc)
	if err != nil {
		t.Fatalf("%v\n%s", err, doc)
	}
	if len(w.Steps) != 3 || w.Steps[2].Action != "chat_send" {
		t.Errorf("steps = %+v", w.Steps)
	}
	if !strings.Contains(string(doc), "steps:") {
		t.Errorf("document lacks the indexed keyword:\n%s", doc)
	}

	bad := map[string]string{
		"no name":    "steps:\n  - id: a\n    tool: workspace\n",
		"no steps":   "name: x\n",
		"duplicate":  "name: x\nsteps:\n  - id: a\n    tool: t\n  - id: a\n    action: chat_send\n",
		"both kinds": "name: x\nsteps:\n  - id: a\n    tool: t\n    action: chat_send\n",
		"unknown":    "name: x\nsteps:\n  - id: a\n    tool: t\n    run: now\n",
	}
	for name, body := range bad {
		if _, err := ParseWorkflow([]byte(body)); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestResearchReport(t *testing.T) {
	target := newFakeTarget()
	target.OnJSON(`{"results":[{"url":"https://a.example","title":"A"}]}`, "duckduckgo_search")
	s := newSession(t, target)
	if err := uc11(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	var report string
	for _, c := range target.Calls() {
		raw, _ := processtest.Flag(c.Args, "--args")
		if processtest.Contains(c.Args, "tools", "run", "workspace") && strings.Contains(raw, `"action":"write"`) {
			report = raw
		}
	}
	for _, want := range []string{"# UC11 Web Research Notes", "## DuckDuckGo", `\"url\": \"https://a.example\"`, "## Browser.Search"} {
		if !strings.Contains(report, want) {
			t.Errorf("report args lack %q:\n%s", want, report)
		}
	}
}
