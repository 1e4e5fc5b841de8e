package scenario

import (
	"context"

	"github.com/ormasoftchile/thinkuc/pkg/config"
	"github.com/ormasoftchile/thinkuc/pkg/entity"
	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/log"
	"github.com/ormasoftchile/thinkuc/pkg/models"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

// Session is what a scenario body works with: the execution context, the
// executor and the helpers built on it, and the resolved configuration.
type Session struct {
	Exec     *step.Executor
	RC       runctx.Context
	Entities *entity.Helpers
	Models   *models.Selector
	Config   config.Config
	Log      log.Logger

	// Chosen during bootstrap.
	LanguageModel  string
	DiffusionModel string
}

// NewSession wires a session for rc.
func NewSession(exec *step.Executor, rc runctx.Context, cfg config.Config) *Session {
	return &Session{
		Exec:     exec,
		RC:       rc,
		Entities: entity.New(exec, rc),
		Models:   models.NewSelector(exec, cfg.ModelsRoot),
		Config:   cfg,
		Log:      log.Named("scenario"),
	}
}

// WithStore returns a session identical to s except that every step
// targets store.
func (s *Session) WithStore(store string) *Session {
	n := *s
	n.RC = s.RC.WithStore(store)
	n.Entities = s.Entities.WithContext(n.RC)
	return &n
}

// Step runs a plain-text step that must succeed.
func (s *Session) Step(ctx context.Context, name string, args ...string) (*step.Result, error) {
	return s.Exec.Run(ctx, s.RC, name, args)
}

// Try runs a plain-text step whose failure is tolerated.
func (s *Session) Try(ctx context.Context, name string, args ...string) (*step.Result, error) {
	return s.Exec.Run(ctx, s.RC, name, args, step.AllowFail())
}

// JSON runs a step that must succeed and print JSON.
func (s *Session) JSON(ctx context.Context, name string, args ...string) (jsonv.Value, error) {
	res, err := s.Exec.Run(ctx, s.RC, name, args, step.JSON())
	if err != nil {
		return jsonv.Value{}, err
	}
	return res.JSON, nil
}

// TryJSON runs a JSON step whose failure is tolerated.
func (s *Session) TryJSON(ctx context.Context, name string, args ...string) (*step.Result, error) {
	return s.Exec.Run(ctx, s.RC, name, args, step.JSON(), step.AllowFail())
}

// Tool invokes a built-in tool that must succeed.
func (s *Session) Tool(ctx context.Context, name, tool string, args map[string]any) (jsonv.Value, error) {
	return s.Exec.RunTool(ctx, s.RC, name, tool, args)
}

// TryTool invokes a built-in tool whose failure is tolerated.
func (s *Session) TryTool(ctx context.Context, name, tool string, args map[string]any) (jsonv.Value, error) {
	return s.Exec.RunTool(ctx, s.RC, name, tool, args, step.AllowFail())
}

// SendArgs builds a non-streaming JSON chat send; extra flags go before
// --no-stream.
func SendArgs(chatID, prompt string, extra ...string) []string {
	args := []string{"chat", "send", "--session", chatID, "--prompt", prompt}
	args = append(args, extra...)
	return append(args, "--no-stream", "--format", "json")
}

// Send posts prompt to chatID and returns the decoded reply.
func (s *Session) Send(ctx context.Context, name, chatID, prompt string, extra ...string) (jsonv.Value, error) {
	return s.JSON(ctx, name, SendArgs(chatID, prompt, extra...)...)
}

// TrySend is Send with failure tolerated.
func (s *Session) TrySend(ctx context.Context, name, chatID, prompt string, extra ...string) (*step.Result, error) {
	return s.TryJSON(ctx, name, SendArgs(chatID, prompt, extra...)...)
}
