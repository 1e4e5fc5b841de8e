package usecases

import (
	"context"

	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/store"
)

// Bootstrap resets the run's store, runs the preflight checks, makes sure a
// language and a diffusion model are available, and onboards the workspace
// non-interactively.
func Bootstrap() scenario.Scenario {
	return scenario.Scenario{
		Name:        "bootstrap",
		Description: "Store reset, preflight, model selection and onboarding",
		Tags:        []string{TagModels},
		Run:         bootstrap,
	}
}

func bootstrap(ctx context.Context, s *scenario.Session) error {
	if removed := store.Reset(s.Config.SupportRoot, s.RC.Store()); len(removed) > 0 {
		s.Log.Infof("reset store %s: removed %d file(s)", s.RC.Store(), len(removed))
	}

	// doctor prints a human report even with --format json.
	if _, err := s.Step(ctx, "doctor_pre", "doctor", "--format", "json"); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "status_pre", "status", "--format", "json"); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "models_list_pre", listArgs("models")...); err != nil {
		return err
	}

	lang, err := s.Models.Select(ctx, s.RC, "language", s.Config.LanguageModels)
	if err != nil {
		return err
	}
	diff, err := s.Models.Select(ctx, s.RC, "diffusion", s.Config.DiffusionModels)
	if err != nil {
		return err
	}
	s.LanguageModel, s.DiffusionModel = lang, diff
	s.Log.Infof("models: language=%s diffusion=%s", lang, diff)

	if _, err := s.Step(ctx, "onboard",
		"onboard", "--non-interactive",
		"--workspace-path", s.RC.Workspace(),
		"--model", lang,
		"--backend", "mlx",
		"--skip-download",
	); err != nil {
		return err
	}
	if _, err := s.JSON(ctx, "config_show", "config", "show", "--format", "json"); err != nil {
		return err
	}
	_, err = s.JSON(ctx, "config_resolve", "config", "resolve", "--format", "json")
	return err
}
