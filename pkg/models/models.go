// Package models makes sure a usable model is present before scenarios run,
// trying an ordered list of candidates.
package models

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ormasoftchile/thinkuc/pkg/log"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
	"github.com/ormasoftchile/thinkuc/pkg/step"
)

// Candidate is one downloadable model.
type Candidate struct {
	RepoID  string `yaml:"repo_id" json:"repo_id" jsonschema:"minLength=1"`
	Backend string `yaml:"backend" json:"backend" jsonschema:"enum=mlx,enum=gguf,enum=coreml"`
}

func (c Candidate) String() string { return c.RepoID + " (" + c.Backend + ")" }

// Dir returns the directory name a downloaded repo occupies.
func (c Candidate) Dir() string { return strings.ReplaceAll(c.RepoID, "/", "_") }

// Smallest viable language models first, to keep long runs practical.
var LanguageCandidates = []Candidate{
	{RepoID: "mlx-community/SmolLM-135M-4bit", Backend: "mlx"},
	{RepoID: "mlx-community/SmolLM-360M-Instruct-4bit", Backend: "mlx"},
	{RepoID: "mlx-community/SmolLM-1.7B-Instruct-4bit", Backend: "mlx"},
}

var DiffusionCandidates = []Candidate{
	{RepoID: "coreml-community/coreml-Inkpunk-Diffusion", Backend: "coreml"},
}

// AlreadyPresentMarker in a failed download's output means the model is
// usable anyway.
const AlreadyPresentMarker = "already downloaded"

// ErrorLimit caps the stderr excerpt kept from a failed download.
const ErrorLimit = 2000

// Selector picks the first usable candidate.
type Selector struct {
	Exec *step.Executor
	// Root is the models root; downloads live at <Root>/<backend>/<repo>.
	Root string

	log log.Logger
}

// NewSelector returns a Selector over root.
func NewSelector(exec *step.Executor, root string) *Selector {
	return &Selector{Exec: exec, Root: root, log: log.Named("models")}
}

// LocalPath is where c is expected once downloaded.
func (s *Selector) LocalPath(c Candidate) string {
	return filepath.Join(s.Root, c.Backend, c.Dir())
}

// Select returns the repo id of the first locally present candidate, or
// else of the first candidate that downloads. Candidates are tried in order
// and the search stops at the first success.
func (s *Selector) Select(ctx context.Context, rc runctx.Context, kind string, candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", step.Resolutionf("No %s model candidates configured.", kind)
	}
	for _, c := range candidates {
		if _, err := os.Stat(s.LocalPath(c)); err == nil {
			s.log.Infof("%s model %s already present", kind, c)
			s.traceSelected(c, "local")
			return c.RepoID, nil
		}
	}
	return s.Download(ctx, rc, candidates)
}

// Download tries `models download` for each candidate in order.
func (s *Selector) Download(ctx context.Context, rc runctx.Context, candidates []Candidate) (string, error) {
	var lastErr string
	for _, c := range candidates {
		res, err := s.Exec.Run(ctx, rc, "models_download_"+c.Dir(),
			[]string{"models", "download", c.RepoID, "--backend", c.Backend}, step.AllowFail())
		if err != nil {
			return "", err
		}
		if res.OK() {
			s.traceSelected(c, "download")
			return c.RepoID, nil
		}
		if strings.Contains(strings.ToLower(res.Stdout+"\n"+res.Stderr), AlreadyPresentMarker) {
			s.traceSelected(c, "already-downloaded")
			return c.RepoID, nil
		}
		s.log.Warnf("download of %s failed with exit %d, trying next candidate", c, res.ExitCode)
		lastErr = fmt.Sprintf("download failed for %s (%s): rc=%d\n%s",
			c.RepoID, c.Backend, res.ExitCode, step.Truncate(res.Stderr, ErrorLimit))
	}
	return "", step.Resolutionf("All model download candidates failed.\n%s", lastErr)
}

func (s *Selector) traceSelected(c Candidate, via string) {
	if err := s.Exec.Trace.EmitModelSelected(c.RepoID, c.Backend, via); err != nil {
		s.log.Warnf("trace: %v", err)
	}
}
