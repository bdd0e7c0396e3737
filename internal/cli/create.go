package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/jmaddaus/cairn/internal/github"
	"github.com/jmaddaus/cairn/internal/graph"
	"github.com/jmaddaus/cairn/internal/input"
	"github.com/jmaddaus/cairn/internal/model"
	"github.com/jmaddaus/cairn/internal/run"
)

var createBoolFlags = map[string]bool{
	"dry-run": true, "force": true, "no-verify": true, "yes": true,
}

func runCreate(args []string, gf globalFlags) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Preview what would be created without calling GitHub")
	force := fs.Bool("force", false, "Ignore prior runs and fingerprint duplicates")
	resume := fs.String("resume", "", "Resume a specific run ID")
	noVerify := fs.Bool("no-verify", false, "Skip the post-run verification pass")
	yes := fs.Bool("yes", false, "Never prompt; resolve missing resources automatically")

	if err := fs.Parse(reorderArgs(args, createBoolFlags)); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: cairn create <input-file> [--dry-run] [--force] [--resume RUN_ID] [--no-verify] [--yes]")
	}
	inputPath := fs.Arg(0)

	cfg, err := loadConfig(gf)
	if err != nil {
		return err
	}
	logger := newLogger(gf, cfg)

	doc, digest, err := input.Load(inputPath)
	if err != nil {
		return validationErr(err)
	}
	if err := prepareDocument(doc); err != nil {
		return validationErr(err)
	}

	g, err := graph.Build(doc.Issues)
	if err != nil {
		return validationErr(err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan, err := run.NewPlan(ctx, st, digest, *resume, *force)
	if err != nil {
		return err
	}
	if plan.Resuming {
		fmt.Printf("Resuming run %s (%d item(s) already created)\n", plan.RunID, len(plan.SkipSet))
	} else if !plan.NothingToDo {
		// A different in-progress run for the same repository usually means a
		// crashed invocation of another input file. Refuse to interleave
		// unless the user forces it.
		active, err := st.FindActiveRun(ctx, doc.Repository)
		if err != nil {
			return err
		}
		if active != nil && !*force {
			return fmt.Errorf("run %s for %s is still in progress (input %s); resume it, `cairn cleanup %s`, or pass --force",
				active.RunID, active.Repository, active.InputFile, active.RunID)
		}
	}

	var client github.Client
	var subs map[string]string
	if !*dryRun && !plan.NothingToDo {
		token, err := github.ResolveToken()
		if err != nil {
			return err
		}
		client = github.NewClientWithHTTP(token, &http.Client{Timeout: cfg.HTTPTimeout()})

		subs, err = run.EnsureResources(ctx, client, doc, chooseResolver(*yes, logger))
		if err != nil {
			return fmt.Errorf("resolve repository resources: %w", err)
		}
	}

	o := run.NewOrchestrator(st, client, logger, run.Options{
		DryRun:         *dryRun,
		Force:          *force,
		Verify:         cfg.Verify && !*noVerify,
		CreateAttempts: cfg.RetryAttempts,
		LinkAttempts:   cfg.LinkRetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay(),
	})

	summary, execErr := o.Execute(ctx, run.Request{
		Doc:           doc,
		Graph:         g,
		Plan:          plan,
		InputPath:     inputPath,
		InputDigest:   digest,
		MilestoneSubs: subs,
	})

	printSummary(summary)

	if execErr != nil {
		return execErr
	}
	if summary.Status == model.RunFailed {
		return fmt.Errorf("run %s finished with %d failed item(s)", summary.RunID, summary.Failed())
	}
	return nil
}

// prepareDocument fills the repository from the local git remote when the
// document omits it, then validates the document.
func prepareDocument(doc *model.Document) error {
	if doc.Repository == "" {
		detected, err := repositoryFromGitRemote()
		if err != nil {
			return fmt.Errorf("document has no repository and none could be detected: %v", err)
		}
		doc.Repository = detected
	}
	return input.Validate(doc)
}

// repositoryFromGitRemote resolves "owner/name" from the origin remote of
// the working directory.
func repositoryFromGitRemote() (string, error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", fmt.Errorf("no git origin remote to infer the repository from: %w", err)
	}
	return parseRemoteURL(strings.TrimSpace(string(out)))
}

// Matches both https://host/owner/name(.git) and git@host:owner/name(.git).
var remoteURLRe = regexp.MustCompile(`^(?:https?://[^/]+/|git@[^:]+:)([^/]+)/([^/]+?)(?:\.git)?$`)

func parseRemoteURL(url string) (string, error) {
	m := remoteURLRe.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("cannot infer owner/name from remote %q", url)
	}
	return m[1] + "/" + m[2], nil
}
