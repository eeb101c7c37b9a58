// Package awsident verifies, before any phase runs, that the ambient AWS
// credentials resolve to the account the selected environment declares. The
// check is skippable via the CLI when no environment work is involved.
package awsident

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/vk/restack/internal/config"
	"github.com/vk/restack/internal/ctxlog"
	"github.com/vk/restack/internal/pipeline"
)

// CallerIdentityAPI is the slice of the STS client the guard needs.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Guard checks the caller's AWS account against an environment's configured
// account.
type Guard struct {
	client CallerIdentityAPI
}

// NewGuard creates a guard around an STS client.
func NewGuard(client CallerIdentityAPI) *Guard {
	return &Guard{client: client}
}

// NewGuardFromEnv creates a guard using the ambient AWS credential chain,
// pinned to the environment's region.
func NewGuardFromEnv(ctx context.Context, env *config.Environment) (*Guard, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(env.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS credentials: %w", err)
	}
	return NewGuard(sts.NewFromConfig(cfg)), nil
}

// Check fails when the caller's account does not match the environment's
// configured account.
func (g *Guard) Check(ctx context.Context, env *config.Environment) error {
	logger := ctxlog.FromContext(ctx)

	out, err := g.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("resolving caller identity: %w", err)
	}

	account := aws.ToString(out.Account)
	if account != env.Account {
		return fmt.Errorf("credentials resolve to account %s, but environment %q expects account %s", account, env.Name, env.Account)
	}

	logger.Info("Caller identity verified.", "account", account, "environment", env.Name)
	return nil
}

// Phase runs the guard as the pipeline's preflight phase.
type Phase struct {
	guard *Guard
}

// NewPhase creates the preflight phase around a guard.
func NewPhase(guard *Guard) *Phase {
	return &Phase{guard: guard}
}

// Name implements pipeline.Phase.
func (p *Phase) Name() string { return "preflight" }

// Run implements pipeline.Phase.
func (p *Phase) Run(ctx context.Context, ws *pipeline.Workspace) error {
	env, err := ws.Plan.Environment(ws.Environment)
	if err != nil {
		return err
	}
	return p.guard.Check(ctx, env)
}
