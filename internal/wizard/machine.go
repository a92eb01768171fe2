package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"agentlaunch/internal/launch"
	"agentlaunch/internal/logging"
	"agentlaunch/internal/services/moltbook"
)

// Stage identifies where the flow currently is.
type Stage string

const (
	StageCreate  Stage = "create"
	StageVerify  Stage = "verify"
	StageLaunch  Stage = "launch"
	StageSuccess Stage = "success"
)

// RestoredAgentID marks an agent rebuilt from a persisted session. The
// real id is not stored; only the credential set is.
const RestoredAgentID = "restored"

// ErrWrongStage is returned when an action is invoked outside the stage
// it belongs to.
var ErrWrongStage = errors.New("action not valid in current stage")

// VerificationHint is shown when a launch fails because the agent has
// not been claimed by a human yet.
const VerificationHint = "⚠️ Agent not verified! Please complete Twitter verification first."

// Registrar creates an agent identity. Implemented by the Moltbook
// client.
type Registrar interface {
	RegisterAgent(ctx context.Context, name, description string) (*moltbook.Agent, error)
}

// LogoGenerator produces a logo URL for a prompt, never failing.
type LogoGenerator interface {
	GenerateLogo(ctx context.Context, prompt string) string
}

// Launcher runs the orchestrated launch flow.
type Launcher interface {
	Launch(ctx context.Context, req launch.Request) (*launch.Result, error)
}

// TokenParams are the launch-stage inputs. SkipLogo suppresses logo
// generation; the orchestrator then falls back to the default image.
type TokenParams struct {
	Name        string
	Symbol      string
	Description string
	Wallet      string
	SkipLogo    bool
}

// Machine is the wizard state machine. Not safe for concurrent use;
// each session drives its own machine.
type Machine struct {
	stage  Stage
	agent  *moltbook.Agent
	result *launch.Result

	store     Store
	registrar Registrar
	logos     LogoGenerator
	launcher  Launcher
	logger    *slog.Logger
}

// New builds a machine, restoring a persisted session when one exists.
// A restored machine starts at the verify stage.
func New(store Store, registrar Registrar, logos LogoGenerator, launcher Launcher, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Machine{
		stage:     StageCreate,
		store:     store,
		registrar: registrar,
		logos:     logos,
		launcher:  launcher,
		logger:    logger,
	}
	if store == nil {
		return m
	}
	session, found, err := store.Load()
	if err != nil {
		logger.Warn("session load failed", logging.Error(err))
		return m
	}
	if found {
		m.agent = &moltbook.Agent{
			ID:       RestoredAgentID,
			Name:     session.Name,
			APIKey:   session.APIKey,
			ClaimURL: session.ClaimURL,
		}
		m.stage = StageVerify
	}
	return m
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage {
	return m.stage
}

// Agent returns the current agent, nil before registration.
func (m *Machine) Agent() *moltbook.Agent {
	return m.agent
}

// Result returns the launch result, nil before success.
func (m *Machine) Result() *launch.Result {
	return m.result
}

// Register creates the agent and advances to the verify stage. Only
// valid at the create stage.
func (m *Machine) Register(ctx context.Context, name, description string) (*moltbook.Agent, error) {
	if m.stage != StageCreate {
		return nil, fmt.Errorf("%w: register requires the create stage, machine is at %s", ErrWrongStage, m.stage)
	}
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" {
		return nil, errors.New("agent name and description are required")
	}

	agent, err := m.registrar.RegisterAgent(ctx, name, description)
	if err != nil {
		return nil, err
	}

	m.agent = agent
	m.stage = StageVerify
	m.persist()
	m.logger.Info("agent registered", logging.String("agent", agent.Name))
	return agent, nil
}

// ConfirmVerified is the user's acknowledgment that the claim link was
// completed. No request is made; Moltbook enforces verification when
// the launch post is created.
func (m *Machine) ConfirmVerified() error {
	if m.stage != StageVerify {
		return fmt.Errorf("%w: verification belongs to the verify stage, machine is at %s", ErrWrongStage, m.stage)
	}
	if m.agent == nil {
		return errors.New("no agent to verify")
	}
	m.stage = StageLaunch
	return nil
}

// Launch generates a logo (best effort) and runs the orchestrated
// launch. On failure the machine stays at the launch stage so the user
// can correct inputs and retry.
func (m *Machine) Launch(ctx context.Context, params TokenParams) (*launch.Result, error) {
	if m.stage != StageLaunch {
		return nil, fmt.Errorf("%w: launch requires the launch stage, machine is at %s", ErrWrongStage, m.stage)
	}
	if m.agent == nil {
		return nil, errors.New("no agent found, start over")
	}

	var imageURL string
	if !params.SkipLogo && m.logos != nil {
		prompt := strings.TrimSpace(params.Name + " " + params.Description)
		imageURL = m.logos.GenerateLogo(ctx, prompt)
	}

	result, err := m.launcher.Launch(ctx, launch.Request{
		APIKey:      m.agent.APIKey,
		Name:        params.Name,
		Symbol:      params.Symbol,
		Description: params.Description,
		ImageURL:    imageURL,
		Wallet:      params.Wallet,
	})
	if err != nil {
		return nil, err
	}

	m.result = result
	m.stage = StageSuccess
	return result, nil
}

// Reset clears the persisted session and returns to the create stage.
func (m *Machine) Reset() error {
	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			return err
		}
	}
	m.stage = StageCreate
	m.agent = nil
	m.result = nil
	return nil
}

func (m *Machine) persist() {
	if m.store == nil || m.agent == nil {
		return
	}
	err := m.store.Save(Session{
		APIKey:   m.agent.APIKey,
		Name:     m.agent.Name,
		ClaimURL: m.agent.ClaimURL,
	})
	if err != nil {
		m.logger.Warn("session save failed", logging.Error(err))
	}
}

// ClassifyLaunchError maps a launch failure to the message shown at the
// launch stage. Failures that mention the agent being unclaimed get the
// verification hint; everything else passes through.
func ClassifyLaunchError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "claimed") || strings.Contains(lower, "human") {
		return VerificationHint
	}
	return msg
}
