package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/patientdesk/internal/authflow"
	"github.com/nfrund/patientdesk/internal/backend"
	"github.com/nfrund/patientdesk/internal/config"
	"github.com/nfrund/patientdesk/internal/domain"
	"github.com/nfrund/patientdesk/internal/forms"
	"github.com/nfrund/patientdesk/web/src/templates/pages"
)

// errInvalidInput is returned after the field messages have been printed.
var errInvalidInput = errors.New("invalid input")

type accountOptions struct {
	Username  string
	FirstName string
	Email     string
}

// newAccountSession opens a page session for one command. The profile
// follow-up runs inline, so it has finished when Register returns.
func newAccountSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*authflow.Session, error) {
	bc := cfg.Backend
	client, err := backend.New(backend.Config{
		BaseURL:    bc.URL,
		Endpoints:  bc.Endpoints,
		CSRFHeader: bc.CSRFHeader,
		Timeout:    time.Duration(bc.Timeout),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	s := authflow.NewSession(uuid.NewString(), client, logger,
		authflow.WithTokenTimeout(time.Duration(bc.TokenTimeout)))
	s.Subscribe(func(ctx context.Context, snap authflow.Snapshot) {
		if err := s.FollowUp().Observe(ctx, snap); err != nil {
			logger.Warn("Profile update failed", "error", err)
		}
	})
	s.Mount(ctx)
	return s, nil
}

func runRegister(ctx context.Context, cfg *config.Config, logger *slog.Logger, p *prompter, opts accountOptions) error {
	var (
		form forms.RegistrationForm
		err  error
	)
	if form.Username, err = p.text("Usuário", opts.Username); err != nil {
		return err
	}
	if form.FirstName, err = p.text("Nome", opts.FirstName); err != nil {
		return err
	}
	if form.Email, err = p.text("Email", opts.Email); err != nil {
		return err
	}
	if form.Password1, err = p.password("Senha"); err != nil {
		return err
	}
	if form.Password2, err = p.password("Confirme a senha"); err != nil {
		return err
	}

	s, err := newAccountSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Register(ctx, form); err != nil {
		return report(p.out, err)
	}
	fmt.Fprintln(p.out, "Conta criada com sucesso!")

	switch f := s.FollowUp(); f.State() {
	case authflow.FollowUpDone:
		fmt.Fprintln(p.out, "Perfil atualizado.")
	case authflow.FollowUpFailed:
		fmt.Fprintf(p.out, "Não foi possível atualizar o perfil: %v\n", f.Err())
	}
	return nil
}

func runLogin(ctx context.Context, cfg *config.Config, logger *slog.Logger, p *prompter, opts accountOptions) (*authflow.Session, error) {
	var (
		form forms.LoginForm
		err  error
	)
	if form.Username, err = p.text("Usuário", opts.Username); err != nil {
		return nil, err
	}
	if form.Email, err = p.text("Email", opts.Email); err != nil {
		return nil, err
	}
	if form.Password, err = p.password("Senha"); err != nil {
		return nil, err
	}

	s, err := newAccountSession(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Login(ctx, form); err != nil {
		s.Close()
		return nil, report(p.out, err)
	}
	return s, nil
}

func runWhoami(ctx context.Context, cfg *config.Config, logger *slog.Logger, p *prompter, opts accountOptions) error {
	s, err := runLogin(ctx, cfg, logger, p, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return report(p.out, err)
	}
	if user.FirstName == "" {
		fmt.Fprintln(p.out, user.Username)
		return nil
	}
	fmt.Fprintf(p.out, "%s (%s)\n", user.Username, pages.DisplayName(user.FirstName))
	return nil
}

// report prints field messages for validation errors and returns the error
// the command should exit with.
func report(w io.Writer, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		for _, field := range slices.Sorted(maps.Keys(verr.Fields)) {
			fmt.Fprintf(w, "%s: %s\n", field, verr.Fields[field])
		}
		return errInvalidInput
	}
	return err
}
