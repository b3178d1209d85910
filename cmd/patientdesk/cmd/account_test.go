package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/nfrund/patientdesk/internal/backend"
	"github.com/nfrund/patientdesk/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrompter(input string) (*prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return newPrompter(strings.NewReader(input), &out), &out
}

func TestRunRegister_CreatesAccountAndUpdatesProfile(t *testing.T) {
	fake := testutils.NewFakeBackend(t)
	cfg := testutils.ConfigForTests(t, fake.URL, nil)
	p, out := testPrompter("correct-horse-battery\ncorrect-horse-battery\n")

	err := runRegister(context.Background(), cfg, testutils.DiscardLogger(), p, accountOptions{
		Username:  "julia",
		FirstName: "julia",
		Email:     "julia@exemplo.com",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Conta criada com sucesso!")
	assert.Contains(t, out.String(), "Perfil atualizado.")

	patches := fake.RequestsTo(http.MethodPatch, backend.DefaultEndpoints().UserProfile)
	require.Len(t, patches, 1)
	assert.Equal(t, "Bearer tok123", patches[0].Header.Get("Authorization"))
}

func TestRunRegister_PromptsForMissingFields(t *testing.T) {
	fake := testutils.NewFakeBackend(t)
	cfg := testutils.ConfigForTests(t, fake.URL, nil)
	p, out := testPrompter("julia\njulia\njulia@exemplo.com\ncorrect-horse-battery\ncorrect-horse-battery")

	require.NoError(t, runRegister(context.Background(), cfg, testutils.DiscardLogger(), p, accountOptions{}))

	assert.Contains(t, out.String(), "Usuário: ")
	assert.Contains(t, out.String(), "Confirme a senha: ")
	assert.Len(t, fake.RequestsTo(http.MethodPost, backend.DefaultEndpoints().Registration), 1)
}

func TestRunRegister_ValidationErrorsArePrinted(t *testing.T) {
	fake := testutils.NewFakeBackend(t)
	cfg := testutils.ConfigForTests(t, fake.URL, nil)
	p, out := testPrompter("correct-horse-battery\nsomething-else-entirely\n")

	err := runRegister(context.Background(), cfg, testutils.DiscardLogger(), p, accountOptions{
		Username:  "julia",
		FirstName: "julia",
		Email:     "julia@exemplo.com",
	})

	assert.ErrorIs(t, err, errInvalidInput)
	assert.Contains(t, out.String(), "password2: As senhas não coincidem")
	assert.Empty(t, fake.RequestsTo(http.MethodPost, backend.DefaultEndpoints().Registration))
}

func TestRunRegister_BackendRejection(t *testing.T) {
	fake := testutils.NewFakeBackend(t)
	fake.Fail(http.MethodPost, backend.DefaultEndpoints().Registration, http.StatusBadRequest)
	cfg := testutils.ConfigForTests(t, fake.URL, nil)
	p, _ := testPrompter("correct-horse-battery\ncorrect-horse-battery\n")

	err := runRegister(context.Background(), cfg, testutils.DiscardLogger(), p, accountOptions{
		Username:  "julia",
		FirstName: "julia",
		Email:     "julia@exemplo.com",
	})

	require.Error(t, err)
	assert.False(t, errors.Is(err, errInvalidInput))
	assert.Empty(t, fake.RequestsTo(http.MethodPatch, backend.DefaultEndpoints().UserProfile))
}

func TestRunWhoami_PrintsCurrentUser(t *testing.T) {
	fake := testutils.NewFakeBackend(t)
	cfg := testutils.ConfigForTests(t, fake.URL, nil)
	p, out := testPrompter("123456789012\n")

	err := runWhoami(context.Background(), cfg, testutils.DiscardLogger(), p, accountOptions{
		Username: "julia",
		Email:    "julia@exemplo.com",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "julia (Julia)")
	logins := fake.RequestsTo(http.MethodPost, backend.DefaultEndpoints().Login)
	require.Len(t, logins, 1)
	assert.Equal(t, "abc", logins[0].Header.Get("X-CSRFToken"))
}

func TestPrompter_ReadsPasswordFromTerminal(t *testing.T) {
	p, out := testPrompter("")
	p.terminal = true
	p.readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	pw, err := p.password("Senha")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, "Senha: \n", out.String())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "PatientDesk v")
}
