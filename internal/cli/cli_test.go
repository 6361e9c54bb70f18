package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/gapfill/internal/domain"
	"github.com/shaiso/gapfill/internal/reconciler"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newGlobals(path string, jsonMode bool) (*Globals, *bytes.Buffer) {
	var stdout bytes.Buffer
	return &Globals{
		ConfigPath: path,
		JSON:       jsonMode,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stdout:     &stdout,
		Stderr:     io.Discard,
	}, &stdout
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

// webhookRecorder — Teams webhook, запоминающий полученные карточки.
type webhookRecorder struct {
	mu    sync.Mutex
	cards []map[string]any
}

func (w *webhookRecorder) handler(rw http.ResponseWriter, r *http.Request) {
	var card map[string]any
	_ = json.NewDecoder(r.Body).Decode(&card)
	w.mu.Lock()
	w.cards = append(w.cards, card)
	w.mu.Unlock()
	rw.WriteHeader(http.StatusOK)
}

func TestRunCmd_EmptyProcessList(t *testing.T) {
	t.Setenv("DB_URL", "")
	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer server.Close()

	// БД недостижима: тест падает с другой ошибкой, если run попробует подключиться
	path := writeConfig(t, `
conexao_banco: {servidor: "127.0.0.1:1", banco_de_dados: dw}
objetos_banco: {processos: []}
notificacoes:
  teams: {webhook_url: "`+server.URL+`"}
`)
	g, _ := newGlobals(path, false)

	err := execute(NewRunCmd(g))
	assert.True(t, errors.Is(err, reconciler.ErrNoProcesses), "got %v", err)

	require.Len(t, rec.cards, 1, "exactly one fatal notification")
	assert.Equal(t, domain.TitleFailed, rec.cards[0]["summary"])
	assert.Equal(t, "FF0000", rec.cards[0]["themeColor"])
}

func TestRunCmd_MissingConfig(t *testing.T) {
	g, _ := newGlobals(filepath.Join(t.TempDir(), "config.json"), false)

	err := execute(NewRunCmd(g))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCheckCmd_InvalidConfig(t *testing.T) {
	g, _ := newGlobals(writeConfig(t, "conexao_banco: {driver: odbc, servidor: h, banco_de_dados: d}\n"), false)

	err := execute(NewCheckCmd(g))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

const validateConfig = `
conexao_banco: {servidor: localhost, banco_de_dados: dw}
objetos_banco:
  processos:
    - {nome_processo: Sales, procedure_executar: load_sales, tabela_verificacao: sales, coluna_data_verificacao: sale_date}
    - {nome_processo: Broken, procedure_executar: load_broken}
agendamento: {cron: "0 6 * * *"}
`

func TestValidateCmd_Table(t *testing.T) {
	g, stdout := newGlobals(writeConfig(t, validateConfig), false)

	require.NoError(t, execute(NewValidateCmd(g)))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "PROCESS")
	assert.Contains(t, lines[2], "Sales")
	assert.Contains(t, lines[2], "ok")
	assert.Contains(t, lines[3], "skipped: incomplete process definition")
}

func TestValidateCmd_JSON(t *testing.T) {
	g, stdout := newGlobals(writeConfig(t, validateConfig), true)

	require.NoError(t, execute(NewValidateCmd(g)))

	var views []definitionView
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "ok", views[0].Status)
	assert.Equal(t, "Broken", views[1].Process)
}

func TestValidateCmd_Errors(t *testing.T) {
	g, _ := newGlobals(writeConfig(t, "conexao_banco: {servidor: h, banco_de_dados: d}\n"), false)
	assert.True(t, errors.Is(execute(NewValidateCmd(g)), reconciler.ErrNoProcesses))

	g, _ = newGlobals(writeConfig(t, "conexao_banco: {servidor: h, banco_de_dados: d}\nagendamento: {cron: 'every day'}\n"), false)
	assert.ErrorContains(t, execute(NewValidateCmd(g)), "invalid cron expression")
}

func TestServeCmd_RequiresCron(t *testing.T) {
	t.Setenv("GAPFILL_CRON", "")
	path := writeConfig(t, `
conexao_banco: {servidor: localhost, banco_de_dados: dw}
objetos_banco:
  processos:
    - {nome_processo: Sales, procedure_executar: load_sales, tabela_verificacao: sales, coluna_data_verificacao: sale_date}
`)
	g, _ := newGlobals(path, false)

	err := execute(NewServeCmd(g))
	assert.ErrorContains(t, err, "cron expression is required")
}

func TestPrintPlans(t *testing.T) {
	plans := []reconciler.ProcessPlan{
		{
			Process: "Sales", Table: "sales", Procedure: "load_sales",
			Missing: []time.Time{
				time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
			},
		},
		{Process: "Stock", Table: "stock", Procedure: "load_stock", Missing: []time.Time{}},
		{Process: "N/A", SkipReason: "incomplete process definition"},
	}

	var buf bytes.Buffer
	printPlans(newOutputTo(&buf, io.Discard, false), plans)
	out := buf.String()
	assert.Contains(t, out, "2024-03-06,2024-03-07")
	assert.Contains(t, out, "skipped: incomplete process definition")

	buf.Reset()
	printPlans(newOutputTo(&buf, io.Discard, true), plans)
	var views []planView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 3)
	assert.Equal(t, []string{"2024-03-06", "2024-03-07"}, views[0].Missing)
	assert.Equal(t, []string{}, views[1].Missing)
}

func TestNewMux(t *testing.T) {
	var last atomic.Pointer[domain.RunReport]
	server := httptest.NewServer(newMux(&last))
	defer server.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, _ = get("/report")
	assert.Equal(t, http.StatusNotFound, code)

	report := domain.NewRunReport(time.Now())
	report.Succeeded = append(report.Succeeded, "Sales (2024-03-06)")
	last.Store(report)

	code, body = get("/report")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Sales (2024-03-06)")

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")
}
