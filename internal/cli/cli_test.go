package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
)

type fakeBackend struct {
	closeResult *service.AutoCloseResult
	report      *entity.DailyReport
	gotTenant   uuid.UUID
	released    bool
}

func (f *fakeBackend) AutoDailyClose(ctx context.Context) (*service.AutoCloseResult, error) {
	return f.closeResult, nil
}

func (f *fakeBackend) GenerateReport(ctx context.Context, sessionID uuid.UUID) (*entity.DailyReport, error) {
	f.gotTenant, _ = repository.GetTenantID(ctx)
	if sessionID != f.report.SessionID {
		return nil, errors.New("not found")
	}
	return f.report, nil
}

func (f *fakeBackend) PDF(ctx context.Context, sessionID uuid.UUID) ([]byte, *entity.DailyReport, error) {
	return []byte("%PDF-1.3 test"), f.report, nil
}

func (f *fakeBackend) opener() Opener {
	return func(ctx context.Context) (*Backend, func(), error) {
		return &Backend{Closer: f, Reports: f, Exports: f}, func() { f.released = true }, nil
	}
}

func execute(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, name := range []string{"close-day", "report"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, (&fakeBackend{}).opener(), "close-day", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCloseDay(t *testing.T) {
	closed := uuid.New()

	t.Run("all closed", func(t *testing.T) {
		f := &fakeBackend{closeResult: &service.AutoCloseResult{Closed: []uuid.UUID{closed}, Skipped: 1}}
		out, err := execute(t, f.opener(), "close-day")
		require.NoError(t, err)
		assert.Contains(t, out, "closed: 1  skipped: 1  failed: 0")
		assert.Contains(t, out, closed.String())
		assert.True(t, f.released)
	})

	t.Run("failures exit 1", func(t *testing.T) {
		failed := uuid.New()
		f := &fakeBackend{closeResult: &service.AutoCloseResult{
			Failed: []service.AutoCloseFailure{{SessionID: failed, Error: "boom"}},
		}}
		out, err := execute(t, f.opener(), "close-day", "--format", "json")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var result service.AutoCloseResult
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		require.Len(t, result.Failed, 1)
		assert.Equal(t, failed, result.Failed[0].SessionID)
	})

	t.Run("connection error exit 2", func(t *testing.T) {
		open := func(ctx context.Context) (*Backend, func(), error) {
			return nil, nil, errors.New("connection refused")
		}
		_, err := execute(t, open, "close-day")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestReport(t *testing.T) {
	tenantID := uuid.New()
	report := &entity.DailyReport{
		SessionID:    uuid.New(),
		BusinessDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalRevenue: decimal.RequireFromString("125.50"),
		ReceiptCount: 3,
		IsFinal:      true,
	}

	t.Run("text", func(t *testing.T) {
		f := &fakeBackend{report: report}
		out, err := execute(t, f.opener(), "report", "--tenant", tenantID.String(), "--session", report.SessionID.String())
		require.NoError(t, err)
		assert.Equal(t, tenantID, f.gotTenant)
		assert.Contains(t, out, "Z report 2024-03-15 (final)")
		assert.Contains(t, out, "125.50")
	})

	t.Run("pdf", func(t *testing.T) {
		f := &fakeBackend{report: report}
		path := filepath.Join(t.TempDir(), "z.pdf")
		out, err := execute(t, f.opener(), "report", "--tenant", tenantID.String(), "--session", report.SessionID.String(), "--pdf", path)
		require.NoError(t, err)
		assert.Contains(t, out, "wrote "+path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	})

	t.Run("bad session id", func(t *testing.T) {
		_, err := execute(t, (&fakeBackend{report: report}).opener(), "report", "--tenant", tenantID.String(), "--session", "nope")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("missing flags", func(t *testing.T) {
		_, err := execute(t, (&fakeBackend{report: report}).opener(), "report")
		require.Error(t, err)
	})
}
