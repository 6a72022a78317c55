package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	domain "intake-triage/internal/domain/audit"
)

func TestAuditAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	entry := &domain.Entry{
		RunID:          "run-1",
		Timestamp:      ts,
		Source:         "email_upload",
		Classification: `{"format":"email"}`,
		AgentData:      `{"agent":"email_agent"}`,
		Actions:        `{"agent":"action_router"}`,
	}

	mock.ExpectExec("INSERT INTO intake_audit").
		WithArgs("run-1", ts, "email_upload", `{"format":"email"}`, `{"agent":"email_agent"}`, `{"agent":"action_router"}`, "").
		WillReturnResult(sqlmock.NewResult(7, 1))

	repo := NewAuditRepository(db)
	id, err := repo.Append(context.Background(), entry)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAuditAppendFillsBlanks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// empty blobs become {}, empty strings become -
	mock.ExpectExec("INSERT INTO intake_audit").
		WithArgs("-", sqlmock.AnyArg(), "-", "{}", "{}", "{}", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewAuditRepository(db)
	if _, err := repo.Append(context.Background(), &domain.Entry{}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAuditListAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "run_id", "ts", "source", "classification", "agent_data", "actions", "artifact_url"}).
		AddRow(1, "run-1", ts, "email_upload", `{"format":"email"}`, `{}`, `{}`, "").
		AddRow(2, "run-2", ts.Add(time.Minute), "pdf_upload", `{"format":"pdf"}`, `{}`, `{}`, "http://minio/intake/x.pdf")

	mock.ExpectQuery("SELECT (.+) FROM intake_audit").WillReturnRows(rows)

	repo := NewAuditRepository(db)
	entries, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ID != 1 || entries[1].ID != 2 {
		t.Fatalf("insertion order not preserved: %v, %v", entries[0].ID, entries[1].ID)
	}
	if entries[1].ArtifactURL != "http://minio/intake/x.pdf" {
		t.Fatalf("artifact url = %q", entries[1].ArtifactURL)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAuditPaginateDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "run_id", "ts", "source", "classification", "agent_data", "actions", "artifact_url"})
	mock.ExpectQuery("SELECT (.+) FROM intake_audit").
		WithArgs(20, 0).
		WillReturnRows(rows)

	repo := NewAuditRepository(db)
	// out-of-range page and size fall back to page 1, size 20
	if _, err := repo.Paginate(context.Background(), -3, 0); err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAuditSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"source", "total"}).
		AddRow("email_upload", 5).
		AddRow("json_webhook", 2)

	mock.ExpectQuery("SELECT source, COUNT").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	repo := NewAuditRepository(db)
	summary, err := repo.Summary(context.Background(), 7)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(summary) != 2 || summary[0].Source != "email_upload" || summary[0].Total != 5 {
		t.Fatalf("summary = %+v", summary)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
