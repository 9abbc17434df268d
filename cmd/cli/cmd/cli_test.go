package cmd

// The CLI package uses package-level variables for cobra flags, which is
// shared mutable state between tests. setupTestWithCleanup acquires a mutex,
// saves the current state, resets to defaults and restores on cleanup, so
// tests here cannot use t.Parallel().

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/civilmastersolution/cms-backend/internal/storage"
)

var testMu sync.Mutex

type globalStateSnapshot struct {
	dbPath       string
	outputFormat string

	adminEmail    string
	adminPassword string

	spendRedisAddr     string
	spendRedisPassword string
	spendRedisDB       int
	spendBudget        float64
}

func saveGlobalState() globalStateSnapshot {
	return globalStateSnapshot{
		dbPath:             dbPath,
		outputFormat:       outputFormat,
		adminEmail:         adminEmail,
		adminPassword:      adminPassword,
		spendRedisAddr:     spendRedisAddr,
		spendRedisPassword: spendRedisPassword,
		spendRedisDB:       spendRedisDB,
		spendBudget:        spendBudget,
	}
}

func restoreGlobalState(saved globalStateSnapshot) {
	dbPath = saved.dbPath
	outputFormat = saved.outputFormat
	adminEmail = saved.adminEmail
	adminPassword = saved.adminPassword
	spendRedisAddr = saved.spendRedisAddr
	spendRedisPassword = saved.spendRedisPassword
	spendRedisDB = saved.spendRedisDB
	spendBudget = saved.spendBudget
}

func setupTestWithCleanup(t *testing.T) {
	t.Helper()

	testMu.Lock()
	saved := saveGlobalState()

	dbPath = filepath.Join(t.TempDir(), "cli-test.db")
	outputFormat = "table"
	adminEmail = ""
	adminPassword = ""

	t.Cleanup(func() {
		restoreGlobalState(saved)
		testMu.Unlock()
	})
}

// captureOutput captures stdout during function execution
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func writeKnowledgeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write knowledge file: %v", err)
	}
	return path
}

func TestAdminCreateCommand(t *testing.T) {
	setupTestWithCleanup(t)

	adminEmail = "ops@example.com"
	adminPassword = "correct-horse-battery"

	output := captureOutput(func() {
		if err := runAdminCreate(nil, []string{"ops"}); err != nil {
			t.Errorf("runAdminCreate returned error: %v", err)
		}
	})

	if !strings.Contains(output, `Created admin "ops"`) {
		t.Errorf("expected creation message, got: %s", output)
	}

	db, err := storage.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	admin, err := storage.NewAdminStore(db).GetByUsername(context.Background(), "ops")
	if err != nil {
		t.Fatalf("expected admin to exist: %v", err)
	}
	if admin.Email != "ops@example.com" {
		t.Errorf("expected email to be stored, got: %s", admin.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("correct-horse-battery")); err != nil {
		t.Errorf("stored hash does not verify against the password: %v", err)
	}
}

func TestAdminCreateCommand_ExistingRotatesPassword(t *testing.T) {
	setupTestWithCleanup(t)

	adminPassword = "original-password"
	captureOutput(func() {
		if err := runAdminCreate(nil, []string{"ops"}); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
	})

	adminPassword = "rotated-password"
	output := captureOutput(func() {
		if err := runAdminCreate(nil, []string{"ops"}); err != nil {
			t.Errorf("second create returned error: %v", err)
		}
	})
	if !strings.Contains(output, "already exists, password updated") {
		t.Errorf("expected rotation message, got: %s", output)
	}

	db, err := storage.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	admin, err := storage.NewAdminStore(db).GetByUsername(context.Background(), "ops")
	if err != nil {
		t.Fatalf("expected admin to exist: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("rotated-password")); err != nil {
		t.Errorf("hash does not verify against the rotated password: %v", err)
	}
}

func TestAdminCreateCommand_ShortPassword(t *testing.T) {
	setupTestWithCleanup(t)

	adminPassword = "short"

	err := runAdminCreate(nil, []string{"ops"})
	if err == nil {
		t.Fatal("expected error for short password")
	}
	if !strings.Contains(err.Error(), "at least 8 characters") {
		t.Errorf("expected password length error, got: %v", err)
	}
}

func TestAdminPasswdCommand(t *testing.T) {
	setupTestWithCleanup(t)

	adminPassword = "original-password"
	captureOutput(func() {
		if err := runAdminCreate(nil, []string{"ops"}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	})

	adminPassword = "rotated-password"
	output := captureOutput(func() {
		if err := runAdminPasswd(nil, []string{"ops"}); err != nil {
			t.Errorf("runAdminPasswd returned error: %v", err)
		}
	})

	if !strings.Contains(output, `Updated password for "ops"`) {
		t.Errorf("expected update message, got: %s", output)
	}

	db, err := storage.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	admin, err := storage.NewAdminStore(db).GetByUsername(context.Background(), "ops")
	if err != nil {
		t.Fatalf("expected admin to exist: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("rotated-password")); err != nil {
		t.Errorf("hash does not verify against the new password: %v", err)
	}
}

func TestAdminPasswdCommand_NotFound(t *testing.T) {
	setupTestWithCleanup(t)

	// Migrate so the table exists but stays empty.
	adminPassword = "bootstrap-password"
	captureOutput(func() {
		if err := runAdminCreate(nil, []string{"someone-else"}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	})

	err := runAdminPasswd(nil, []string{"ghost"})
	if err == nil {
		t.Fatal("expected error for unknown admin")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' error, got: %v", err)
	}
}

func TestAdminDeleteCommand(t *testing.T) {
	setupTestWithCleanup(t)

	adminPassword = "correct-horse-battery"
	captureOutput(func() {
		if err := runAdminCreate(nil, []string{"ops"}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	})

	output := captureOutput(func() {
		if err := runAdminDelete(nil, []string{"ops"}); err != nil {
			t.Errorf("runAdminDelete returned error: %v", err)
		}
	})
	if !strings.Contains(output, `Deleted admin "ops"`) {
		t.Errorf("expected deletion message, got: %s", output)
	}

	err := runAdminDelete(nil, []string{"ops"})
	if err == nil {
		t.Fatal("expected error deleting the admin twice")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected 'not found' error, got: %v", err)
	}
}

func TestKnowledgeValidateCommand(t *testing.T) {
	setupTestWithCleanup(t)

	path := writeKnowledgeFile(t, `{"qa_pairs": [
		{"question": "What is SFRC?", "answer": "Steel fiber reinforced concrete.", "lang": "en"},
		{"question": "Where are you located?", "answer": "Bangkok.", "lang": "en"},
		{"question": "SFRC คืออะไร", "answer": "คอนกรีตเสริมใยเหล็ก", "lang": "th"}
	]}`)

	output := captureOutput(func() {
		if err := runKnowledgeValidate(nil, []string{path}); err != nil {
			t.Errorf("runKnowledgeValidate returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Total Pairs:   3") {
		t.Errorf("expected total pair count, got: %s", output)
	}
	if !strings.Contains(output, "en") || !strings.Contains(output, "th") {
		t.Errorf("expected per-language counts, got: %s", output)
	}
	if strings.Contains(output, "Duplicate") {
		t.Errorf("did not expect duplicates, got: %s", output)
	}
}

func TestKnowledgeValidateCommand_Duplicates(t *testing.T) {
	setupTestWithCleanup(t)

	path := writeKnowledgeFile(t, `{"qa_pairs": [
		{"question": "What is SFRC?", "answer": "First answer.", "lang": "en"},
		{"question": "what is sfrc?", "answer": "Shadowed answer.", "lang": "en"}
	]}`)

	output := captureOutput(func() {
		if err := runKnowledgeValidate(nil, []string{path}); err != nil {
			t.Errorf("runKnowledgeValidate returned error: %v", err)
		}
	})

	if !strings.Contains(output, "Duplicate Questions (1)") {
		t.Errorf("expected one duplicate to be reported, got: %s", output)
	}
}

func TestKnowledgeValidateCommand_EmptyEntry(t *testing.T) {
	setupTestWithCleanup(t)

	path := writeKnowledgeFile(t, `{"qa_pairs": [
		{"question": "What is SFRC?", "answer": "", "lang": "en"}
	]}`)

	var err error
	captureOutput(func() {
		err = runKnowledgeValidate(nil, []string{path})
	})
	if err == nil {
		t.Fatal("expected error for empty answer")
	}
	if !strings.Contains(err.Error(), "empty question or answer") {
		t.Errorf("expected empty-entry error, got: %v", err)
	}
}

func TestKnowledgeValidateCommand_JSON(t *testing.T) {
	setupTestWithCleanup(t)

	path := writeKnowledgeFile(t, `{"qa_pairs": [
		{"question": "What is SFRC?", "answer": "Steel fiber reinforced concrete.", "lang": "en"}
	]}`)

	outputFormat = "json"

	output := captureOutput(func() {
		if err := runKnowledgeValidate(nil, []string{path}); err != nil {
			t.Errorf("runKnowledgeValidate returned error: %v", err)
		}
	})

	var report KnowledgeReport
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v", err)
	}
	if report.TotalPairs != 1 {
		t.Errorf("expected 1 pair, got: %d", report.TotalPairs)
	}
	if report.ByLanguage["en"] != 1 {
		t.Errorf("expected en count 1, got: %v", report.ByLanguage)
	}
}

func TestKnowledgeValidateCommand_MissingFile(t *testing.T) {
	setupTestWithCleanup(t)

	err := runKnowledgeValidate(nil, []string{filepath.Join(t.TempDir(), "missing.json")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
