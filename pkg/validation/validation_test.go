package validation

import "testing"

func TestNewReport(t *testing.T) {
	r := NewReport()
	if !r.Valid {
		t.Error("new report should be valid")
	}
	if len(r.Errors) != 0 || len(r.Warnings) != 0 || len(r.Info) != 0 {
		t.Error("new report should have empty slices")
	}
}

func TestAddSeverity(t *testing.T) {
	tests := []struct {
		name      string
		add       func(*Report, Result)
		severity  Severity
		wantValid bool
		summary   string
	}{
		{"error", (*Report).AddError, SeverityError, false, "1 errors, 0 warnings, 0 info"},
		{"warning", (*Report).AddWarning, SeverityWarning, true, "0 errors, 1 warnings, 0 info"},
		{"info", (*Report).AddInfo, SeverityInfo, true, "0 errors, 0 warnings, 1 info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport()
			tt.add(r, Result{Level: LevelDocument, Source: "scenarios.json", Message: "finding", Severity: "bogus"})
			if r.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", r.Valid, tt.wantValid)
			}
			all := append(append(append([]Result{}, r.Errors...), r.Warnings...), r.Info...)
			if len(all) != 1 {
				t.Fatalf("expected exactly 1 result, got %d", len(all))
			}
			if all[0].Severity != tt.severity {
				t.Errorf("severity = %q, want %q", all[0].Severity, tt.severity)
			}
			if r.Summary != tt.summary {
				t.Errorf("summary = %q, want %q", r.Summary, tt.summary)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	r1 := NewReport()
	r1.AddWarning(Result{Level: LevelDocument, Message: "warn1"})

	r2 := NewReport()
	r2.AddError(Result{Level: LevelManifest, Message: "err1"})
	r2.AddWarning(Result{Level: LevelManifest, Message: "warn2"})
	r2.AddInfo(Result{Level: LevelManifest, Message: "info1"})

	r1.Merge(r2)

	if r1.Valid {
		t.Error("merged report should be invalid when other has errors")
	}
	if len(r1.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(r1.Errors))
	}
	if len(r1.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %d", len(r1.Warnings))
	}
	if len(r1.Info) != 1 {
		t.Errorf("expected 1 info, got %d", len(r1.Info))
	}
	if r1.Summary != "1 errors, 2 warnings, 1 info" {
		t.Errorf("unexpected summary: %s", r1.Summary)
	}
}

func TestMergeValidIntoValid(t *testing.T) {
	r1 := NewReport()
	r2 := NewReport()
	r2.AddInfo(Result{Level: LevelDocument, Message: "note"})

	r1.Merge(r2)

	if !r1.Valid {
		t.Error("merging two valid reports should stay valid")
	}
	if len(r1.Info) != 1 {
		t.Errorf("expected 1 info, got %d", len(r1.Info))
	}
}

func TestMergeNil(t *testing.T) {
	r := NewReport()
	r.Merge(nil)
	if !r.Valid || r.Summary != "0 errors, 0 warnings, 0 info" {
		t.Errorf("merging nil should be a no-op, got %+v", r)
	}
}

func TestErr(t *testing.T) {
	r := NewReport()
	if r.Err() != nil {
		t.Fatal("valid report should have nil Err")
	}
	r.AddError(Result{Level: LevelDocument, Source: "2025_kpi.json", Message: "missing regional section"})
	r.AddError(Result{Level: LevelManifest, Message: "no scenarios"})
	err := r.Err()
	if err == nil {
		t.Fatal("invalid report should return an error")
	}
	want := "2025_kpi.json: missing regional section; no scenarios"
	if err.Error() != want {
		t.Errorf("Err() = %q, want %q", err.Error(), want)
	}
}
