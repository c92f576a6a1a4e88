package domain

import (
	"testing"
	"time"
)

func TestParseTaskPriority(t *testing.T) {
	if p, ok := ParseTaskPriority(" HIGH "); !ok || p != TaskPriorityHigh {
		t.Fatalf("expected high priority, got %q (ok=%v)", p, ok)
	}
	if _, ok := ParseTaskPriority("urgent"); ok {
		t.Fatalf("expected urgent to be rejected")
	}
}

func TestComputeTaskStats(t *testing.T) {
	tasks := []Task{
		{Priority: TaskPriorityHigh, Completed: true},
		{Priority: TaskPriorityHigh},
		{Priority: TaskPriorityLow},
	}

	stats := ComputeTaskStats(tasks)
	if stats.Total != 3 || stats.Completed != 1 || stats.Pending != 2 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if stats.ByPriority[TaskPriorityHigh] != 2 || stats.ByPriority[TaskPriorityLow] != 1 {
		t.Fatalf("unexpected priority breakdown %+v", stats.ByPriority)
	}
	if _, ok := stats.ByPriority[TaskPriorityMedium]; ok {
		t.Fatalf("expected no medium bucket when no medium tasks exist")
	}
}

func TestParseThemeAndLanguage(t *testing.T) {
	if th, ok := ParseTheme("Dark"); !ok || th != ThemeDark {
		t.Fatalf("expected dark theme, got %q", th)
	}
	if _, ok := ParseTheme("sepia"); ok {
		t.Fatalf("expected sepia to be rejected")
	}
	if lang, ok := ParseLanguage("zh-CN"); !ok || lang != LanguageChinese {
		t.Fatalf("expected zh-CN, got %q", lang)
	}
	if _, ok := ParseLanguage("fr"); ok {
		t.Fatalf("expected fr to be rejected")
	}
}

func TestFailurePolicy(t *testing.T) {
	if !NewFailurePolicy(ParseFailurePolicyMode("")).FailsOpen() {
		t.Fatalf("expected default policy to fail open")
	}
	if NewFailurePolicy(ParseFailurePolicyMode("Closed")).FailsOpen() {
		t.Fatalf("expected closed policy to fail closed")
	}
	var zero FailurePolicy
	if !zero.FailsOpen() {
		t.Fatalf("expected zero value to fail open")
	}
}

func TestRateLimitDecisionRetryAfter(t *testing.T) {
	now := time.Unix(1000, 0)
	denied := RateLimitDecision{Allowed: false, ResetTime: now.Add(30 * time.Second)}
	if got := denied.RetryAfter(now); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
	allowed := RateLimitDecision{Allowed: true, ResetTime: now.Add(30 * time.Second)}
	if got := allowed.RetryAfter(now); got != 0 {
		t.Fatalf("expected 0 for allowed decision, got %v", got)
	}
}
