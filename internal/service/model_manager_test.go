package service

import "testing"

func TestStripMarkdownFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"plain fence", "```\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"leading fence only", "```json\n[{\"a\":1}]", `[{"a":1}]`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := stripMarkdownFences(c.in); got != c.want {
				t.Fatalf("expected %q, got %q", c.want, got)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	mm := &ModelManager{}

	if !mm.isRateLimitError(errTest("429 Too Many Requests")) {
		t.Fatal("expected 429 message to be rate limit")
	}
	if !mm.isRateLimitError(errTest(`{"code":429,"message":"quota exceeded"}`)) {
		t.Fatal("expected quota message to be rate limit")
	}
	if mm.isRateLimitError(errTest("400 bad request")) {
		t.Fatal("400 must not be rate limit")
	}
	if mm.isRateLimitError(nil) {
		t.Fatal("nil must not be rate limit")
	}
}

func TestIsServiceFailure(t *testing.T) {
	mm := &ModelManager{}

	if !mm.isServiceFailure(errTest("context deadline exceeded")) {
		t.Fatal("expected timeout to count as service failure")
	}
	if !mm.isServiceFailure(errTest("503 Service Unavailable")) {
		t.Fatal("expected 5xx to count as service failure")
	}
	if mm.isServiceFailure(errTest("invalid JSON from Gemini")) {
		t.Fatal("parse errors must not trip the breaker")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
