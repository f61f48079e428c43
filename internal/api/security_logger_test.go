package api

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
)

func TestSecurityLoggerNeverWritesSeeds(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(log.New(&buf, "", 0))

	seeds := engine.Seeds{Server: "top-secret-server", Client: "visible-client"}
	sl.LogVerifyOperation("req-1", seeds, 3, "🚩 × 6")
	sl.LogSecurityEvent("req-2", "validation_failure", "bad seed",
		map[string]interface{}{"server_seed": seeds.Server}, "127.0.0.1:1")

	out := buf.String()
	if strings.Contains(out, seeds.Server) || strings.Contains(out, seeds.Client) {
		t.Errorf("log leaked a raw seed:\n%s", out)
	}
	if !strings.Contains(out, hashSeed(seeds.Server)) {
		t.Errorf("log missing server seed hash:\n%s", out)
	}
	if !strings.Contains(out, "server_seed_hash") {
		t.Errorf("context seed was not replaced by its hash:\n%s", out)
	}
}

func TestHashSeed(t *testing.T) {
	if got := hashSeed(""); got != "empty" {
		t.Errorf("hashSeed(\"\") = %q", got)
	}
	if got := hashSeed("test"); len(got) != 16 || !strings.HasPrefix(engine.HashServerSeed("test"), got) {
		t.Errorf("hashSeed(test) = %q", got)
	}
}
