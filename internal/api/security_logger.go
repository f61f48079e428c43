package api

import (
	"log"
	"time"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
)

// SecurityLogger writes audit and security events without exposing raw seeds.
type SecurityLogger struct {
	logger *log.Logger
}

// NewSecurityLogger writes audit lines to logger.
func NewSecurityLogger(logger *log.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger}
}

// LogVerifyOperation records a verification by seed hashes only.
func (sl *SecurityLogger) LogVerifyOperation(requestID string, seeds engine.Seeds, nonce uint64, result string) {
	sl.logger.Printf(
		"verify_operation request_id=%s server_hash=%s client_hash=%s nonce=%d result=%q engine_version=%s timestamp=%s",
		requestID,
		hashSeed(seeds.Server),
		hashSeed(seeds.Client),
		nonce,
		result,
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSeedHashOperation logs the hash of the input seed and the returned digest.
func (sl *SecurityLogger) LogSeedHashOperation(requestID, serverSeed, resultHash string) {
	sl.logger.Printf(
		"seed_hash_operation request_id=%s input_hash=%s result_hash=%s engine_version=%s timestamp=%s",
		requestID,
		hashSeed(serverSeed),
		resultHash,
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSecurityEvent records failed validations and suspicious requests.
func (sl *SecurityLogger) LogSecurityEvent(
	requestID string,
	eventType string,
	description string,
	context map[string]interface{},
	remoteAddr string,
) {
	sl.logger.Printf(
		"security_event request_id=%s type=%s description=%q context=%+v remote_addr=%s engine_version=%s timestamp=%s",
		requestID,
		eventType,
		description,
		sanitizeContext(context),
		remoteAddr,
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogAuditEvent records session lifecycle and probe outcomes.
func (sl *SecurityLogger) LogAuditEvent(
	requestID string,
	action string,
	resource string,
	outcome string,
	details map[string]interface{},
) {
	sl.logger.Printf(
		"audit_event request_id=%s action=%s resource=%s outcome=%s details=%+v engine_version=%s timestamp=%s",
		requestID,
		action,
		resource,
		outcome,
		sanitizeContext(details),
		EngineVersion,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSystemStartup records the server's initial state.
func (sl *SecurityLogger) LogSystemStartup(details map[string]interface{}) {
	sl.logger.Printf(
		"system_startup details=%+v engine_version=%s git_commit=%s build_time=%s timestamp=%s",
		sanitizeContext(details),
		EngineVersion,
		GitCommit,
		BuildTime,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// hashSeed returns the first 16 hex chars of the seed's sha256.
func hashSeed(seed string) string {
	if seed == "" {
		return "empty"
	}
	return engine.HashServerSeed(seed)[:16]
}

func sanitizeContext(ctx map[string]interface{}) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	out := make(map[string]interface{}, len(ctx))
	for key, value := range ctx {
		switch key {
		case "server_seed", "client_seed", "serverSeed", "clientSeed":
			if s, ok := value.(string); ok {
				out[key+"_hash"] = hashSeed(s)
			}
		default:
			out[key] = value
		}
	}
	return out
}
