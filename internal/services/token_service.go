package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/doorline/backend/internal/audit"
	"github.com/doorline/backend/internal/config"
	"github.com/doorline/backend/internal/errs"
	"github.com/doorline/backend/internal/metrics"
	"github.com/doorline/backend/internal/models"
)

const (
	reasonUnknownToken      = "unknown token"
	reasonExpired           = "token expired"
	reasonUsed              = "token already used"
	reasonProfileMissing    = "profile not found"
	reasonSuspended         = "subject suspended"
	reasonProfileUnavail    = "profile unavailable"
	reasonNotVerified       = "identity not verified"
	reasonVerificationStale = "identity verification expired"
	reasonMembershipExpired = "membership expired"
	reasonTimeout           = "timeout"
	reasonStoreUnavailable  = "store unavailable"
)

// TokenService issues and validates single-use access tokens.
type TokenService struct {
	db       *sql.DB
	redis    *redis.Client
	profiles ProfileDirectory
	config   *config.TokenConfig
	hashKey  [32]byte
	logger   *zap.Logger
	audit    *audit.Logger
	now      func() time.Time
}

func NewTokenService(db *sql.DB, rdb *redis.Client, profiles ProfileDirectory, cfg *config.TokenConfig, logger *zap.Logger) *TokenService {
	return &TokenService{
		db:       db,
		redis:    rdb,
		profiles: profiles,
		config:   cfg,
		hashKey:  blake2b.Sum256([]byte(cfg.Pepper)),
		logger:   logger.Named("token"),
		audit:    audit.NewLogger(logger),
		now:      time.Now,
	}
}

// Issue mints a token for subjectID. Earlier unconsumed tokens stay valid.
func (s *TokenService) Issue(ctx context.Context, subjectID string) (*models.AccessToken, error) {
	if err := s.checkRateLimit(ctx, subjectID); err != nil {
		return nil, err
	}

	secret, err := s.generateSecret()
	if err != nil {
		s.refundRateLimit(ctx, subjectID)
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	now := s.now().UTC()
	token := &models.AccessToken{
		ID:         uuid.NewString(),
		SubjectID:  subjectID,
		Secret:     secret,
		SecretHash: s.hashSecret(secret),
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.config.TTL),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO access_tokens (id, subject_id, secret_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token.ID, token.SubjectID, token.SecretHash, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		s.refundRateLimit(ctx, subjectID)
		s.logger.Error("insert access token", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, fmt.Errorf("%w: insert access token: %v", errs.ErrStoreUnavailable, err)
	}

	metrics.TokensIssued.Inc()
	s.logger.Info("token issued",
		zap.String("token_id", token.ID),
		zap.String("subject_id", subjectID),
		zap.Time("expires_at", token.ExpiresAt),
	)
	return token, nil
}

// Validate consumes the presented token and returns the door decision.
// Business outcomes come back as decisions with a nil error. A non-nil error
// means the store could not answer; the returned decision is then INVALID/NO.
func (s *TokenService) Validate(ctx context.Context, req models.ScanRequest) (*models.ScanDecision, error) {
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.failClosed(ctx, req, now, err)
	}
	defer tx.Rollback()

	var (
		tokenID   string
		subjectID string
		expiresAt time.Time
		usedAt    sql.NullTime
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, subject_id, expires_at, used_at
		FROM access_tokens
		WHERE secret_hash = $1
	`, s.hashSecret(req.Token)).Scan(&tokenID, &subjectID, &expiresAt, &usedAt)

	var decision *models.ScanDecision
	switch {
	case errors.Is(err, sql.ErrNoRows):
		decision = deny(models.ScanInvalid, reasonUnknownToken)
	case err != nil:
		return s.failClosed(ctx, req, now, err)
	case usedAt.Valid:
		// used is reported before expiry, so a used-then-expired token reads USED
		decision = deny(models.ScanUsed, reasonUsed)
	case now.After(expiresAt):
		decision = deny(models.ScanExpired, reasonExpired)
	default:
		consumed, err := s.consume(ctx, tx, tokenID, now)
		if err != nil {
			return s.failClosed(ctx, req, now, err)
		}
		if !consumed {
			decision = deny(models.ScanUsed, reasonUsed)
		} else {
			decision = s.gate(ctx, subjectID, now)
		}
	}

	decision.DecidedAt = now
	if tokenID != "" {
		decision.TokenID = tokenID
		decision.ExpiresAt = &expiresAt
	}

	if err := s.writeScanLog(ctx, tx, req, decision, subjectID, now); err != nil {
		return s.failClosed(ctx, req, now, err)
	}
	if err := tx.Commit(); err != nil {
		return s.failClosed(ctx, req, now, err)
	}

	metrics.ScansTotal.WithLabelValues(string(decision.Status), string(decision.Decision)).Inc()
	s.audit.Scan(tokenID, subjectID, req.VenueID, req.DeviceID, string(decision.Status), string(decision.Decision), decision.Reason)
	return decision, nil
}

// consume is the single conditional write that makes a token single-use.
// A concurrent winner leaves zero affected rows for the loser.
func (s *TokenService) consume(ctx context.Context, tx *sql.Tx, tokenID string, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE access_tokens
		SET used_at = $1
		WHERE id = $2 AND used_at IS NULL
	`, now, tokenID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// gate refines a consumed token's outcome by the subject's standing.
func (s *TokenService) gate(ctx context.Context, subjectID string, now time.Time) *models.ScanDecision {
	profile, err := s.profiles.GetProfile(ctx, subjectID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return deny(models.ScanDenied, reasonProfileMissing)
	case err != nil:
		s.logger.Warn("profile lookup failed after consume", zap.String("subject_id", subjectID), zap.Error(err))
		return &models.ScanDecision{Status: models.ScanVerified, Decision: models.OutcomeReview, Reason: reasonProfileUnavail}
	}

	d := &models.ScanDecision{
		Status:   models.ScanVerified,
		Decision: models.OutcomeGood,
		Subject:  profile.Summary(),
	}
	switch {
	case profile.Status == models.ProfileSuspended:
		d.Status, d.Decision, d.Reason = models.ScanDenied, models.OutcomeNo, reasonSuspended
	case !profile.IDVerified:
		d.Decision, d.Reason = models.OutcomeReview, reasonNotVerified
	case profile.VerificationExpiresAt != nil && now.After(*profile.VerificationExpiresAt):
		d.Decision, d.Reason = models.OutcomeReview, reasonVerificationStale
	case profile.MembershipExpiresAt != nil && now.After(*profile.MembershipExpiresAt):
		d.Decision, d.Reason = models.OutcomeReview, reasonMembershipExpired
	}
	return d
}

func (s *TokenService) writeScanLog(ctx context.Context, tx *sql.Tx, req models.ScanRequest, d *models.ScanDecision, subjectID string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO scan_logs (id, token_id, subject_id, venue_id, device_id, status, decision, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.NewString(), nullString(d.TokenID), nullString(subjectID), req.VenueID, req.DeviceID,
		string(d.Status), string(d.Decision), d.Reason, now)
	return err
}

// failClosed turns a store failure or deadline into INVALID/NO. Nothing was
// committed, so a retried scan sees the token as it was.
func (s *TokenService) failClosed(ctx context.Context, req models.ScanRequest, now time.Time, cause error) (*models.ScanDecision, error) {
	reason := reasonStoreUnavailable
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = reasonTimeout
	}
	s.logger.Error("scan failed closed",
		zap.String("venue_id", req.VenueID),
		zap.String("device_id", req.DeviceID),
		zap.String("reason", reason),
		zap.Error(cause),
	)
	d := deny(models.ScanInvalid, reason)
	d.DecidedAt = now
	metrics.ScansTotal.WithLabelValues(string(d.Status), string(d.Decision)).Inc()
	s.audit.Scan("", "", req.VenueID, req.DeviceID, string(d.Status), string(d.Decision), reason)
	return d, fmt.Errorf("%w: %s: %v", errs.ErrStoreUnavailable, reason, cause)
}

// ScanTimeout is the bound a caller should put on Validate.
func (s *TokenService) ScanTimeout() time.Duration {
	return s.config.ScanTimeout
}

func (s *TokenService) generateSecret() (string, error) {
	b := make([]byte, s.config.SecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashSecret is a keyed BLAKE2b-256 of the bearer value. Only this is stored.
func (s *TokenService) hashSecret(secret string) string {
	h, _ := blake2b.New256(s.hashKey[:])
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}

// issueCount bumps the per-subject counter and gives it a TTL in one step. A
// counter found without a TTL gets one, so a subject is never locked out.
const issueCountSrc = `
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`

var issueCount = redis.NewScript(issueCountSrc)

func rateLimitKey(subjectID string) string {
	return fmt.Sprintf("token:ratelimit:%s", subjectID)
}

func (s *TokenService) checkRateLimit(ctx context.Context, subjectID string) error {
	if s.redis == nil || s.config.IssueLimit <= 0 {
		return nil
	}

	count, err := issueCount.Eval(ctx, s.redis, []string{rateLimitKey(subjectID)}, s.config.IssueWindow.Milliseconds()).Int64()
	if err != nil {
		s.logger.Warn("rate limit check skipped", zap.String("subject_id", subjectID), zap.Error(err))
		return nil
	}
	if count > int64(s.config.IssueLimit) {
		return fmt.Errorf("%w: %d tokens in %s", errs.ErrRateLimited, s.config.IssueLimit, s.config.IssueWindow)
	}
	return nil
}

// refundRateLimit gives back the slot taken for an issuance that was not stored.
func (s *TokenService) refundRateLimit(ctx context.Context, subjectID string) {
	if s.redis == nil || s.config.IssueLimit <= 0 {
		return
	}
	if err := s.redis.Decr(ctx, rateLimitKey(subjectID)).Err(); err != nil {
		s.logger.Warn("rate limit refund failed", zap.String("subject_id", subjectID), zap.Error(err))
	}
}

func deny(status models.ScanStatus, reason string) *models.ScanDecision {
	return &models.ScanDecision{Status: status, Decision: models.OutcomeNo, Reason: reason}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
