// Package upload owns the multipart session behind a writer.
//
// A Session numbers parts from 1, records the ETag of every uploaded part in
// order, and ends either committed (all parts assembled into the object) or
// aborted. A session that never received a part is finished by aborting it
// and writing a zero-length object instead, since S3 cannot complete a
// multipart upload with no parts.
package upload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// State is the lifecycle position of a Session.
type State int

const (
	// StateOpen accepts parts.
	StateOpen State = iota
	// StateCommitted means the object was assembled from the uploaded parts.
	StateCommitted
	// StateAborted means the session was discarded.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is one multipart upload. It is not safe for concurrent use.
type Session struct {
	store    store.Store
	bucket   string
	key      string
	attrs    store.Attributes
	uploadID string
	nextPart int32
	parts    []store.Part
	state    State
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the collectors notified when the session ends.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// Start creates the remote multipart upload for bucket/key.
// Store errors are returned as is.
func Start(
	ctx context.Context,
	st store.Store,
	bucket, key string,
	attrs store.Attributes,
	opts ...Option,
) (*Session, error) {
	s := &Session{
		store:    st,
		bucket:   bucket,
		key:      key,
		attrs:    attrs,
		nextPart: 1,
		state:    StateOpen,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	uploadID, err := st.CreateMultipartSession(ctx, bucket, key, attrs)
	if err != nil {
		return nil, err
	}
	s.uploadID = uploadID

	s.logger.Info("multipart session created", "bucket", bucket, "key", key, "upload_id", uploadID)
	return s, nil
}

// UploadID returns the identifier assigned by the store.
func (s *Session) UploadID() string {
	return s.uploadID
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// NextPartNumber returns the number the next uploaded part will carry.
func (s *Session) NextPartNumber() int32 {
	return s.nextPart
}

// Parts returns a copy of the completed parts in upload order.
func (s *Session) Parts() []store.Part {
	return append([]store.Part(nil), s.parts...)
}

func (s *Session) closedError(op string) error {
	return errors.NewObjectError(op, s.bucket, s.key, errors.ErrSessionClosed).
		WithMessage(fmt.Sprintf("session %s is %s", s.uploadID, s.state))
}

// UploadPart uploads body as the next part. body is read before UploadPart
// returns and may be reused afterwards.
//
// Once s3types.MaxPartNumber parts exist it fails with ErrPartLimitExceeded
// without contacting the store; the session stays open so the caller can
// abort it.
func (s *Session) UploadPart(ctx context.Context, body []byte) error {
	if s.state != StateOpen {
		return s.closedError("uploadPart")
	}
	if s.nextPart > s3types.MaxPartNumber {
		return errors.NewObjectError("uploadPart", s.bucket, s.key, errors.ErrPartLimitExceeded).
			WithMessage(fmt.Sprintf("part %d exceeds limit of %d", s.nextPart, s3types.MaxPartNumber))
	}

	etag, err := s.store.UploadPart(ctx, s.bucket, s.key, s.uploadID, s.nextPart, body)
	if err != nil {
		return err
	}

	s.parts = append(s.parts, store.Part{Number: s.nextPart, ETag: etag})
	s.logger.Debug("uploaded part", "upload_id", s.uploadID, "part", s.nextPart, "size", len(body))
	s.nextPart++
	return nil
}

// Finish ends the session. With parts it completes the upload; a failed
// completion leaves the session open. Without parts it aborts the upload and
// writes a zero-length object.
func (s *Session) Finish(ctx context.Context) error {
	if s.state != StateOpen {
		return s.closedError("finish")
	}

	if len(s.parts) == 0 {
		return s.finishEmpty(ctx)
	}

	if err := s.store.CompleteMultipartSession(ctx, s.bucket, s.key, s.uploadID, s.Parts()); err != nil {
		return err
	}
	s.state = StateCommitted
	s.metrics.SessionFinished(metrics.OutcomeCommitted)

	s.logger.Info("multipart session committed",
		"bucket", s.bucket, "key", s.key, "upload_id", s.uploadID, "parts", len(s.parts))
	return nil
}

func (s *Session) finishEmpty(ctx context.Context) error {
	if err := s.store.AbortMultipartSession(ctx, s.bucket, s.key, s.uploadID); err != nil {
		return err
	}
	s.state = StateAborted

	if err := s.store.PutEmptyObject(ctx, s.bucket, s.key, s.attrs); err != nil {
		return err
	}
	s.metrics.SessionFinished(metrics.OutcomeEmpty)

	s.logger.Info("wrote empty object", "bucket", s.bucket, "key", s.key, "upload_id", s.uploadID)
	return nil
}

// Abort discards the session and any uploaded parts. It fails with
// ErrSessionClosed, without contacting the store, once the session has ended.
func (s *Session) Abort(ctx context.Context) error {
	if s.state != StateOpen {
		return s.closedError("abort")
	}

	if err := s.store.AbortMultipartSession(ctx, s.bucket, s.key, s.uploadID); err != nil {
		return err
	}
	s.state = StateAborted
	s.metrics.SessionFinished(metrics.OutcomeAborted)

	s.logger.Info("multipart session aborted",
		"bucket", s.bucket, "key", s.key, "upload_id", s.uploadID, "parts", len(s.parts))
	return nil
}
