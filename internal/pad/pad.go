// Package pad is the single encrypted note: it composes the envelope
// cipher, the passphrase session and the storage providers.
package pad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hoverpad/hoverpad/internal/crypto"
	"github.com/hoverpad/hoverpad/internal/logger"
	"github.com/hoverpad/hoverpad/internal/session"
	"github.com/hoverpad/hoverpad/internal/storage"
)

// ResetNotice replaces a stored pad that could not be parsed as an
// envelope.
const ResetNotice = "Reset previously malformed saved pad"

// ErrSyncDisabled is returned by Sync when no remote store is configured.
var ErrSyncDisabled = errors.New("sync is not configured")

// Passphrases is the part of the session manager the pad needs.
type Passphrases interface {
	Unlock(ctx context.Context, passphrase string) error
	Lock(ctx context.Context) error
	Passphrase(ctx context.Context) (string, error)
	Touch(ctx context.Context) error
}

// Remote reconciles the pad with a remote store.
type Remote interface {
	SyncPad(ctx context.Context, local *storage.PadRecord) (*storage.PadRecord, error)
}

// SyncResult describes the outcome of Sync.
type SyncResult struct {
	Pulled  bool
	Version int64
}

// Service reads and writes the pad.
type Service struct {
	store   storage.Provider
	session Passphrases
	remote  Remote
	now     func() time.Time
	logger  *logger.Logger
}

// NewService creates a pad service. remote may be nil.
func NewService(store storage.Provider, session Passphrases, remote Remote, l *logger.Logger) *Service {
	if l == nil {
		l = logger.Nop()
	}
	return &Service{
		store:   store,
		session: session,
		remote:  remote,
		now:     time.Now,
		logger:  l,
	}
}

// Open returns the decrypted pad, or "" when nothing is stored.
func (s *Service) Open(ctx context.Context) (string, error) {
	values, err := s.store.Get(ctx, storage.KeyPad)
	if err != nil {
		return "", fmt.Errorf("failed to load pad: %w", err)
	}

	envelope := values[storage.KeyPad]
	if envelope == "" {
		return "", nil
	}

	passphrase, err := s.session.Passphrase(ctx)
	if err != nil {
		return "", err
	}

	content, err := crypto.Decrypt(passphrase, envelope)
	if err != nil {
		if errors.Is(err, crypto.ErrMalformedEnvelope) {
			s.logger.Warn().Err(err).Msg("stored pad is malformed, resetting")
			return ResetNotice, nil
		}
		return "", fmt.Errorf("failed to open pad: %w", err)
	}

	return content, nil
}

// Unlock unlocks the session with passphrase and checks that it opens the
// stored pad. Any failure to open the pad locks the session again.
func (s *Service) Unlock(ctx context.Context, passphrase string) error {
	if err := s.session.Unlock(ctx, passphrase); err != nil {
		return err
	}

	if _, err := s.Open(ctx); err != nil {
		if lockErr := s.session.Lock(ctx); lockErr != nil {
			s.logger.Error().Err(lockErr).Msg("failed to lock after rejected unlock")
		}
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return fmt.Errorf("wrong passphrase: %w", err)
		}
		return err
	}
	return nil
}

// Save encrypts content and stores it as the new pad version. Saving empty
// content clears the pad.
func (s *Service) Save(ctx context.Context, content string) error {
	if content == "" {
		return s.Clear(ctx)
	}

	passphrase, err := s.session.Passphrase(ctx)
	if err != nil {
		return err
	}

	envelope, err := crypto.Encrypt(passphrase, content)
	if err != nil {
		return fmt.Errorf("failed to encrypt pad: %w", err)
	}

	if err := s.write(ctx, storage.Value(envelope)); err != nil {
		return err
	}

	if err := s.session.Touch(ctx); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// Clear removes the pad content. The version still advances so that sync
// propagates the clear.
func (s *Service) Clear(ctx context.Context) error {
	return s.write(ctx, nil)
}

func (s *Service) write(ctx context.Context, envelope *string) error {
	rec, err := s.local(ctx)
	if err != nil {
		return err
	}

	if rec.PadID == "" {
		rec.PadID = uuid.New().String()
	}
	rec.Version++
	rec.SetModifiedAt(s.now())

	err = s.store.Set(ctx, map[string]*string{
		storage.KeyPad:           envelope,
		storage.KeyPadID:         storage.Value(rec.PadID),
		storage.KeyPadVersion:    storage.FormatInt(rec.Version),
		storage.KeyPadModifiedAt: storage.Value(rec.ModifiedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to save pad: %w", err)
	}

	s.logger.Debug().Int64("version", rec.Version).Msg("pad saved")
	return nil
}

func (s *Service) local(ctx context.Context) (*storage.PadRecord, error) {
	values, err := s.store.Get(ctx,
		storage.KeyPad, storage.KeyPadID, storage.KeyPadVersion, storage.KeyPadModifiedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load pad: %w", err)
	}

	version, _ := storage.ParseInt(values[storage.KeyPadVersion])
	return &storage.PadRecord{
		PadID:      values[storage.KeyPadID],
		Envelope:   values[storage.KeyPad],
		Version:    version,
		ModifiedAt: values[storage.KeyPadModifiedAt],
	}, nil
}

// Record returns the stored pad as it would travel to a remote store.
func (s *Service) Record(ctx context.Context) (*storage.PadRecord, error) {
	return s.local(ctx)
}

// Restore replaces the stored pad with the envelope of rec. The restored
// pad becomes the next local version so that sync pushes it.
func (s *Service) Restore(ctx context.Context, rec *storage.PadRecord) error {
	if rec.Envelope == "" {
		return s.Clear(ctx)
	}
	if _, err := crypto.DecodeBase64(rec.Envelope); err != nil {
		return fmt.Errorf("%w: %v", crypto.ErrMalformedEnvelope, err)
	}
	return s.write(ctx, storage.Value(rec.Envelope))
}

// Rekey re-encrypts the pad under newPassphrase and unlocks the session
// with it. The new envelope is stored before the session switches, so a
// failed write leaves both the pad and the session on the old passphrase.
func (s *Service) Rekey(ctx context.Context, newPassphrase string) error {
	if newPassphrase == "" {
		return session.ErrEmptyPassphrase
	}

	stored, content, err := s.decryptStored(ctx)
	if err != nil {
		return err
	}

	if stored != "" {
		envelope, err := crypto.Encrypt(newPassphrase, content)
		if err != nil {
			return fmt.Errorf("failed to encrypt pad: %w", err)
		}
		if err := s.write(ctx, storage.Value(envelope)); err != nil {
			return err
		}
	}

	if err := s.session.Unlock(ctx, newPassphrase); err != nil {
		if stored != "" {
			if rbErr := s.write(ctx, storage.Value(stored)); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to restore pad after rekey")
			}
		}
		return fmt.Errorf("failed to switch passphrase: %w", err)
	}

	s.logger.Info().Msg("pad rekeyed")
	return nil
}

// decryptStored returns the stored envelope and its plaintext.
func (s *Service) decryptStored(ctx context.Context) (string, string, error) {
	passphrase, err := s.session.Passphrase(ctx)
	if err != nil {
		return "", "", err
	}

	values, err := s.store.Get(ctx, storage.KeyPad)
	if err != nil {
		return "", "", fmt.Errorf("failed to load pad: %w", err)
	}

	envelope := values[storage.KeyPad]
	if envelope == "" {
		return "", "", nil
	}

	content, err := crypto.Decrypt(passphrase, envelope)
	if err != nil {
		return "", "", fmt.Errorf("failed to open pad: %w", err)
	}
	return envelope, content, nil
}

// Sync reconciles the local pad with the remote store. Envelopes travel
// encrypted, so no passphrase is needed.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	if s.remote == nil {
		return SyncResult{}, ErrSyncDisabled
	}

	local, err := s.local(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	newID := local.PadID == ""
	if newID {
		local.PadID = uuid.New().String()
	}

	winner, err := s.remote.SyncPad(ctx, local)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to sync pad: %w", err)
	}

	if *winner == *local {
		if newID {
			if err := s.store.Set(ctx, map[string]*string{storage.KeyPadID: storage.Value(local.PadID)}); err != nil {
				return SyncResult{}, fmt.Errorf("failed to save pad id: %w", err)
			}
		}
		s.logger.Info().Int64("version", local.Version).Msg("pad pushed")
		return SyncResult{Version: local.Version}, nil
	}

	if winner.Version == local.Version {
		s.logger.Warn().Int64("version", local.Version).Msg("pad edited on two devices, keeping the later edit")
	}

	var envelope *string
	if winner.Envelope != "" {
		envelope = storage.Value(winner.Envelope)
	}
	err = s.store.Set(ctx, map[string]*string{
		storage.KeyPad:           envelope,
		storage.KeyPadID:         storage.Value(winner.PadID),
		storage.KeyPadVersion:    storage.FormatInt(winner.Version),
		storage.KeyPadModifiedAt: storage.Value(winner.ModifiedAt),
	})
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to store pulled pad: %w", err)
	}

	s.logger.Info().Int64("version", winner.Version).Msg("pad pulled")
	return SyncResult{Pulled: true, Version: winner.Version}, nil
}
