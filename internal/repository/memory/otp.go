package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.OTPStore = (*OTPRepository)(nil)

type OTPRepository struct {
	s *Store
}

func (r *OTPRepository) Upsert(ctx context.Context, record model.OTPRecord) error {
	defer r.s.lockWrite(ctx)()

	record.Code = ""
	record.Verified = false
	r.s.otps[otpKey{email: record.Email, typ: record.Type}] = record
	return nil
}

func (r *OTPRepository) Get(_ context.Context, email string, otpType model.OTPType) (model.OTPRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	record, ok := r.s.otps[otpKey{email: email, typ: otpType}]
	if !ok {
		return model.OTPRecord{}, model.ErrNotFound
	}
	return record, nil
}

func (r *OTPRepository) MarkVerified(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	defer r.s.lockWrite(ctx)()

	for key, record := range r.s.otps {
		if record.ID != id {
			continue
		}
		if record.Verified || !now.Before(record.ExpiresAt) {
			return false, nil
		}
		record.Verified = true
		r.s.otps[key] = record
		return true, nil
	}
	return false, nil
}

func (r *OTPRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lockWrite(ctx)()

	var n int64
	for key, record := range r.s.otps {
		if record.ExpiresAt.Before(before) || (record.Verified && record.CreatedAt.Before(before)) {
			delete(r.s.otps, key)
			n++
		}
	}
	return n, nil
}
