package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/adsgram/backend/internal/apperr"
	"github.com/adsgram/backend/internal/models"
)

var ErrInvalidProfile = apperr.New(apperr.KindInvalidInput, "invalid profile")

// Field is an optional profile value that tells an absent JSON key apart
// from an explicit null.
type Field struct {
	Set   bool
	Value *string
}

func (f *Field) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	f.Value = &s
	return nil
}

// ProfileUpdate is a partial profile edit. Unset fields keep their stored
// value; set fields that are null or blank clear it.
type ProfileUpdate struct {
	Name          Field `json:"name"`
	WalletAddress Field `json:"walletAddress"`
	PixKey        Field `json:"pixKey"`
}

func (p ProfileUpdate) empty() bool {
	return !p.Name.Set && !p.WalletAddress.Set && !p.PixKey.Set
}

type fieldRule struct {
	name     string
	min, max int
}

var (
	nameRule   = fieldRule{"name", 1, 80}
	walletRule = fieldRule{"walletAddress", 16, 120}
	pixRule    = fieldRule{"pixKey", 5, 120}
)

func (r fieldRule) normalize(f Field) (Field, error) {
	if !f.Set || f.Value == nil {
		return f, nil
	}
	v := strings.TrimSpace(*f.Value)
	if v == "" {
		return Field{Set: true}, nil
	}
	if n := utf8.RuneCountInString(v); n < r.min || n > r.max {
		return f, ErrInvalidProfile.Detail(fmt.Sprintf("%s must be %d to %d characters", r.name, r.min, r.max))
	}
	return Field{Set: true, Value: &v}, nil
}

func (p ProfileUpdate) normalize() (ProfileUpdate, error) {
	var err error
	if p.Name, err = nameRule.normalize(p.Name); err != nil {
		return p, err
	}
	if p.WalletAddress, err = walletRule.normalize(p.WalletAddress); err != nil {
		return p, err
	}
	if p.PixKey, err = pixRule.normalize(p.PixKey); err != nil {
		return p, err
	}
	return p, nil
}

// UpdateProfile applies a partial edit to the user's name and payout
// destinations. Withdrawals already requested keep their own snapshot.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	upd, err := upd.normalize()
	if err != nil {
		return nil, err
	}
	if upd.empty() {
		return s.users.GetByID(ctx, userID)
	}
	u, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}
