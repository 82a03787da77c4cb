package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type WithdrawalMethod int16

const (
	MethodUSDT WithdrawalMethod = 0
	MethodPIX  WithdrawalMethod = 1
)

func (m WithdrawalMethod) String() string {
	switch m {
	case MethodUSDT:
		return "USDT"
	case MethodPIX:
		return "PIX"
	default:
		return fmt.Sprintf("WithdrawalMethod(%d)", int16(m))
	}
}

// ParseWithdrawalMethod accepts the method name ("USDT", "PIX") or its code.
func ParseWithdrawalMethod(v any) (WithdrawalMethod, bool) {
	switch x := v.(type) {
	case string:
		switch strings.ToUpper(strings.TrimSpace(x)) {
		case "USDT", "0":
			return MethodUSDT, true
		case "PIX", "1":
			return MethodPIX, true
		}
	case float64:
		switch x {
		case 0:
			return MethodUSDT, true
		case 1:
			return MethodPIX, true
		}
	case int:
		return ParseWithdrawalMethod(float64(x))
	}
	return 0, false
}

type WithdrawalStatus int16

const (
	WithdrawalPending   WithdrawalStatus = 0
	WithdrawalPaid      WithdrawalStatus = 1
	WithdrawalCancelled WithdrawalStatus = 2
)

func (s WithdrawalStatus) String() string {
	switch s {
	case WithdrawalPending:
		return "pending"
	case WithdrawalPaid:
		return "paid"
	case WithdrawalCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("WithdrawalStatus(%d)", int16(s))
	}
}

type Withdrawal struct {
	ID                    uuid.UUID        `json:"id"`
	UserID                uuid.UUID        `json:"user_id"`
	AmountCents           int64            `json:"amount_cents"`
	Method                WithdrawalMethod `json:"method"`
	WalletAddressSnapshot *string          `json:"wallet_address_snapshot,omitempty"`
	PixKeySnapshot        *string          `json:"pix_key_snapshot,omitempty"`
	Status                WithdrawalStatus `json:"status"`
	RequestedAt           time.Time        `json:"requested_at"`
	PaidAt                *time.Time       `json:"paid_at,omitempty"`
	PaidBy                *string          `json:"paid_by,omitempty"`
	TxRef                 *string          `json:"tx_ref,omitempty"`
	CancelledAt           *time.Time       `json:"cancelled_at,omitempty"`
	CancelledBy           *string          `json:"cancelled_by,omitempty"`
}
