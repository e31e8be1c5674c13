package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Transaction types.
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypePremium    = "premium"
)

// Transaction statuses. Deposits and premium purchases are created completed;
// withdrawals move pending -> approved | rejected exactly once.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusApproved  = "approved"
	TxStatusRejected  = "rejected"
)

const (
	PaymentPurposeDeposit = "deposit"
	PaymentPurposePremium = "premium"
)

const (
	PaymentOrderCreated = "CREATED"
	PaymentOrderPaid    = "PAID"
	PaymentOrderFailed  = "FAILED"
)

// Site setting keys. Values are stored as rupee decimals.
const (
	SettingAmountPerVideo = "amount_per_video"
	SettingReferralBonus  = "referral_bonus"
	SettingPremiumFee     = "premium_fee"
	SettingMinWithdrawal  = "min_withdrawal"
)

// DefaultSettings mirrors the values the app shipped with.
var DefaultSettings = map[string]string{
	SettingAmountPerVideo: "5",
	SettingReferralBonus:  "50",
	SettingPremiumFee:     "199",
	SettingMinWithdrawal:  "100",
}

// WithdrawalRejectPolicy decides what happens to reserved funds when an admin
// rejects a withdrawal.
type WithdrawalRejectPolicy string

const (
	RejectRefund  WithdrawalRejectPolicy = "refund"
	RejectForfeit WithdrawalRejectPolicy = "forfeit"
)

// Ledger event types.
const (
	EventVideoCredited       = "video_credited"
	EventDepositCredited     = "deposit_credited"
	EventPremiumPurchased    = "premium_purchased"
	EventWithdrawalRequested = "withdrawal_requested"
	EventWithdrawalApproved  = "withdrawal_approved"
	EventWithdrawalRejected  = "withdrawal_rejected"
	EventReferralGranted     = "referral_granted"
)

const (
	NotifWithdrawalApproved = "WITHDRAWAL_APPROVED"
	NotifWithdrawalRejected = "WITHDRAWAL_REJECTED"
	NotifReferralBonus      = "REFERRAL_BONUS"
	NotifPaymentConfirmed   = "PAYMENT_CONFIRMED"
)

const ReferralCodeLength = 6

// MaxVideoRefLength matches the video_earnings.video_ref column size.
const MaxVideoRefLength = 100

// ParseRejectPolicy accepts "refund" or "forfeit"; empty means refund.
func ParseRejectPolicy(s string) (WithdrawalRejectPolicy, bool) {
	switch WithdrawalRejectPolicy(s) {
	case "", RejectRefund:
		return RejectRefund, true
	case RejectForfeit:
		return RejectForfeit, true
	}
	return "", false
}
