package booking

import (
	"errors"
	"fmt"
)

// Admission rejections. All of them are expected outcomes the caller can
// remediate; anything else returned by the engine is an infrastructure error.
var (
	ErrNotEligible      = errors.New("not eligible to book")
	ErrQuotaExceeded    = errors.New("booking quota exceeded")
	ErrSameDayConflict  = errors.New("owner already has a booking on this date")
	ErrSlotUnavailable  = errors.New("slot unavailable")
	ErrStoreConflict    = errors.New("slot was taken by a concurrent booking")
	ErrInvalidDuration  = errors.New("duration not offered by community")
	ErrOutOfHours       = errors.New("slot outside business hours")
	ErrInvalidCourt     = errors.New("court does not exist")
	ErrDelegationChain  = errors.New("group owner is itself delegated")
	errInvalidCommunity = errors.New("community configuration invalid")
)

type IneligibilityReason string

const (
	ReasonNone                IneligibilityReason = ""
	ReasonNotAMember          IneligibilityReason = "not-a-member"
	ReasonSubscriptionExpired IneligibilityReason = "subscription-expired"
	ReasonWrongProductTier    IneligibilityReason = "wrong-product-tier"
)

// EligibilityError carries the reason an eligibility check failed.
type EligibilityError struct {
	Reason IneligibilityReason
}

func (e EligibilityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotEligible, e.Reason)
}

func (e EligibilityError) Is(target error) bool {
	return target == ErrNotEligible
}

// QuotaError reports the owner's active booking count against the cap.
type QuotaError struct {
	Current int
	Limit   int
}

func (e QuotaError) Error() string {
	return fmt.Sprintf("%s (%d/%d)", ErrQuotaExceeded, e.Current, e.Limit)
}

func (e QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// SlotError reports the state a slot was found in at revalidation.
type SlotError struct {
	State SlotState
}

func (e SlotError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSlotUnavailable, e.State)
}

func (e SlotError) Is(target error) bool {
	return target == ErrSlotUnavailable
}

// conflictError is what a lost commit race looks like to callers: it matches
// both ErrStoreConflict and ErrSlotUnavailable.
type conflictError struct {
	err error
}

func (e conflictError) Error() string {
	return ErrStoreConflict.Error()
}

func (e conflictError) Is(target error) bool {
	return target == ErrStoreConflict || target == ErrSlotUnavailable
}

func (e conflictError) Unwrap() error {
	return e.err
}

// IsRejection reports whether err is an expected admission outcome rather
// than an infrastructure failure.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrNotEligible,
		ErrQuotaExceeded,
		ErrSameDayConflict,
		ErrSlotUnavailable,
		ErrStoreConflict,
		ErrInvalidDuration,
		ErrOutOfHours,
		ErrInvalidCourt,
		ErrDelegationChain,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RejectionCode returns a stable machine-readable code for a rejection, or
// the empty string for other errors.
func RejectionCode(err error) string {
	switch {
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrSameDayConflict):
		return "same_day_conflict"
	case errors.Is(err, ErrStoreConflict):
		return "store_conflict"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrOutOfHours):
		return "out_of_hours"
	case errors.Is(err, ErrInvalidCourt):
		return "invalid_court"
	case errors.Is(err, ErrDelegationChain):
		return "delegation_chain"
	}
	return ""
}
