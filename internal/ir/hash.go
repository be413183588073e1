package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the hashed shape to evolve.
const (
	DomainFoldRecord = "constfold/fold/v1"
	DomainRequest    = "constfold/request/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RequestDigest identifies a fold request independent of when it ran: the
// function, result type, operands in text form and the active flag names.
func RequestDigest(fn, resultType string, args []string, flags []string) (string, error) {
	obj := map[string]any{
		"fn":          fn,
		"result_type": resultType,
		"args":        args,
		"flags":       flags,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RequestDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRequest, canonical), nil
}

// FoldRecordID identifies one journaled evaluation: a request digest within
// a run at a logical sequence number.
func FoldRecordID(runID, requestDigest string, seq int64) (string, error) {
	obj := map[string]any{
		"run_id":         runID,
		"request_digest": requestDigest,
		"seq":            seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("FoldRecordID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFoldRecord, canonical), nil
}
