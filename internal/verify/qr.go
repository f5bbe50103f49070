package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// QRVerifier validates signed QR tokens. A token stays displayable for its
// full TTL, but each individual scan must happen within scanWindow of the
// token's issue time. The window runs from issuance, not from the scan, so a
// stale code forces a re-scan of a fresh one rather than sliding forward.
type QRVerifier struct {
	secret     []byte
	tokenTTL   time.Duration
	scanWindow time.Duration
	now        func() time.Time
}

// NewQRVerifier creates a QR verifier with the given signing secret, token
// TTL and scan freshness window.
func NewQRVerifier(secret string, tokenTTL, scanWindow time.Duration) *QRVerifier {
	return &QRVerifier{
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		scanWindow: scanWindow,
		now:        time.Now,
	}
}

// IssueToken generates the payload encoded into a QR image for the employee.
func (v *QRVerifier) IssueToken(employeeID uuid.UUID) (string, time.Time, error) {
	issuedAt := v.now()
	expiresAt := issuedAt.Add(v.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   employeeID.String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign qr token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify decodes the scanned payload and checks its freshness.
func (v *QRVerifier) Verify(_ context.Context, _ uuid.UUID, proof Proof) (Result, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(proof.QRData, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Result{}, ErrExpiredCredential
		}
		return Result{}, ErrInvalidPayload
	}
	if !parsed.Valid || claims.IssuedAt == nil {
		return Result{}, ErrInvalidPayload
	}

	if v.now().Sub(claims.IssuedAt.Time) > v.scanWindow {
		return Result{}, ErrExpiredCredential
	}

	employeeID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Result{}, ErrInvalidPayload
	}
	return Result{EmployeeID: employeeID}, nil
}
